package normalize

import (
	"errors"
	"testing"
)

func TestFormatDateTextualPattern(t *testing.T) {
	t.Parallel()

	got, err := FormatDate("April 5 2021 9:30 PM")
	if err != nil {
		t.Fatalf("FormatDate returned error: %v", err)
	}
	if got != "+2021-04-05T00:00:00Z" {
		t.Fatalf("unexpected date: %q", got)
	}
}

func TestFormatDateStripsTimezoneAbbreviation(t *testing.T) {
	t.Parallel()

	got, err := FormatDate("Tue, 20 Apr 2021 14:00:00 GMT")
	if err != nil {
		t.Fatalf("FormatDate returned error: %v", err)
	}
	if got != "+2021-04-20T00:00:00Z" {
		t.Fatalf("unexpected date: %q", got)
	}
}

func TestFormatDateIdempotentOnCanonicalInput(t *testing.T) {
	t.Parallel()

	canonical := "+2021-04-20T00:00:00Z"
	got, err := FormatDate(canonical)
	if err != nil {
		t.Fatalf("FormatDate returned error: %v", err)
	}
	if got != canonical {
		t.Fatalf("not idempotent: %q", got)
	}
}

func TestFormatDateRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := FormatDate("not a date at all!!"); !errors.Is(err, ErrBadDate) {
		t.Fatalf("expected ErrBadDate, got %v", err)
	}
}

func TestFormatArchivalDate(t *testing.T) {
	t.Parallel()

	got, err := FormatArchivalDate("20210420153000")
	if err != nil {
		t.Fatalf("FormatArchivalDate returned error: %v", err)
	}
	if got != "+2021-04-20T00:00:00Z" {
		t.Fatalf("unexpected date: %q", got)
	}
}

func TestFormatArchivalDateRejectsNonTimestamp(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "2021042015300", "202104201530001", "2021042015300a", "2021-04-20T00:0"} {
		if _, err := FormatArchivalDate(raw); !errors.Is(err, ErrBadArchivalDate) {
			t.Fatalf("%q: expected ErrBadArchivalDate, got %v", raw, err)
		}
	}
}
