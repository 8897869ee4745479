package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Store time format: day precision, midnight UTC, explicit sign.
const storeTimeLayout = "+2006-01-02T00:00:00Z"

// feedDateLayout is the textual pattern some feeds use verbatim.
const feedDateLayout = "January 2 2006 3:04 PM"

var trailingTZ = regexp.MustCompile(`\s[A-Z]{3}$`)

// ErrBadDate reports a publication date that neither the named pattern nor
// the fallback parser understands. Dates are required to be well formed
// before anything is written, so this is fatal.
var ErrBadDate = errors.New("unparseable date")

// ErrBadArchivalDate reports an archival timestamp that is not exactly 14
// digits. Also fatal.
var ErrBadArchivalDate = errors.New("invalid archival timestamp")

// FormatDate converts a feed publication date into the store's canonical
// day-precision form. A trailing three-letter timezone abbreviation is
// dropped first; the named feed pattern is tried before the general parser.
// Already-canonical input passes through unchanged.
func FormatDate(raw string) (string, error) {
	cleaned := trailingTZ.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.TrimPrefix(cleaned, "+")

	if t, err := time.Parse(feedDateLayout, cleaned); err == nil {
		return t.Format(storeTimeLayout), nil
	}
	if t, err := dateparse.ParseAny(cleaned); err == nil {
		return t.Format(storeTimeLayout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadDate, raw)
}

// FormatArchivalDate converts an archive capture timestamp (YYYYMMDDhhmmss)
// into the store's canonical form. Anything but 14 ASCII digits is rejected.
func FormatArchivalDate(raw string) (string, error) {
	ts := strings.TrimSpace(raw)
	if len(ts) != 14 || !allDigits(ts) {
		return "", fmt.Errorf("%w: %q", ErrBadArchivalDate, raw)
	}
	return fmt.Sprintf("+%s-%s-%sT00:00:00Z", ts[:4], ts[4:6], ts[6:8]), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
