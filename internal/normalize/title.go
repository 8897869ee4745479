package normalize

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// Length bounds imposed by the remote store.
const (
	// LabelMax is the longest label/search string the store accepts.
	LabelMax = 250
	// ChunkMax is the longest single title claim; longer titles are split.
	ChunkMax = 400
	// URLMax is the longest URL claim value. URLs cannot be truncated, so
	// exceeding this bound is fatal.
	URLMax = 500
)

const (
	truncateAt = LabelMax - 3
	ellipsis   = "..."
)

// corruptMarker is a mojibake sequence that must never reach the store.
// Its cousin below is repairable; this one indicates the source data is
// damaged beyond what normalization can fix.
const corruptMarker = ",Äô"

var quoteFolder = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"‚Äô", "'",
)

// ErrCorruptTitle reports a title still carrying the corrupt marker after
// normalization. The run must stop rather than write damaged data.
var ErrCorruptTitle = errors.New("corrupt sequence in title")

// Title canonicalizes a raw feed title: joins it across lines, unescapes
// HTML entities, and folds typographic quotes to their ASCII forms.
func Title(raw string) (string, error) {
	joined := strings.Join(strings.Fields(raw), " ")
	folded := quoteFolder.Replace(html.UnescapeString(joined))
	if strings.Contains(folded, corruptMarker) {
		return "", fmt.Errorf("%w: %q", ErrCorruptTitle, folded)
	}
	return folded, nil
}

// SplitAggregatorTitle strips the trailing " - <source>" suffix aggregators
// append. The stem becomes the searchable title; the full string is kept as
// an alias.
func SplitAggregatorTitle(title string) (stem, alias string) {
	stem, _, found := strings.Cut(title, " - ")
	if !found {
		return title, ""
	}
	return stem, title
}

// Truncate bounds a title for use as a search string or label. Titles over
// LabelMax runes are cut to their first 247 runes plus an ellipsis marker.
func Truncate(title string) string {
	if utf8.RuneCountInString(title) <= LabelMax {
		return title
	}
	return string([]rune(title)[:truncateAt]) + ellipsis
}

// SplitTitle packs whole words into ordered chunks, greedily: a word joins
// the current chunk while the chunk length including separators stays within
// max. A single word wider than max is hard-split at rune boundaries, so no
// chunk ever exceeds the cap.
func SplitTitle(text string, max int) []string {
	var (
		chunks  []string
		current []string
		width   int
	)
	for _, word := range strings.Fields(text) {
		wordWidth := utf8.RuneCountInString(word)
		if wordWidth > max {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, " "))
			}
			runes := []rune(word)
			for len(runes) > max {
				chunks = append(chunks, string(runes[:max]))
				runes = runes[max:]
			}
			current = []string{string(runes)}
			width = len(runes)
			continue
		}
		if width+len(current)+wordWidth <= max {
			current = append(current, word)
			width += wordWidth
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
		current = []string{word}
		width = wordWidth
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
