// Package slug derives URL identifiers from human text.
package slug

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallback is used when the input has no ASCII letters or digits at all.
const fallback = "place"

// Make joins the parts with "-", strips diacritics, lowercases, collapses every run of
// characters outside [a-z0-9] into a single "-" and trims leading/trailing dashes.
// The result is deterministic for a given input.
func Make(parts ...string) string {
	raw := strings.Join(parts, "-")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// WithSuffix disambiguates a slug that is already taken by appending the
// base-36 millisecond timestamp.
func WithSuffix(base string, now time.Time) string {
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 36)
}
