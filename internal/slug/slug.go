// Package slug derives URL slugs from titles.
package slug

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lmojica26/womenhealthytips.com/internal/retry"
)

// MaxLength caps a derived slug.
const MaxLength = 100

// Make lowercases s, folds accents, collapses every run of characters
// outside [a-z0-9] into a single hyphen and trims hyphens from both ends.
// The result is at most MaxLength bytes.
func Make(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
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

	out := b.String()
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// WithSuffix appends a numeric suffix, trimming base so the result stays
// within MaxLength.
func WithSuffix(base string, suffix int64) string {
	tail := "-" + strconv.FormatInt(suffix, 10)
	if len(base)+len(tail) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(tail)], "-")
	}
	return base + tail
}

// Insert calls insert with base and, while taken classifies the returned
// error as a collision, with base suffixed by now in milliseconds plus the
// retry number. At most retries suffixed attempts are made.
func Insert(ctx context.Context, base string, now time.Time, retries int, taken func(error) bool, insert func(slug string) error) error {
	return retry.Do(ctx, retry.Immediate(retries, taken), func(attempt int) error {
		s := base
		if attempt > 0 {
			s = WithSuffix(base, now.UnixMilli()+int64(attempt-1))
		}
		return insert(s)
	})
}
