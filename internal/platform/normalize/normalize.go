// Package normalize builds canonical comparison keys for free-text names
// coming out of the tournament portal and the license register. The same
// function is used when storing a canonical row and when matching an
// incoming raw row, so it must stay pure and deterministic.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Danish letters that the sources spell inconsistently. The portal writes
// "Brønshøj", the license register "Bronshoj"; ranking exports have been seen
// with both "å" and "aa". All variants must collapse to the same key.
var letterFolds = strings.NewReplacer(
	"ø", "o",
	"ö", "o",
	"æ", "ae",
	"ä", "ae",
	"å", "a",
	"ü", "u",
	"ß", "ss",
)

// Key maps a raw name to its canonical comparison key.
//
// Rules, applied in order: lower-case; fold Danish letter variants and strip
// remaining diacritics; unify hyphen and slash separators to a single space;
// collapse whitespace runs; strip leading and trailing punctuation. Key is
// idempotent: Key(Key(x)) == Key(x).
func Key(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}

	value = letterFolds.Replace(value)
	if folded, _, err := transform.String(stripDiacritics, value); err == nil {
		value = folded
	}

	var b strings.Builder
	b.Grow(len(value))
	lastSep := true
	lastA := false
	for _, r := range value {
		switch {
		case r == 'a':
			// "aa" and "å" are the same Danish letter; both collapse to a
			// single "a" so Key stays idempotent after the å fold above.
			if !lastA {
				b.WriteRune(r)
			}
			lastA = true
			lastSep = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSep = false
			lastA = false
		case r == '-' || r == '/' || unicode.IsSpace(r):
			if !lastSep {
				b.WriteByte(' ')
				lastSep = true
			}
			lastA = false
		default:
			// Other punctuation ('.', ',', quotes) carries no identity.
			// lastA is kept: the output stays adjacent when a dot is dropped.
		}
	}

	return strings.TrimSpace(b.String())
}

// Equal reports whether two raw names normalize to the same key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
