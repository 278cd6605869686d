// Package textutil provides the text normalization and structured-extraction
// helpers used by the intent router, the FAQ matcher, and the flow engines.
//
// Normalization is applied before every keyword comparison so accented user
// input ("inscripción", "menú") matches the ASCII keyword tables. Extractors
// are pure functions returning (value, ok) so "no match" can never be
// confused with an empty value.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics decomposes to NFD, drops combining marks, and recomposes.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s, strips diacritics, replaces every rune that is not
// a letter, digit, '+' or '-' with a space, and collapses whitespace runs to
// a single space. The result is the canonical form every keyword table and
// step validator operates on.
func Normalize(s string) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// phoneRE matches a digit run with optional leading '+' and internal
// separators, permissive enough for "+593 99 111 2233", "0991112233" and
// "099-111-2233" alike.
var phoneRE = regexp.MustCompile(`\+?\d[\d\s.\-]{4,}\d`)

const (
	phoneMinDigits = 7
	phoneMaxDigits = 15
)

// Phone extracts the first plausible phone number from free text. The
// returned value keeps a leading '+' when the user typed one and drops
// internal separators; ok is false when no digit sequence of plausible
// length is present.
func Phone(s string) (string, bool) {
	for _, m := range phoneRE.FindAllString(s, -1) {
		plus := strings.HasPrefix(m, "+")
		digits := Digits(m)
		if n := len(digits); n < phoneMinDigits || n > phoneMaxDigits {
			continue
		}
		if plus {
			return "+" + digits, true
		}
		return digits, true
	}
	return "", false
}

// orderCodeRE matches a standalone 4-digit code.
var orderCodeRE = regexp.MustCompile(`\b(\d{4})\b`)

// OrderCode extracts a 4-digit certificate order code from free text.
func OrderCode(s string) (string, bool) {
	m := orderCodeRE.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LetterChoice interprets a normalized single-letter answer ("a", "b", …)
// as a zero-based index. ok is false for anything but one ASCII letter.
func LetterChoice(s string) (int, bool) {
	s = Normalize(s)
	if len(s) != 1 || s[0] < 'a' || s[0] > 'z' {
		return 0, false
	}
	return int(s[0] - 'a'), true
}

// Digits returns only the decimal digits of s, in order.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastN returns the trailing n bytes of a digits-only string, or the whole
// string when it is shorter. Used for phone-variant matching where stored
// formats differ in country/trunk prefixes.
func LastN(digits string, n int) string {
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// ContainsNormalized reports whether the normalized haystack contains the
// normalized needle. Both sides go through Normalize so fuzzy course-name
// matching is accent- and case-insensitive.
func ContainsNormalized(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}
