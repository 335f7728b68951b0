package nlp

import "strings"

var turkishFold = strings.NewReplacer(
	"ı", "i", "İ", "i",
	"ş", "s", "Ş", "s",
	"ğ", "g", "Ğ", "g",
	"ç", "c", "Ç", "c",
	"ö", "o", "Ö", "o",
	"ü", "u", "Ü", "u",
)

// Normalize canonicalizes free text for keyword matching: lowercases, folds
// Turkish diacritics to their base letters, drops everything outside
// [a-z0-9 ] and collapses whitespace. Total and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := turkishFold.Replace(text)
	s = strings.ToLower(s)
	// folding again catches uppercase diacritics produced by ToLower edge
	// cases in other locales; cheap and keeps the function idempotent
	s = turkishFold.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// ContainsAny reports whether any keyword occurs in the normalized question.
// Substring based, same as the keyword tables expect.
func ContainsAny(qn string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(qn, k) {
			return true
		}
	}
	return false
}
