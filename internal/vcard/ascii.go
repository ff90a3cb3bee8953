package vcard

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var umlauts = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"Ä", "Ae",
	"Ö", "Oe",
	"Ü", "Ue",
	"ß", "ss",
)

// ToASCII transliterates German umlauts and ß. Decomposed input (u + U+0308)
// is composed first so both spellings are caught. Plain ASCII is returned as is.
func ToASCII(s string) string {
	if isASCII(s) {
		return s
	}
	return umlauts.Replace(norm.NFC.String(s))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
