package format

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// AddressFields are the address parts the formatters read. Kept local so
// format has no dependency on the directory model.
type AddressFields struct {
	Street     string
	District   string
	Amphoe     string
	City       string
	PostalCode string
	Country    string
}

const defaultFlag = "🌍"

var flags = map[string]string{
	"ch": "🇨🇭",
	"th": "🇹🇭",
	"de": "🇩🇪",
	"at": "🇦🇹",
	"fr": "🇫🇷",
	"it": "🇮🇹",
	"li": "🇱🇮",
	"gb": "🇬🇧",
	"us": "🇺🇸",
	"nl": "🇳🇱",
}

// FlagForCountry returns the emoji flag for a two letter country code.
// Unknown codes get a globe.
func FlagForCountry(code string) string {
	if flag, ok := flags[strings.ToLower(strings.TrimSpace(code))]; ok {
		return flag
	}
	return defaultFlag
}

// Phone groups Swiss and Thai mobile numbers for display.
//
//	+41791234567 => +41 79 123 45 67
//	+66812345678 => +66 81 234 5678
//
// Any other shape is returned unchanged.
func Phone(phone string) string {
	compact := stripSpace(phone)
	switch {
	case strings.HasPrefix(compact, "+41"):
		rest := compact[3:]
		if len(rest) == 9 && allDigits(rest) {
			return "+41 " + rest[0:2] + " " + rest[2:5] + " " + rest[5:7] + " " + rest[7:9]
		}
	case strings.HasPrefix(compact, "+66"):
		rest := compact[3:]
		if len(rest) == 9 && allDigits(rest) {
			return "+66 " + rest[0:2] + " " + rest[2:5] + " " + rest[5:9]
		}
	}
	return phone
}

// TelHref strips whitespace so the number can be used in tel: and sms: links.
func TelHref(phone string) string {
	return stripSpace(phone)
}

// EscapeHTML escapes the five HTML special characters.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// Address renders an address as escaped HTML lines joined by <br>.
// Swiss postal codes are prefixed with CH-.
func Address(addr AddressFields) string {
	parts := make([]string, 0, 5)
	if addr.Street != "" {
		parts = append(parts, EscapeHTML(addr.Street))
	}
	if addr.District != "" {
		parts = append(parts, EscapeHTML(addr.District))
	}
	if addr.Amphoe != "" {
		parts = append(parts, EscapeHTML(addr.Amphoe))
	}

	cityLine := make([]string, 0, 2)
	if addr.PostalCode != "" {
		postal := addr.PostalCode
		if isSwiss(addr.Country) && !strings.HasPrefix(postal, "CH-") {
			postal = "CH-" + postal
		}
		cityLine = append(cityLine, EscapeHTML(postal))
	}
	if addr.City != "" {
		cityLine = append(cityLine, EscapeHTML(addr.City))
	}
	if len(cityLine) > 0 {
		parts = append(parts, strings.Join(cityLine, " "))
	}

	if addr.Country != "" {
		parts = append(parts, EscapeHTML(addr.Country))
	}
	return strings.Join(parts, "<br>")
}

// AddressPlain renders street, district, amphoe and city joined by ", ".
func AddressPlain(addr AddressFields) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{addr.Street, addr.District, addr.Amphoe, addr.City} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func isSwiss(country string) bool {
	switch strings.TrimSpace(country) {
	case "Schweiz", "Switzerland":
		return true
	}
	return false
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
