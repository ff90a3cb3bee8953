// Package vcard renders directory people as vCard 3.0 text.
package vcard

import (
	"strings"
	"unicode"

	"github.com/stefan-ffr/mueller/internal/directory"
)

const (
	// ContentType is the MIME type of generated cards.
	ContentType = "text/vcard;charset=utf-8"

	lineBreak = "\n"
)

// Generate builds a vCard for person. A non-empty countryFilter keeps only the
// country with that code. Simplified cards omit addresses to stay small enough
// for a QR code.
//
// Lines are separated by "\n" and the card has no trailing newline.
func Generate(person *directory.Person, countryFilter string, simplified bool) string {
	countries := filterCountries(person, countryFilter)

	b := newBuilder()
	b.line("FN:" + person.FullName)
	b.line("N:" + person.LastName + ";" + person.FirstName + ";;;")
	for _, c := range countries {
		if c.Phone != "" {
			b.line("TEL;TYPE=CELL:" + compactPhone(c.Phone))
		}
	}
	if email := firstEmail(countries); email != "" {
		b.line("EMAIL:" + email)
	}
	if !simplified {
		for _, c := range countries {
			if addr := c.Address.Resolved(); addr != nil {
				b.line(adrLine(*addr))
			}
		}
	}
	return b.finish()
}

// GenerateForQR builds a size constrained card with umlauts transliterated.
// Without a country code it carries every phone number and one email but no
// address. With a code it carries that country's phone, email and address.
func GenerateForQR(person *directory.Person, countryCode string) string {
	b := newBuilder()
	b.line("FN:" + ToASCII(person.FullName))
	b.line("N:" + ToASCII(person.LastName) + ";" + ToASCII(person.FirstName) + ";;;")

	if countryCode == "" {
		for _, c := range person.Countries {
			if c.Phone != "" {
				b.line("TEL;TYPE=CELL:" + compactPhone(c.Phone))
			}
		}
		if email := firstEmail(person.Countries); email != "" {
			b.line("EMAIL:" + email)
		}
		return b.finish()
	}

	c, ok := person.Country(countryCode)
	if !ok {
		return b.finish()
	}
	if c.Phone != "" {
		b.line("TEL;TYPE=CELL:" + compactPhone(c.Phone))
	}
	if c.Email != "" {
		b.line("EMAIL:" + c.Email)
	}
	if addr := c.Address.Resolved(); addr != nil {
		ascii := directory.Address{
			Street:     ToASCII(addr.Street),
			District:   ToASCII(addr.District),
			Amphoe:     ToASCII(addr.Amphoe),
			City:       ToASCII(addr.City),
			PostalCode: addr.PostalCode,
			Country:    ToASCII(addr.Country),
		}
		b.line(adrLine(ascii))
	}
	return b.finish()
}

// adrLine renders ADR;TYPE=HOME:;;street[, district[, amphoe]];city;;postal;country.
func adrLine(addr directory.Address) string {
	extended := make([]string, 0, 2)
	if addr.District != "" {
		extended = append(extended, addr.District)
	}
	if addr.Amphoe != "" {
		extended = append(extended, addr.Amphoe)
	}
	street := addr.Street
	if len(extended) > 0 {
		street += ", " + strings.Join(extended, ", ")
	}
	return "ADR;TYPE=HOME:;;" + street + ";" + addr.City + ";;" + addr.PostalCode + ";" + addr.Country
}

func filterCountries(person *directory.Person, code string) []directory.Country {
	if code == "" {
		return person.Countries
	}
	out := make([]directory.Country, 0, 1)
	for _, c := range person.Countries {
		if strings.EqualFold(c.Code, code) {
			out = append(out, c)
		}
	}
	return out
}

func firstEmail(countries []directory.Country) string {
	for _, c := range countries {
		if c.Email != "" {
			return c.Email
		}
	}
	return ""
}

func compactPhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

type builder struct {
	sb strings.Builder
}

func newBuilder() *builder {
	b := &builder{}
	b.line("BEGIN:VCARD")
	b.line("VERSION:3.0")
	return b
}

func (b *builder) line(s string) {
	b.sb.WriteString(s)
	b.sb.WriteString(lineBreak)
}

func (b *builder) finish() string {
	b.sb.WriteString("END:VCARD")
	return b.sb.String()
}
