package handlers

import (
	"strings"

	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/qr"
)

// CardView is the printable business card. Each side covers one country.
type CardView struct {
	FullName string
	Initial  string
	Theme    ThemeView
	Sides    []CardSide
}

// CardSide is one printed side.
type CardSide struct {
	Country CountryView
	QR      QRView
}

// CardCountries returns the countries to print: the selected one when the
// person has it, otherwise all of them.
func CardCountries(p *directory.Person, country string) []directory.Country {
	country = strings.ToLower(strings.TrimSpace(country))
	if country != "" {
		if c, ok := p.Country(country); ok {
			return []directory.Country{c}
		}
	}
	return p.Countries
}

// BuildCard maps the selected countries and their QR codes. slots must be
// in the same order as countries.
func BuildCard(p *directory.Person, countries []directory.Country, slots []qr.Slot) *CardView {
	view := &CardView{
		FullName: p.FullName,
		Initial:  initial(p),
		Theme:    buildTheme(p.Theme),
	}
	for i, c := range countries {
		side := CardSide{Country: buildCountry(c)}
		if i < len(slots) {
			s := slots[i]
			side.QR = QRView{ID: s.ID, ErrorKey: s.ErrorKey}
			if s.OK() {
				side.QR.Src = PNGDataURI(s.PNG)
			}
		}
		view.Sides = append(view.Sides, side)
	}
	return view
}
