package handlers

import (
	"encoding/base64"
	"html/template"
	"net/url"
	"strings"

	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/format"
	"github.com/stefan-ffr/mueller/internal/qr"
)

// ProfileView drives the profile page.
type ProfileView struct {
	ID       string
	FullName string
	Initial  string
	Theme    ThemeView

	QuickContacts []QuickContactView
	Countries     []CountryView
	// CountryGrid is set when several country cards sit side by side.
	CountryGrid bool

	QRCodes   []QRView
	QRColumns int

	Downloads []DownloadButton
	PrintHref string
}

// ThemeView exposes the Tailwind classes derived from a person's theme.
type ThemeView struct {
	GradientFrom string
	GradientTo   string
	BgGradient   string
	TextColor    string
	ButtonColor  string
	ButtonHover  string
	// HoverBg is the first background gradient color, used on quick contact buttons.
	HoverBg string
}

// QuickContactView is one labelled call/SMS pair.
type QuickContactView struct {
	LabelKey string
	TelHref  string
	TelURL   template.URL
	SMSURL   template.URL
}

// CountryView is one country card.
type CountryView struct {
	Code       string
	Name       string
	Flag       string
	HeadingKey string
	Phone      string
	TelHref    string
	TelURL     template.URL
	Email      string
	MailURL    template.URL
	Address    template.HTML
}

// QRView is one QR code slot.
type QRView struct {
	ID       string
	TitleKey string
	DescKey  string
	Src      template.URL
	Href     string
	ErrorKey string
}

// DownloadButton links a vCard download.
type DownloadButton struct {
	LabelKey string
	Href     string
}

// BuildProfile maps a resolved person and its rendered QR slots. lang is
// carried into the print link.
func BuildProfile(p *directory.Person, slots []qr.Slot, lang string) *ProfileView {
	view := &ProfileView{
		ID:          p.ID,
		FullName:    p.FullName,
		Initial:     initial(p),
		Theme:       buildTheme(p.Theme),
		CountryGrid: len(p.Countries) > 1,
		QRColumns:   2,
	}
	if len(slots) > 2 {
		view.QRColumns = 3
	}
	for _, qc := range p.QuickContacts {
		tel := dialable(qc.Phone)
		view.QuickContacts = append(view.QuickContacts, QuickContactView{
			LabelKey: qc.Label,
			TelHref:  format.TelHref(qc.Phone),
			TelURL:   template.URL("tel:" + tel),
			SMSURL:   template.URL("sms:" + tel),
		})
	}
	for _, c := range p.Countries {
		view.Countries = append(view.Countries, buildCountry(c))
	}
	for _, s := range slots {
		q := QRView{
			ID:       s.ID,
			TitleKey: s.TitleKey,
			DescKey:  s.DescKey,
			Href:     "/qr/" + url.PathEscape(p.ID) + "/" + url.PathEscape(s.ID) + ".png",
			ErrorKey: s.ErrorKey,
		}
		if s.OK() {
			q.Src = PNGDataURI(s.PNG)
		}
		view.QRCodes = append(view.QRCodes, q)
	}

	vcardHref := "/vcard/" + url.PathEscape(p.ID) + ".vcf"
	if len(p.Countries) <= 1 {
		view.Downloads = []DownloadButton{{LabelKey: "download", Href: vcardHref}}
	} else {
		view.Downloads = []DownloadButton{{LabelKey: "download_all", Href: vcardHref}}
		for _, c := range p.Countries {
			code := strings.ToLower(c.Code)
			key := "download_" + code
			if code != "ch" && code != "th" {
				key = "download"
			}
			view.Downloads = append(view.Downloads, DownloadButton{
				LabelKey: key,
				Href:     vcardHref + "?country=" + url.QueryEscape(code),
			})
		}
	}
	view.PrintHref = CardHref(p.ID, "", lang)
	return view
}

// CardHref links the printable business card.
func CardHref(personID, country, lang string) string {
	q := url.Values{}
	q.Set("person", personID)
	if country != "" {
		q.Set("country", country)
	}
	if lang != "" {
		q.Set("lang", lang)
	}
	return "/business-card?" + q.Encode()
}

// PNGDataURI embeds png bytes for an <img src>.
func PNGDataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

func buildTheme(t directory.Theme) ThemeView {
	return ThemeView{
		GradientFrom: t.GradientFrom,
		GradientTo:   t.GradientTo,
		BgGradient:   t.BgGradient,
		TextColor:    t.TextColor,
		ButtonColor:  t.ButtonColor,
		ButtonHover:  t.ButtonHover,
		HoverBg:      t.BgFrom(),
	}
}

func buildCountry(c directory.Country) CountryView {
	view := CountryView{
		Code:       c.Code,
		Name:       c.Name,
		Flag:       c.Flag,
		HeadingKey: countryHeadingKey(c.Code),
		Email:      c.Email,
	}
	if view.Flag == "" {
		view.Flag = format.FlagForCountry(c.Code)
	}
	if c.Phone != "" {
		view.Phone = format.Phone(c.Phone)
		view.TelHref = format.TelHref(c.Phone)
		view.TelURL = template.URL("tel:" + dialable(c.Phone))
	}
	if c.Email != "" {
		view.MailURL = template.URL("mailto:" + url.PathEscape(c.Email))
	}
	if addr := c.Address.Resolved(); addr != nil {
		// format.Address escapes every part
		view.Address = template.HTML(format.Address(addr.Fields()))
	}
	return view
}

func countryHeadingKey(code string) string {
	switch strings.ToLower(code) {
	case "ch":
		return "switzerland"
	case "th":
		return "thailand"
	default:
		return "contact"
	}
}

// dialable keeps the characters a tel: or sms: URL may carry. html/template
// rejects those schemes, so the URL is built here and must stay inert.
func dialable(phone string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '*', r == '#':
			return r
		}
		return -1
	}, phone)
}
