package seo

import (
	"encoding/json"
	"html/template"

	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/format"
)

// JSON marshals v for a <script type="application/ld+json"> block. It returns
// an empty string on error. encoding/json escapes <, > and &, so the output
// cannot close the script element.
func JSON(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(b)
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

// Person returns a schema.org Person for a resolved profile. Unresolved
// address references are left out.
func Person(p *directory.Person, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Person",
		"name":     p.FullName,
	}
	if p.FirstName != "" {
		m["givenName"] = p.FirstName
	}
	if p.LastName != "" {
		m["familyName"] = p.LastName
	}
	if url != "" {
		m["url"] = url
	}
	var phones, emails []string
	var addresses []map[string]any
	for _, c := range p.Countries {
		if c.Phone != "" {
			phones = append(phones, format.TelHref(c.Phone))
		}
		if c.Email != "" {
			emails = append(emails, c.Email)
		}
		if addr := c.Address.Resolved(); addr != nil {
			a := map[string]any{"@type": "PostalAddress"}
			if addr.Street != "" {
				a["streetAddress"] = addr.Street
			}
			if addr.City != "" {
				a["addressLocality"] = addr.City
			}
			if region := firstNonEmpty(addr.Amphoe, addr.District); region != "" {
				a["addressRegion"] = region
			}
			if addr.PostalCode != "" {
				a["postalCode"] = addr.PostalCode
			}
			if addr.Country != "" {
				a["addressCountry"] = addr.Country
			}
			addresses = append(addresses, a)
		}
	}
	if len(phones) > 0 {
		m["telephone"] = phones
	}
	if len(emails) > 0 {
		m["email"] = emails
	}
	if len(addresses) > 0 {
		m["address"] = addresses
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
