package vcard

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/stefan-ffr/mueller/internal/directory"
)

var filenameSuffix = map[string]string{
	"":   "_Komplett",
	"ch": "_Schweiz",
	"th": "_Thailand",
}

// Filename returns the download name, e.g. "Stefan_Müller_Schweiz.vcf".
// Codes other than ch and th get no suffix.
func Filename(person *directory.Person, countryFilter string) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, person.FullName)
	return base + filenameSuffix[countryFilter] + ".vcf"
}

// Write sends the card as a file download.
func Write(w http.ResponseWriter, person *directory.Person, countryFilter string) error {
	body := Generate(person, countryFilter, false)
	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": Filename(person, countryFilter),
	}))
	h.Set("Cache-Control", "no-store")
	_, err := w.Write([]byte(body))
	return err
}

// WriteFile stores the card in dir and returns the path written.
func WriteFile(dir string, person *directory.Person, countryFilter string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("vcard: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, Filename(person, countryFilter))
	if err := os.WriteFile(path, []byte(Generate(person, countryFilter, false)), 0o644); err != nil {
		return "", fmt.Errorf("vcard: write %s: %w", path, err)
	}
	return path, nil
}
