package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"github.com/stefan-ffr/mueller/internal/config"
	"github.com/stefan-ffr/mueller/internal/directory"
)

func testFS() fstest.MapFS {
	theme := `"theme": {"colorDark": "#1e40af", "gradientFrom": "blue-500", "gradientTo": "indigo-600", "bgGradient": "from-blue-50 to-indigo-100", "textColor": "blue-600", "buttonColor": "blue-600", "buttonHover": "blue-700"}`
	return fstest.MapFS{
		"shared.json": {Data: []byte(`{"addresses": {"emmen": {"street": "Gerliswilstrasse 1", "city": "Emmenbrücke", "postalCode": "6020", "country": "Schweiz"}}}`)},
		"stefan.json": {Data: []byte(`{"id": "stefan", "displayOrder": 2, "fullName": "Stefan Müller", "firstName": "Stefan", "lastName": "Müller", ` + theme + `,
  "countries": [
    {"code": "ch", "name": "Schweiz", "phone": "+41791234567", "email": "stefan@example.ch", "address": "@shared/emmen"},
    {"code": "th", "name": "Thailand", "phone": "+66812345678"}
  ]}`)},
		"samret.json": {Data: []byte(`{"id": "samret", "displayOrder": 1, "fullName": "สำเริง Müller", "firstName": "สำเริง", "lastName": "Müller", ` + theme + `,
  "countries": [{"code": "th", "name": "Thailand", "email": "samret@example.com"}]}`)},
		"stefan2.json": {Data: []byte(`{"id": "stefan2", "displayOrder": 3, "fullName": "Stefan Müller", "firstName": "Stefan", "lastName": "Müller", ` + theme + `,
  "countries": [{"code": "ch", "name": "Schweiz", "phone": "+41797654321"}]}`)},
	}
}

// run executes the root command against in-memory documents.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := &cli{newSource: func(context.Context, config.Config) (directory.Source, func(), error) {
		return directory.NewFSSource(testFS()), func() {}, nil
	}}
	root := newRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", "", "--people", "stefan,samret", "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListAlignsColumns(t *testing.T) {
	out, err := run(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "samret "), lines[1])
	require.True(t, strings.HasPrefix(lines[2], "stefan "), lines[2])
	require.Contains(t, lines[2], "🇨🇭 CH, 🇹🇭 TH")
	require.Contains(t, lines[2], "+41 79 123 45 67")
	require.Contains(t, lines[2], "Gerliswilstrasse 1, Emmenbrücke")
	require.True(t, strings.HasSuffix(lines[1], "samret@example.com"))

	// EMAIL starts at the same display column on every row
	col := runewidth.StringWidth(lines[0][:strings.Index(lines[0], "EMAIL")])
	for _, line := range lines[1:] {
		at := strings.LastIndex(line, "  ") + 2
		require.Equal(t, col, runewidth.StringWidth(line[:at]), line)
	}
}

func TestShowPrintsVCard(t *testing.T) {
	out, err := run(t, "show", "stefan", "--country", "TH")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "BEGIN:VCARD\nVERSION:3.0\nFN:Stefan Müller\n"))
	require.Contains(t, out, "TEL;TYPE=CELL:+66812345678")
	require.NotContains(t, out, "+41791234567")

	out, err = run(t, "show", "stefan", "--qr")
	require.NoError(t, err)
	require.Contains(t, out, "FN:Stefan Mueller")
	require.NotContains(t, out, "ADR")

	_, err = run(t, "show", "nobody")
	require.Error(t, err)
	require.True(t, directory.IsNotFound(err))
}

func TestExportWritesFiles(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "export", "stefan", "--out", dir, "--per-country", "--qr", "--site-url", "https://family.example.ch/")
	require.NoError(t, err)

	want := []string{
		"Stefan_Müller_Komplett.vcf",
		"Stefan_Müller_Schweiz.vcf",
		"Stefan_Müller_Thailand.vcf",
		"stefan_vcard-ch.png",
		"stefan_vcard-th.png",
		"stefan_link.png",
	}
	var printed []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		printed = append(printed, filepath.Base(line))
	}
	require.Equal(t, want, printed)

	for _, name := range want {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		require.NotZero(t, info.Size(), name)
	}
	body, err := os.ReadFile(filepath.Join(dir, "Stefan_Müller_Schweiz.vcf"))
	require.NoError(t, err)
	require.Contains(t, string(body), "ADR;TYPE=HOME:;;Gerliswilstrasse 1;Emmenbrücke;;6020;Schweiz")
}

func TestExportRejectsDuplicateFilenames(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "export", "stefan", "stefan2", "--out", dir)
	require.ErrorContains(t, err, "stefan and stefan2 both export to Stefan_Müller_Komplett.vcf")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExportQRNeedsSiteURL(t *testing.T) {
	t.Setenv("MUELLER_WEB_PUBLIC_URL", "")
	_, err := run(t, "export", "--out", t.TempDir(), "--qr")
	require.ErrorContains(t, err, "--site-url")
}
