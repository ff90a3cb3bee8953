package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/qr"
	"github.com/stefan-ffr/mueller/internal/vcard"
)

const exportConcurrency = 4

type exportOptions struct {
	out        string
	country    string
	perCountry bool
	withQR     bool
	siteURL    string
}

func newExportCmd(c *cli) *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: "Write .vcf files (and optionally QR PNGs) for everyone or the given ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.withQR && opts.siteURL == "" {
				opts.siteURL = c.cfg.Server.PublicURL
			}
			if opts.withQR && opts.siteURL == "" {
				return fmt.Errorf("--qr needs --site-url or MUELLER_WEB_PUBLIC_URL for the profile link")
			}
			people, err := c.selectPeople(cmd.Context(), args)
			if err != nil {
				return err
			}
			written, err := c.export(cmd.Context(), people, opts)
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.out, "out", "o", "vcards", "output directory")
	f.StringVar(&opts.country, "country", "", "only include this country (ch, th)")
	f.BoolVar(&opts.perCountry, "per-country", false, "also write one file per country for people with several")
	f.BoolVar(&opts.withQR, "qr", false, "also write the profile QR codes as PNG")
	f.StringVar(&opts.siteURL, "site-url", "", "public site origin the link QR code points to")
	return cmd
}

// export writes every person concurrently. Each person's files land in the
// same directory; the returned paths are in input order.
func (c *cli) export(ctx context.Context, people []*directory.Person, opts exportOptions) ([]string, error) {
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.out, err)
	}
	gen := qr.NewGenerator(qr.PNGEncoder{}, c.logger)
	country := strings.ToLower(strings.TrimSpace(opts.country))
	if err := checkFilenames(people, country, opts); err != nil {
		return nil, err
	}

	results := make([][]string, len(people))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, p := range people {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			paths, err := exportPerson(gen, p, country, opts)
			results[i] = paths
			if err != nil {
				return fmt.Errorf("export %s: %w", p.ID, err)
			}
			c.logger.Debug("exported person", zap.String("person", p.ID), zap.Int("files", len(paths)))
			return nil
		})
	}
	err := g.Wait()

	var written []string
	for _, paths := range results {
		written = append(written, paths...)
	}
	return written, err
}

// checkFilenames fails before anything is written when two people would
// write the same .vcf file, e.g. because they share a full name.
func checkFilenames(people []*directory.Person, country string, opts exportOptions) error {
	owners := make(map[string]string)
	for _, p := range people {
		for _, filter := range exportFilters(p, country, opts) {
			name := vcard.Filename(p, filter)
			if owner, ok := owners[name]; ok && owner != p.ID {
				return fmt.Errorf("%s and %s both export to %s; export them to separate --out directories", owner, p.ID, name)
			}
			owners[name] = p.ID
		}
	}
	return nil
}

func exportFilters(p *directory.Person, country string, opts exportOptions) []string {
	filters := []string{country}
	if country == "" && opts.perCountry && len(p.Countries) > 1 {
		for _, c := range p.Countries {
			filters = append(filters, strings.ToLower(c.Code))
		}
	}
	return filters
}

func exportPerson(gen *qr.Generator, p *directory.Person, country string, opts exportOptions) ([]string, error) {
	var paths []string
	for _, filter := range exportFilters(p, country, opts) {
		path, err := vcard.WriteFile(opts.out, p, filter)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if !opts.withQR {
		return paths, nil
	}

	pageURL := strings.TrimRight(opts.siteURL, "/") + "/profile?person=" + url.QueryEscape(p.ID)
	for _, slot := range gen.ProfileQRCodes(p, pageURL) {
		if !slot.OK() {
			return paths, fmt.Errorf("qr %s: %s", slot.ID, slot.ErrorKey)
		}
		path := filepath.Join(opts.out, p.ID+"_"+slot.ID+".png")
		if err := os.WriteFile(path, slot.PNG, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
