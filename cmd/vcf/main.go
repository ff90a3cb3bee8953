// Command vcf exports family contact cards to disk without running the web server.
//
// Usage:
//
//	vcf list
//	vcf show stefan --country ch
//	vcf export --out ./cards --qr --site-url https://family.example.ch
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefan-ffr/mueller/internal/config"
	"github.com/stefan-ffr/mueller/internal/directory"
	"github.com/stefan-ffr/mueller/internal/observability"
)

// cli carries the flags and the loader shared by every subcommand.
type cli struct {
	envFile  string
	dataDir  string
	dataURL  string
	people   []string
	logLevel string
	strict   bool

	cfg    config.Config
	logger *zap.Logger
	loader *directory.Loader

	// newSource is replaced in tests.
	newSource func(ctx context.Context, cfg config.Config) (directory.Source, func(), error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cli{newSource: openSource}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	var closeSource func()
	root := &cobra.Command{
		Use:           "vcf",
		Short:         "Export family contact cards",
		Long:          "Reads the family documents the web server uses and writes vCards and QR codes to disk.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			closeSource, err = c.setup(cmd.Context())
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if closeSource != nil {
				closeSource()
			}
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file with MUELLER_* settings")
	flags.StringVar(&c.dataDir, "data", "", "data directory (overrides MUELLER_DATA_DIR)")
	flags.StringVar(&c.dataURL, "data-url", "", "base URL serving the data documents (overrides MUELLER_DATA_URL)")
	flags.StringSliceVar(&c.people, "people", nil, "person ids to load (overrides MUELLER_DATA_PEOPLE)")
	flags.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&c.strict, "strict", false, "fail on unresolved @shared/ addresses")

	root.AddCommand(newListCmd(c), newShowCmd(c), newExportCmd(c))
	return root
}

// setup loads configuration, applies flag overrides and builds the loader.
// Logs go to stderr so stdout stays usable for vCard output.
func (c *cli) setup(ctx context.Context) (func(), error) {
	overrides := map[string]string{}
	if c.dataDir != "" {
		overrides["MUELLER_DATA_DIR"] = c.dataDir
		overrides["MUELLER_DATA_URL"] = ""
		overrides["MUELLER_DATA_GCS_BUCKET"] = ""
	}
	if c.dataURL != "" {
		overrides["MUELLER_DATA_URL"] = c.dataURL
		overrides["MUELLER_DATA_GCS_BUCKET"] = ""
	}
	if len(c.people) > 0 {
		overrides["MUELLER_DATA_PEOPLE"] = strings.Join(c.people, ",")
	}
	if c.logLevel != "" {
		overrides["LOG_LEVEL"] = c.logLevel
	}

	cfg, err := config.Load(config.WithEnvFile(c.envFile), config.WithEnvMap(overrides))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	logger, err := observability.NewLogger(cfg.LogLevel, "stderr")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c.logger = logger

	src, closeSource, err := c.newSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.loader = directory.NewLoader(src,
		directory.WithLogger(logger),
		directory.WithManifest(cfg.Data.People),
		directory.WithStrictReferences(cfg.Data.StrictRefs || c.strict),
	)
	return closeSource, nil
}

// openSource picks the same backend as the web server. The Redis cache is
// skipped, a one-shot export gains nothing from it.
func openSource(ctx context.Context, cfg config.Config) (directory.Source, func(), error) {
	switch cfg.Data.SourceKind() {
	case "gcs":
		gcs, err := directory.NewGCSSource(ctx, cfg.Data.GCSBucket, cfg.Data.GCSPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs source: %w", err)
		}
		return gcs, func() { _ = gcs.Close() }, nil
	case "http":
		return directory.NewHTTPSource(cfg.Data.BaseURL, nil), func() {}, nil
	default:
		return directory.NewDirSource(cfg.Data.Dir), func() {}, nil
	}
}

// selectPeople loads the given ids, or everyone in the manifest when none are given.
func (c *cli) selectPeople(ctx context.Context, ids []string) ([]*directory.Person, error) {
	if len(ids) == 0 {
		people, err := c.loader.LoadAllPeople(ctx)
		if err != nil {
			return nil, err
		}
		if len(people) == 0 {
			return nil, fmt.Errorf("no people could be loaded from %s", c.sourceName())
		}
		return people, nil
	}
	people := make([]*directory.Person, 0, len(ids))
	for _, id := range ids {
		p, err := c.loader.LoadPerson(ctx, id)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, nil
}

func (c *cli) sourceName() string {
	switch c.cfg.Data.SourceKind() {
	case "gcs":
		return "gs://" + c.cfg.Data.GCSBucket + "/" + c.cfg.Data.GCSPrefix
	case "http":
		return c.cfg.Data.BaseURL
	default:
		return c.cfg.Data.Dir
	}
}
