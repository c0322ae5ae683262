package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"

	"github.com/agentic-research/astro-html-helper/api"
	"github.com/agentic-research/astro-html-helper/internal/assets"
	"github.com/agentic-research/astro-html-helper/internal/config"
	"github.com/agentic-research/astro-html-helper/internal/logging"
	"github.com/agentic-research/astro-html-helper/internal/manifest"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "astro-html-helper",
		Short:         "Rewrite Astro components: Netlify forms, astro:assets images, src and svg extraction",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.config, "config", "", "Path to astro-html-helper.json or a package.json with an astroHtmlHelper key")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newFormatCmd(g), newValidateCmd(g), newMCPCmd(g))
	return root
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (g *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), g.logLevel, g.logFormat)
}

// loadOptions merges defaults with the config file. An explicit --config
// (or ASTRO_HTML_HELPER_CONFIG) wins; otherwise the config is discovered
// from start upwards. Relative paths in the config resolve against its
// directory.
func (g *globalFlags) loadOptions(fs billy.Filesystem, start string) (api.Options, error) {
	opts := api.DefaultOptions()

	path := g.config
	if path == "" {
		path = config.DefaultPath()
	}
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return opts, fmt.Errorf("resolve config path: %w", err)
		}
		path = abs
	} else if found, ok := config.Discover(fs, start); ok {
		path = found
	}
	if path == "" {
		return opts, nil
	}

	loaded, err := config.Load(fs, path, opts)
	if err != nil {
		return opts, err
	}
	base := filepath.Dir(path)
	if loaded.ImageDir != "" && !filepath.IsAbs(loaded.ImageDir) {
		loaded.ImageDir = filepath.Join(base, loaded.ImageDir)
	}
	if loaded.Manifest != "" && !filepath.IsAbs(loaded.Manifest) {
		loaded.Manifest = filepath.Join(base, loaded.Manifest)
	}
	return loaded, nil
}

// newDownloader builds the HTTP downloader for opts. The returned close
// function releases the ledger, if one was opened.
func newDownloader(fs billy.Filesystem, opts api.Options, logger *slog.Logger) (*assets.HTTPDownloader, func(), error) {
	dl := assets.NewHTTPDownloader(fs, opts.Timeout)
	dl.Retries = opts.Retries
	dl.Logger = logger
	if opts.Manifest == "" {
		return dl, func() {}, nil
	}

	ledger, err := manifest.Open(opts.Manifest)
	if err != nil {
		return nil, nil, err
	}
	dl.Ledger = ledger
	return dl, func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("close manifest", "path", opts.Manifest, "error", err)
		}
	}, nil
}

// absPath resolves a user supplied path against the working directory.
func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}
