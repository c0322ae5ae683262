package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/astro-html-helper/api"
	"github.com/agentic-research/astro-html-helper/internal/config"
	"github.com/agentic-research/astro-html-helper/internal/pipeline"
)

type formatFlags struct {
	file string
	dir  string

	netlifyForm  bool
	noPictures   bool
	noPictureSrc bool
	svg          bool
	imageDir     string

	concurrency int
	timeout     time.Duration
	retries     int
	manifest    string
	ext         string
	dryRun      bool
}

func newFormatCmd(g *globalFlags) *cobra.Command {
	f := &formatFlags{}
	defaults := api.DefaultOptions()

	cmd := &cobra.Command{
		Use:     "format",
		Aliases: []string{"transform"},
		Short:   "Rewrite a file or every .astro file under a directory",
		Example: `  astro-html-helper format -f src/pages/index.astro --netlify-form
  astro-html-helper format -d src --svg --image-dir src/images --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, g, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "Astro file to format")
	flags.StringVarP(&f.dir, "dir", "d", "", "Directory to format recursively")
	flags.BoolVar(&f.netlifyForm, "netlify-form", false, "Enable Netlify form transformation")
	flags.BoolVar(&f.noPictures, "no-pictures", false, "Disable picture component transformation")
	flags.BoolVar(&f.noPictureSrc, "no-picture-src-string", false, "Disable picture src string extraction")
	flags.BoolVar(&f.svg, "svg", false, "Extract inline <svg> markup into .svg files")
	flags.StringVar(&f.imageDir, "image-dir", "", "Download remote images into this directory")
	flags.IntVar(&f.concurrency, "concurrency", defaults.Concurrency, "Files processed at once")
	flags.DurationVar(&f.timeout, "timeout", defaults.Timeout, "Timeout for a single download request")
	flags.IntVar(&f.retries, "retries", defaults.Retries, "Extra attempts for a failed download")
	flags.StringVar(&f.manifest, "manifest", "", "SQLite file recording downloaded assets")
	flags.StringVar(&f.ext, "ext", defaults.Ext, "Extension of the files processed in a directory")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Print rewrites instead of writing them")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")
	return cmd
}

// apply overrides opts with every flag set on the command line.
func (f *formatFlags) apply(cmd *cobra.Command, opts *api.Options) error {
	changed := cmd.Flags().Changed
	if changed("netlify-form") {
		opts.NetlifyForm = f.netlifyForm
	}
	if changed("no-pictures") {
		opts.Pictures = !f.noPictures
	}
	if changed("no-picture-src-string") {
		opts.PictureSrcString = !f.noPictureSrc
	}
	if changed("svg") {
		opts.SVG = f.svg
	}
	if changed("image-dir") {
		dir, err := absPath(f.imageDir)
		if err != nil {
			return err
		}
		opts.ImageDir = dir
	}
	if changed("concurrency") {
		opts.Concurrency = f.concurrency
	}
	if changed("timeout") {
		opts.Timeout = f.timeout
	}
	if changed("retries") {
		opts.Retries = f.retries
	}
	if changed("manifest") {
		m, err := absPath(f.manifest)
		if err != nil {
			return err
		}
		opts.Manifest = m
	}
	if changed("ext") {
		opts.Ext = f.ext
	}
	if changed("dry-run") {
		opts.DryRun = f.dryRun
	}
	return nil
}

func runFormat(cmd *cobra.Command, g *globalFlags, f *formatFlags) error {
	if f.file == "" && f.dir == "" {
		return errors.New("specify a file with -f/--file or a directory with -d/--dir")
	}
	target, err := absPath(f.file + f.dir)
	if err != nil {
		return err
	}
	start := target
	if f.file != "" {
		start = filepath.Dir(target)
	}

	fs := osfs.New("/")
	opts, err := g.loadOptions(fs, start)
	if err != nil {
		return err
	}
	if err := f.apply(cmd, &opts); err != nil {
		return err
	}
	if err := config.Validate(opts); err != nil {
		return err
	}

	logger := g.logger(cmd)
	dl, closeLedger, err := newDownloader(fs, opts, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	runner := &pipeline.Runner{FS: fs, Options: opts, Downloader: dl, Logger: logger}
	out := cmd.OutOrStdout()

	if f.file != "" {
		res, err := runner.File(cmd.Context(), target)
		if err != nil {
			return fmt.Errorf("format %s: %w", f.file, err)
		}
		switch {
		case opts.DryRun:
			fmt.Fprint(out, res.Text)
		case res.Written:
			fmt.Fprintf(out, "Formatted %s (%s)\n", f.file, strings.Join(res.Changed, ", "))
		default:
			fmt.Fprintf(out, "%s already formatted\n", f.file)
		}
		return nil
	}

	sum, err := runner.Dir(cmd.Context(), target, func(res pipeline.Result) {
		if opts.DryRun && len(res.Changed) > 0 {
			fmt.Fprintf(out, "==> %s\n%s\n", res.Path, res.Text)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Formatted %d of %d files in %s\n", sum.Changed, sum.Files, f.dir)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", sum.Failed, sum.Files)
	}
	return nil
}
