package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/astro-html-helper/api"
	"github.com/agentic-research/astro-html-helper/internal/assets"
	"github.com/agentic-research/astro-html-helper/internal/transform"
)

// Step is a named rewrite.
type Step struct {
	Name string
	Fn   transform.Func
}

// Steps returns the rewrites enabled by opts, in the order they run.
func Steps(opts api.Options) []Step {
	var steps []Step
	if opts.NetlifyForm {
		steps = append(steps, Step{"netlify-form", transform.NetlifyForms})
	}
	if opts.Pictures {
		steps = append(steps, Step{"pictures", transform.Pictures})
	}
	if opts.PictureSrcString {
		steps = append(steps, Step{"picture-src-string", transform.ExtractSources})
	}
	if opts.SVG {
		steps = append(steps, Step{"svg", transform.ExtractSVGs})
	}
	return steps
}

// Result describes what happened to one file.
type Result struct {
	Path    string
	Changed []string
	Written bool
	// Text is the rewritten source. Only set in dry-run mode.
	Text string
}

// Summary counts the outcome of a directory run.
type Summary struct {
	Files   int
	Changed int
	Failed  int
}

// Runner applies the enabled steps to files on FS.
type Runner struct {
	FS         billy.Filesystem
	Options    api.Options
	Downloader assets.Downloader
	Logger     *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (r *Runner) env() transform.Env {
	env := transform.Env{
		ImageDir:   r.Options.ImageDir,
		Downloader: r.Downloader,
		Logger:     r.logger(),
	}
	if r.Options.DryRun {
		// Generated files go nowhere and downloads resolve to the path they
		// would have been written to.
		env.FS = memfs.New()
		env.Downloader = assets.DownloaderFunc(func(_ context.Context, url, dir string) (string, error) {
			return filepath.Join(dir, assets.LocalFilename(url)), nil
		})
	}
	return env
}

// File runs the pipeline over one file. The file is left untouched when any
// step fails.
func (r *Runner) File(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}
	chain, err := Load(r.FS, path, r.env())
	if err != nil {
		return res, err
	}
	for _, s := range Steps(r.Options) {
		chain.Then(ctx, s.Name, s.Fn)
	}
	res.Changed = chain.Changed()

	if r.Options.DryRun {
		if err := chain.Check(); err != nil {
			return res, err
		}
		res.Text, _ = chain.Text()
		return res, nil
	}

	res.Written, err = chain.Write()
	if err != nil {
		return res, err
	}
	if res.Written {
		r.logger().Info("rewrote file", "path", path, "steps", strings.Join(res.Changed, ","))
	} else {
		r.logger().Debug("file unchanged", "path", path)
	}
	return res, nil
}

// Files lists the files under dir carrying the configured extension.
// Unreadable subdirectories are logged and skipped.
func (r *Runner) Files(dir string) ([]string, error) {
	ext := r.Options.Ext
	if ext == "" {
		ext = ".astro"
	}
	var files []string
	err := util.Walk(r.FS, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			r.logger().Error("cannot read directory", "path", path, "error", err)
			return filepath.SkipDir
		}
		if info.IsDir() {
			if path != dir && skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ext {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

// Dir runs the pipeline over every matching file under dir. A failing file
// is logged and counted; it never stops its siblings. onResult, if set, is
// called for every file that completed.
func (r *Runner) Dir(ctx context.Context, dir string, onResult func(Result)) (Summary, error) {
	files, err := r.Files(dir)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu  sync.Mutex
		sum = Summary{Files: len(files)}
	)
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Options.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.File(gctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				r.logger().Error("file failed", "path", path, "error", err)
				return nil
			}
			if res.Written || (r.Options.DryRun && len(res.Changed) > 0) {
				sum.Changed++
			}
			if onResult != nil {
				onResult(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	return sum, nil
}
