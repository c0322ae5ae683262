// Package config loads api.Options from astro-html-helper.json or from the
// "astroHtmlHelper" key of a project's package.json.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/astro-html-helper/api"
)

const (
	FileName   = "astro-html-helper.json"
	packageKey = "astroHtmlHelper"
)

var packageSection = jp.MustParseString("$." + packageKey)

// Discover looks for a config in dir and its parents. A package.json only
// counts when it carries the astroHtmlHelper key.
func Discover(fs billy.Filesystem, dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := fs.Stat(candidate); err == nil {
			return candidate, true
		}
		pkg := filepath.Join(dir, "package.json")
		if raw, err := util.ReadFile(fs, pkg); err == nil {
			if doc, err := oj.Parse(raw); err == nil && packageSection.First(doc) != nil {
				return pkg, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load reads the config at path and applies it over base. Keys that are
// absent keep the base value.
func Load(fs billy.Filesystem, path string, base api.Options) (api.Options, error) {
	raw, err := util.ReadFile(fs, path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}

	doc, err := oj.Parse(raw)
	if err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	if filepath.Base(path) == "package.json" {
		doc = packageSection.First(doc)
		if doc == nil {
			return base, nil
		}
	}
	section, ok := doc.(map[string]any)
	if !ok {
		return base, fmt.Errorf("config %s: expected an object", path)
	}

	opts := base
	if err := apply(section, &opts); err != nil {
		return base, fmt.Errorf("config %s: %w", path, err)
	}
	if err := Validate(opts); err != nil {
		return base, err
	}
	return opts, nil
}

func apply(section map[string]any, opts *api.Options) error {
	bools := []struct {
		key string
		dst *bool
	}{
		{"netlify_form", &opts.NetlifyForm},
		{"pictures", &opts.Pictures},
		{"picture_src_string", &opts.PictureSrcString},
		{"svg", &opts.SVG},
		{"dry_run", &opts.DryRun},
	}
	for _, f := range bools {
		v := jp.C(f.key).First(section)
		if v == nil {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%s: expected a boolean, got %T", f.key, v)
		}
		*f.dst = b
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"image_dir", &opts.ImageDir},
		{"manifest", &opts.Manifest},
		{"ext", &opts.Ext},
	}
	for _, f := range strs {
		v := jp.C(f.key).First(section)
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected a string, got %T", f.key, v)
		}
		*f.dst = s
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"concurrency", &opts.Concurrency},
		{"retries", &opts.Retries},
	}
	for _, f := range ints {
		v := jp.C(f.key).First(section)
		if v == nil {
			continue
		}
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("%s: expected an integer, got %T", f.key, v)
		}
		*f.dst = int(n)
	}

	if v := jp.C("timeout").First(section); v != nil {
		d, err := duration(v)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		opts.Timeout = d
	}
	return nil
}

// duration accepts a Go duration string ("30s") or a number of seconds.
func duration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case string:
		return time.ParseDuration(t)
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected a duration, got %T", v)
	}
}

// Validate checks options after config and flags are merged.
func Validate(opts api.Options) error {
	if opts.Concurrency < 1 {
		return errors.New("config concurrency must be at least 1")
	}
	if opts.Retries < 0 {
		return errors.New("config retries must not be negative")
	}
	if opts.Timeout <= 0 {
		return errors.New("config timeout must be positive")
	}
	if !strings.HasPrefix(opts.Ext, ".") {
		return fmt.Errorf("config ext %q must start with a dot", opts.Ext)
	}
	return nil
}

// DefaultPath returns the config path named by ASTRO_HTML_HELPER_CONFIG, if set.
func DefaultPath() string {
	return os.Getenv("ASTRO_HTML_HELPER_CONFIG")
}
