package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/agentic-research/astro-html-helper/internal/linter"
	"github.com/agentic-research/astro-html-helper/internal/pipeline"
)

type validateFlags struct {
	file     string
	dir      string
	document bool
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report problems in Astro files that would break the rewrites",
		Long: `Checks markup and frontmatter syntax, duplicate frontmatter bindings and
components used without an import. With --document, files must also be
complete HTML pages (doctype, html, head and body).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Astro file to validate")
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Directory to validate recursively")
	cmd.Flags().BoolVar(&f.document, "document", false, "Require complete HTML pages")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globalFlags, f *validateFlags) error {
	if f.file == "" && f.dir == "" {
		return errors.New("specify a file with -f/--file or a directory with -d/--dir")
	}
	target, err := absPath(f.file + f.dir)
	if err != nil {
		return err
	}

	fs := osfs.New("/")
	files := []string{target}
	if f.dir != "" {
		opts, err := g.loadOptions(fs, target)
		if err != nil {
			return err
		}
		runner := &pipeline.Runner{FS: fs, Options: opts, Logger: g.logger(cmd)}
		if files, err = runner.Files(target); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	problems := 0
	for _, path := range files {
		content, err := util.ReadFile(fs, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		diags, err := linter.Lint(content, path, linter.Options{Document: f.document})
		if err != nil {
			return fmt.Errorf("lint %s: %w", path, err)
		}
		name := f.file
		if f.dir != "" {
			name = relTo(target, path)
		}
		for _, d := range diags {
			fmt.Fprintf(out, "%s:%s\n", name, d)
		}
		problems += len(diags)
	}

	if problems > 0 {
		return fmt.Errorf("%d problems found in %d files", problems, len(files))
	}
	fmt.Fprintf(out, "No problems found in %d files\n", len(files))
	return nil
}

// relTo shortens path relative to the walked directory.
func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
