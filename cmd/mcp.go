package cmd

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/astro-html-helper/internal/logging"
	"github.com/agentic-research/astro-html-helper/internal/mcpserver"
)

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve format_file and validate_file as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working dir: %w", err)
			}
			fs := osfs.New("/")
			opts, err := g.loadOptions(fs, wd)
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			logger := logging.BuildLogger(g.logLevel, g.logFormat)
			dl, closeLedger, err := newDownloader(fs, opts, logger)
			if err != nil {
				return err
			}
			defer closeLedger()

			srv := &mcpserver.Server{
				FS:         fs,
				Root:       wd,
				Options:    opts,
				Downloader: dl,
				Logger:     logger,
			}
			logger.Info("serving MCP on stdio", "root", wd)
			return srv.ServeStdio(version)
		},
	}
}
