// Package mcpserver exposes the rewrite pipeline and the linter as Model
// Context Protocol tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/astro-html-helper/api"
	"github.com/agentic-research/astro-html-helper/internal/assets"
	"github.com/agentic-research/astro-html-helper/internal/linter"
	"github.com/agentic-research/astro-html-helper/internal/pipeline"
)

// Server holds what the tools share: the filesystem, the base options
// that tool arguments override, and the downloader.
type Server struct {
	FS billy.Filesystem
	// Root resolves relative paths given by the client.
	Root       string
	Options    api.Options
	Downloader assets.Downloader
	Logger     *slog.Logger
}

// MCP builds the protocol server with both tools registered.
func (s *Server) MCP(version string) *server.MCPServer {
	srv := server.NewMCPServer("astro-html-helper", version,
		server.WithToolCapabilities(false),
	)

	srv.AddTool(mcp.NewTool("format_file",
		mcp.WithDescription("Rewrite an .astro file: Netlify forms, astro:assets Picture/Image components, src extraction and inline svg extraction."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the .astro file")),
		mcp.WithBoolean("netlify_form", mcp.Description("Mark forms for Netlify and add recaptcha placeholders")),
		mcp.WithBoolean("pictures", mcp.Description("Convert <picture>/<img> to Picture/Image")),
		mcp.WithBoolean("picture_src_string", mcp.Description("Lift literal src values into frontmatter bindings")),
		mcp.WithBoolean("svg", mcp.Description("Extract inline <svg> into .svg files")),
		mcp.WithString("image_dir", mcp.Description("Download remote images into this directory")),
		mcp.WithBoolean("dry_run", mcp.Description("Return the rewritten text without writing")),
	), s.Format)

	srv.AddTool(mcp.NewTool("validate_file",
		mcp.WithDescription("Report problems in an .astro file that would break or defeat the rewrites."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the .astro file")),
		mcp.WithBoolean("document", mcp.Description("Also require a complete HTML page")),
	), s.Validate)

	return srv
}

// ServeStdio runs the server until stdin closes.
func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.MCP(version))
}

func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) || s.Root == "" {
		return path
	}
	return filepath.Join(s.Root, path)
}

// Format handles the format_file tool.
func (s *Server) Format(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.Options
	opts.NetlifyForm = req.GetBool("netlify_form", opts.NetlifyForm)
	opts.Pictures = req.GetBool("pictures", opts.Pictures)
	opts.PictureSrcString = req.GetBool("picture_src_string", opts.PictureSrcString)
	opts.SVG = req.GetBool("svg", opts.SVG)
	opts.DryRun = req.GetBool("dry_run", opts.DryRun)
	if dir := req.GetString("image_dir", ""); dir != "" {
		opts.ImageDir = s.resolve(dir)
	}

	r := &pipeline.Runner{FS: s.FS, Options: opts, Downloader: s.Downloader, Logger: s.Logger}
	res, err := r.File(ctx, s.resolve(path))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("format %s: %v", path, err)), nil
	}

	switch {
	case opts.DryRun:
		return mcp.NewToolResultText(res.Text), nil
	case res.Written:
		return mcp.NewToolResultText(fmt.Sprintf("%s rewritten (%s)", path, strings.Join(res.Changed, ", "))), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("%s unchanged", path)), nil
	}
}

// Validate handles the validate_file tool.
func (s *Server) Validate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := util.ReadFile(s.FS, s.resolve(path))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}

	diags, err := linter.Lint(content, path, linter.Options{Document: req.GetBool("document", false)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lint %s: %v", path, err)), nil
	}
	if len(diags) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s: no problems found", path)), nil
	}

	var b strings.Builder
	for _, d := range diags {
		fmt.Fprintf(&b, "%s:%s\n", path, d)
	}
	return mcp.NewToolResultText(b.String()), nil
}
