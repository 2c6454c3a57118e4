// Package mcpserver exposes vault analysis tools over MCP (Model Context
// Protocol) on stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/links"
	"github.com/starford/vaultkit/internal/noteservice"
)

const defaultSuggestLimit = 20

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp        *server.MCPServer
	svc        *noteservice.Service
	categories []string
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, categories []string, version string) *Server {
	s := &Server{svc: svc, categories: categories}

	s.mcp = server.NewMCPServer(
		"vaultkit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("normalize_tag",
		mcp.WithDescription("Return the canonical form of a tag, as the tag standardizer would write it."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Raw tag, with or without a leading #")),
	), s.normalizeTag)

	s.mcp.AddTool(mcp.NewTool("suggest_links",
		mcp.WithDescription("Analyze the vault and suggest links between notes that share entities or title keywords."),
		mcp.WithString("reason", mcp.Description("Optional filter: entity_mention or keyword_overlap")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of suggestions (default 20)")),
	), s.suggestLinks)

	s.mcp.AddTool(mcp.NewTool("find_orphans",
		mcp.WithDescription("List notes that link nowhere and that no other note links to."),
	), s.findOrphans)

	s.mcp.AddTool(mcp.NewTool("tag_stats",
		mcp.WithDescription("Tag usage counts from the ledger, most used first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tags (default all)")),
	), s.tagStats)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its metadata, references and backlinks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddResource(
		mcp.NewResource(conventionsURI, "Vault Metadata Conventions",
			mcp.WithResourceDescription("Frontmatter keys, tag hierarchy and linking rules the vault follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventions,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) normalizeTag(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag := s.svc.NormalizeTag(raw)
	if tag == "" {
		return mcp.NewToolResultError(fmt.Sprintf("tag %q is empty after normalization", raw)), nil
	}
	return mcp.NewToolResultText(tag), nil
}

func (s *Server) suggestLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reason := ""
	if r, err := req.RequireString("reason"); err == nil {
		reason = r
	}
	if reason != "" && reason != links.ReasonEntity && reason != links.ReasonKeyword {
		return mcp.NewToolResultError("reason must be " + links.ReasonEntity + " or " + links.ReasonKeyword), nil
	}
	limit := req.GetInt("limit", defaultSuggestLimit)

	a, err := s.svc.Analyze(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var list []links.Suggestion
	switch reason {
	case links.ReasonEntity:
		list = a.Entity
	case links.ReasonKeyword:
		list = a.Keyword
	default:
		list = a.All()
	}
	list = links.ByConfidence(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("no suggestions"), nil
	}
	return jsonResult(list)
}

func (s *Server) findOrphans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orphans, err := s.svc.Orphans(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(orphans) == 0 {
		return mcp.NewToolResultText("no orphaned notes"), nil
	}
	paths := make([]string, len(orphans))
	for i, o := range orphans {
		paths[i] = o.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) tagStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.svc.TagStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return jsonResult(counts)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) readConventions(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      conventionsURI,
			MIMEType: "text/markdown",
			Text:     Conventions(s.categories),
		},
	}, nil
}
