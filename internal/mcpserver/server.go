// Package mcpserver exposes the card pipeline as MCP tools.
package mcpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/pipeline"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/types"
)

// Processor runs one URL through the pipeline.
type Processor interface {
	ProcessURL(ctx context.Context, url string, opts pipeline.Options) types.ProcessingResult
}

// Server wraps an MCP server with the dealcard tools registered.
type Server struct {
	mcp       *server.MCPServer
	processor Processor
	registry  *platform.Registry
	resolver  pipeline.Resolver
	logger    *slog.Logger
}

// New creates the MCP server and registers its tools.
func New(processor Processor, registry *platform.Registry, resolver pipeline.Resolver, logger *slog.Logger) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			"dealcard",
			config.Version,
			server.WithToolCapabilities(true),
		),
		processor: processor,
		registry:  registry,
		resolver:  resolver,
		logger:    logger.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("MCP stdio server starting")
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns a stateless streamable HTTP handler. A non-empty
// apiKey requires a matching bearer token.
func (s *Server) HTTPHandler(apiKey string) http.Handler {
	var h http.Handler = server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
	if apiKey != "" {
		h = bearerAuth(apiKey, h)
	}
	return h
}

func bearerAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, `{"error":"missing Authorization header"}`, http.StatusUnauthorized)
			return
		}
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp", error="invalid_token"`)
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("process_url",
		mcp.WithDescription("Turn a product URL (shortened or direct) into a product card with an affiliate link"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page URL or shortened link"),
		),
		mcp.WithString("target_page",
			mcp.Description("Display page for the card (default: prime-picks)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Write the card to the content store"),
		),
	), s.handleProcessURL)

	s.mcp.AddTool(mcp.NewTool("resolve_url",
		mcp.WithDescription("Follow a shortened link to its destination and report the redirect chain"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Link to resolve"),
		),
	), s.handleResolveURL)

	s.mcp.AddTool(mcp.NewTool("detect_platform",
		mcp.WithDescription("Identify the e-commerce platform a URL belongs to"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page URL"),
		),
	), s.handleDetectPlatform)

	s.mcp.AddTool(mcp.NewTool("list_platforms",
		mcp.WithDescription("List supported platforms and their scraping strategies"),
	), s.handleListPlatforms)
}

func (s *Server) handleProcessURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := strings.TrimSpace(request.GetString("url", ""))
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	result := s.processor.ProcessURL(ctx, url, pipeline.Options{
		TargetPage: request.GetString("target_page", ""),
		Save:       request.GetBool("save", false),
	})
	if !result.Success {
		return mcp.NewToolResultError(result.Error), nil
	}
	return jsonResult(result)
}

func (s *Server) handleResolveURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := strings.TrimSpace(request.GetString("url", ""))
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	return jsonResult(s.resolver.Resolve(ctx, url))
}

func (s *Server) handleDetectPlatform(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := strings.TrimSpace(request.GetString("url", ""))
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	return jsonResult(s.registry.Detect(types.ResolvedURL{OriginalURL: url, FinalURL: url}))
}

func (s *Server) handleListPlatforms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.List())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
