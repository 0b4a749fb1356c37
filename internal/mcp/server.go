// Package mcp exposes a headless viewer session to AI agents over the
// Model Context Protocol.
package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/metrics"
	"github.com/gnemet/lookin/internal/navigation"
	"github.com/gnemet/lookin/internal/panel"
	"github.com/gnemet/lookin/internal/render"
	"github.com/gnemet/lookin/internal/resource"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Deps are the collaborators of a Server.
type Deps struct {
	Doc        *layers.Document
	Fetcher    resource.Fetcher
	Dispatcher *render.Dispatcher
	Markdown   bool
	Lang       string
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// Server wraps an MCP server driving a single navigation session.
type Server struct {
	doc     *layers.Document
	fetcher resource.Fetcher
	engine  *navigation.Engine
	log     zerolog.Logger
	mcp     *server.MCPServer

	mu   sync.Mutex
	urls []string
}

// NewServer creates a session over d.Doc and registers the tools. Start
// must be called before the session is navigated.
func NewServer(d Deps) *Server {
	s := &Server{
		doc:     d.Doc,
		fetcher: d.Fetcher,
		log:     d.Logger,
	}
	pc := panel.NewController(d.Fetcher, panel.Options{Markdown: d.Markdown, Logger: d.Logger, Metrics: d.Metrics})
	s.engine = navigation.New(d.Doc, d.Dispatcher, pc, s, navigation.Options{
		Logger:  d.Logger,
		Metrics: d.Metrics,
		Lang:    d.Lang,
	})

	s.mcp = server.NewMCPServer(
		"lookin",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listLayersTool, s.handleListLayers)
	s.mcp.AddTool(viewStateTool, s.handleViewState)
	s.mcp.AddTool(navigateTool, s.handleNavigate)
	s.mcp.AddTool(goBackTool, s.handleGoBack)
	s.mcp.AddTool(jumpToTool, s.handleJumpTo)
	s.mcp.AddTool(homeTool, s.handleHome)
	s.mcp.AddTool(clickNodeTool, s.handleClickNode)
	s.mcp.AddTool(clickRegionTool, s.handleClickRegion)
	s.mcp.AddTool(getCatalogTool, s.handleGetCatalog)
	s.mcp.AddTool(getDocTool, s.handleGetDoc)
}

// Start opens the root layer.
func (s *Server) Start(ctx context.Context) error {
	return s.engine.Start(ctx)
}

// Close ends the session.
func (s *Server) Close() {
	s.engine.Close()
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

// ViewChanged implements navigation.Observer. Tools read the view on
// demand, so updates are only logged.
func (s *Server) ViewChanged(v navigation.View) {
	s.log.Debug().Uint64("seq", v.Seq).Str("layer", v.LayerID).Msg("view changed")
}

// OpenURL implements navigation.Observer by remembering the URL for the
// next tool result.
func (s *Server) OpenURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
}

// takeURLs returns and clears the URLs opened since the last call.
func (s *Server) takeURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := s.urls
	s.urls = nil
	return urls
}
