// Package mcp provides an MCP (Model Context Protocol) server that lets
// clients run simulations and browse the run catalog.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fraziphy/balanced-spiking-network/internal/config"
	"github.com/fraziphy/balanced-spiking-network/internal/logging"
	"github.com/fraziphy/balanced-spiking-network/internal/ratelimit"
	"github.com/fraziphy/balanced-spiking-network/internal/results"
)

// Server wraps the MCP SDK server with the bsn tools.
type Server struct {
	server       *sdk.Server
	base         *config.Config
	catalog      *results.Catalog // nil when no catalog directory is configured
	catalogDir   string
	logger       *slog.Logger
	events       *logging.EventLogger
	toolLimiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "bsn")
	Version string // Server version

	// Base supplies the parameters a tool call does not override.
	// Nil uses config.Default().
	Base *config.Config

	// CatalogDir is the run catalog directory. Empty disables saving and bsn_runs.
	CatalogDir string

	Logger *slog.Logger
	Events *logging.EventLogger
}

// NewServer creates a new MCP server with the bsn tools registered.
func NewServer(cfg *Config) (*Server, error) {
	base := cfg.Base
	if base == nil {
		base = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	var catalog *results.Catalog
	if cfg.CatalogDir != "" {
		c, err := results.OpenCatalog(cfg.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open run catalog: %w", err)
		}
		catalog = c
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		base:         base,
		catalog:      catalog,
		catalogDir:   cfg.CatalogDir,
		logger:       logger,
		events:       cfg.Events,
		toolLimiters: ratelimit.NewToolLimiters(),
	}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the run catalog.
func (s *Server) Close() error {
	if s.catalog == nil {
		return nil
	}
	err := s.catalog.Close()
	s.catalog = nil
	return err
}
