// Package mcp provides an MCP (Model Context Protocol) server for moideas.
package mcp

import (
	"context"
	"fmt"
	"os"
	"runtime"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/nvandessel/moideas/internal/constants"
	"github.com/nvandessel/moideas/internal/ratelimit"
	"github.com/nvandessel/moideas/internal/store"
)

// Server wraps the MCP SDK server and exposes the simulator as tools.
type Server struct {
	server       *sdk.Server
	store        store.ResultStore
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *zap.Logger

	runs    int
	seed    int64
	workers int
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "moideas")
	Version string // Server version

	// Store receives batches run through moideas_simulate. Required.
	Store store.ResultStore

	// AuditDir is where audit.jsonl is written. Empty disables auditing.
	AuditDir string

	Logger *zap.Logger

	// Defaults for moideas_simulate when the caller leaves them unset.
	Runs    int
	Seed    int64
	Workers int
}

// NewServer creates a new MCP server with moideas tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("result store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
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
		store:        cfg.Store,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
		runs:         cfg.Runs,
		seed:         cfg.Seed,
		workers:      cfg.Workers,
	}
	if s.runs <= 0 {
		s.runs = constants.DefaultSimCount
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			s.logger.Info("shutting down mcp server")
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the audit log. The store belongs to the caller.
func (s *Server) Close() error {
	err := s.auditLogger.Close()
	s.auditLogger = nil
	return err
}
