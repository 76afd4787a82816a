package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"proforma-mcs/internal/config"
	"proforma-mcs/internal/forecast"
	"proforma-mcs/internal/simulation"
	"proforma-mcs/internal/store"
)

// ResultReader is the read side of the simulation result store.
type ResultReader interface {
	GetSimulationResult(ctx context.Context, simulationID string) (*simulation.SimulationResult, bool, error)
	ListSimulations(ctx context.Context, msaCode string, limit int) ([]store.SimulationRecord, error)
}

// Server exposes the simulation engine as MCP tools.
type Server struct {
	cfg     *config.AppConfig
	engine  *simulation.Engine
	loader  forecast.Loader
	results ResultReader
	version string
	log     zerolog.Logger
}

// NewServer creates a new MCP server. results may be nil when persistence is disabled.
func NewServer(cfg *config.AppConfig, engine *simulation.Engine, loader forecast.Loader, results ResultReader, version string) *Server {
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	return &Server{
		cfg:     cfg,
		engine:  engine,
		loader:  loader,
		results: results,
		version: version,
		log:     log.With().Str("component", "mcp").Logger(),
	}
}

// Build returns the SDK server with every tool registered.
func (s *Server) Build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "proforma-mcs", Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the stdio loop until the client disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info().Msg("MCP Server starting Stdio loop")
	return s.Build().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) formatResult(data any) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}

// textResult renders a handler outcome as a single JSON text block.
func (s *Server) textResult(tool string, data any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		s.log.Warn().Err(err).Str("tool", tool).Msg("Tool call failed")
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s failed: %v", tool, err)}},
		}, nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: s.formatResult(data)}},
	}, nil, nil
}
