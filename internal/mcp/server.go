package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/speechsplit/internal/chunker"
	"github.com/dshills/speechsplit/internal/config"
	"github.com/dshills/speechsplit/internal/phonemizer"
	"github.com/dshills/speechsplit/internal/pipeline"
	"github.com/dshills/speechsplit/internal/segmenter"
	"github.com/dshills/speechsplit/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "speechsplit"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp        *server.MCPServer
	cfg        *config.Config
	rules      *segmenter.Rules
	phonemizer phonemizer.Phonemizer
	storage    storage.Storage // nil when the journal is disabled
	pipeline   *pipeline.Pipeline
	logger     *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rules, err := cfg.Segmenter.Rules()
	if err != nil {
		return nil, fmt.Errorf("failed to build segmenter rules: %w", err)
	}

	phonCfg := cfg.Phonemizer.Config()
	phon, err := phonemizer.New(phonCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize phonemizer: %w", err)
	}

	var store storage.Storage
	if cfg.Storage.DBPath != "" {
		store, err = openJournal(cfg.Storage.DBPath)
		if err != nil {
			_ = phon.Close()
			return nil, err
		}
	}

	pipe := pipeline.New(phon, pipeline.Options{
		Rules:        rules,
		Chunker:      chunker.NewWithOptions(cfg.Chunker.Options(logger)),
		Storage:      store,
		Logger:       logger,
		ReuseJournal: store != nil,
		Fingerprint:  phonCfg.Fingerprint(),
	})

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:        mcpServer,
		cfg:        cfg,
		rules:      rules,
		phonemizer: phon,
		storage:    store,
		pipeline:   pipe,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// openJournal creates the journal directory if needed and opens the database
func openJournal(dbPath string) (storage.Storage, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()

	s.logger.Info("serving MCP on stdio",
		zap.String("name", ServerName),
		zap.String("version", ServerVersion),
		zap.Bool("journal", s.storage != nil))

	errCh := make(chan error, 1)
	go func() { errCh <- server.ServeStdio(s.mcp) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the phonemizer and the journal
func (s *Server) Close() error {
	var errs []error
	if err := s.phonemizer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close phonemizer: %w", err))
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(splitSentencesTool(), s.handleSplitSentences)
	s.mcp.AddTool(chunkTextTool(), s.handleChunkText)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
