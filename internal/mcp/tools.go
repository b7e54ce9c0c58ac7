package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/speechsplit/internal/pipeline"
	"github.com/dshills/speechsplit/internal/segmenter"
	"github.com/dshills/speechsplit/internal/storage"
	"github.com/dshills/speechsplit/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyText     = -32001 // Text parameter is empty
	ErrorCodeRunInProgress = -32002 // Another chunking run is already active
	ErrorCodeTextTooLong   = -32003 // Text exceeds MaxTextLength
)

// MaxTextLength bounds the text accepted by a single tool call, in code points
const MaxTextLength = 1 << 20

// maxReportedErrors caps the error messages echoed back to the client
const maxReportedErrors = 5

// handleSplitSentences handles the split_sentences tool invocation
func (s *Server) handleSplitSentences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, err := textArgument(args)
	if err != nil {
		return nil, err
	}

	sentences := segmenter.SplitWithRules(text, s.rules)
	if sentences == nil {
		sentences = []string{}
	}

	response := map[string]interface{}{
		"sentences": sentences,
		"count":     len(sentences),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleChunkText handles the chunk_text tool invocation
func (s *Server) handleChunkText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, err := textArgument(args)
	if err != nil {
		return nil, err
	}

	source := getStringDefault(args, "source", "mcp")
	includePhonemes := getBoolDefault(args, "include_phonemes", true)

	sentences := make([]map[string]interface{}, 0)
	stats, err := s.pipeline.Process(ctx, text, source, func(r pipeline.Result) error {
		sentences = append(sentences, map[string]interface{}{
			"index":  r.Sentence.Index,
			"text":   r.Sentence.Text,
			"chunks": formatChunks(r.Chunks, includePhonemes),
		})
		return nil
	})
	if errors.Is(err, pipeline.ErrRunInProgress) {
		return nil, newMCPError(ErrorCodeRunInProgress, "another chunking run is in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"sentences": sentences,
		"statistics": map[string]interface{}{
			"run_id":            stats.RunID,
			"document_id":       stats.DocumentID,
			"sentences":         stats.Sentences,
			"sentences_skipped": stats.SentencesSkipped,
			"chunks":            stats.Chunks,
			"chunks_truncated":  stats.ChunksTruncated,
			"reused":            stats.Reused,
			"duration_ms":       stats.Duration.Milliseconds(),
		},
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"server_version": ServerVersion,
		"build_mode":     storage.BuildMode,
		"running":        s.pipeline.Running(),
		"chunker": map[string]interface{}{
			"max_phonemes": s.cfg.Chunker.MaxPhonemes,
			"waterfall":    s.cfg.Chunker.Waterfall,
			"bumps":        s.cfg.Chunker.Bumps,
		},
	}

	if s.storage == nil {
		response["journal"] = map[string]interface{}{
			"enabled": false,
			"message": "Journal disabled. Set storage.db_path to record runs.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	journal := map[string]interface{}{
		"enabled":         true,
		"documents_count": status.DocumentsCount,
		"sentences_count": status.SentencesCount,
		"chunks_count":    status.ChunksCount,
		"truncated_count": status.TruncatedCount,
		"schema_version":  status.SchemaVersion,
		"size_mb":         fmt.Sprintf("%.2f", status.DatabaseSizeMB),
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"schema_current":      status.Health.SchemaCurrent,
		},
	}
	if !status.LastCompletedAt.IsZero() {
		journal["last_completed_at"] = status.LastCompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	response["journal"] = journal

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// textArgument extracts and validates the required text parameter
func textArgument(args map[string]interface{}) (string, error) {
	raw, present := args["text"]
	text, ok := raw.(string)
	if !present || !ok {
		return "", newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or not a string",
		})
	}
	if text == "" {
		return "", newMCPError(ErrorCodeEmptyText, "text parameter cannot be empty", map[string]interface{}{
			"param":  "text",
			"reason": "empty",
		})
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return "", newMCPError(ErrorCodeTextTooLong, "text parameter is too long", map[string]interface{}{
			"param": "text",
			"value": n,
			"max":   MaxTextLength,
		})
	}
	return text, nil
}

// formatChunks converts chunks to their JSON representation
func formatChunks(chunks []types.Chunk, includePhonemes bool) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(chunks))
	for _, c := range chunks {
		entry := map[string]interface{}{
			"index":       c.Index,
			"text":        c.Text,
			"phoneme_len": c.PhonemeLen,
			"truncated":   c.Truncated,
		}
		if includePhonemes {
			entry["phonemes"] = c.Phonemes
		}
		out = append(out, entry)
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}
