package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// splitSentencesTool returns the tool definition for split_sentences
func splitSentencesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "split_sentences",
		Description: "Split text into sentences using the configured boundary rules",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to split",
				},
			},
			Required: []string{"text"},
		},
	}
}

// chunkTextTool returns the tool definition for chunk_text
func chunkTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_text",
		Description: "Segment, phonemize and cut text into chunks that fit the phoneme limit",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to chunk",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Free-form label stored with the run in the journal",
					"default":     "mcp",
				},
				"include_phonemes": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include the phoneme string of every chunk",
					"default":     true,
				},
			},
			Required: []string{"text"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report chunker limits and run journal statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
