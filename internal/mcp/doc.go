// Package mcp implements the Model Context Protocol (MCP) server for speechsplit.
//
// The MCP server exposes three tools:
//   - split_sentences: Split text into sentences
//   - chunk_text: Segment, phonemize and cut text into bounded chunks
//   - get_status: Report chunker limits and journal statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr. Stdout carries protocol messages only.
//
// # Tool: split_sentences
//
//	Request:
//	{
//	  "name": "split_sentences",
//	  "arguments": {"text": "Hello world. Dr. Smith left!"}
//	}
//
//	Response:
//	{
//	  "count": 2,
//	  "sentences": ["Hello world.", "Dr. Smith left!"]
//	}
//
// # Tool: chunk_text
//
//	Request:
//	{
//	  "name": "chunk_text",
//	  "arguments": {
//	    "text": "Hello world.",
//	    "source": "chapter-1",
//	    "include_phonemes": true
//	  }
//	}
//
//	Response:
//	{
//	  "sentences": [
//	    {
//	      "index": 0,
//	      "text": "Hello world.",
//	      "chunks": [
//	        {"index": 0, "text": "Hello world.", "phonemes": "həlˈO wˈɜɹld.", "phoneme_len": 13, "truncated": false}
//	      ]
//	    }
//	  ],
//	  "statistics": {
//	    "run_id": "5d0c...",
//	    "document_id": 1,
//	    "sentences": 1,
//	    "sentences_skipped": 0,
//	    "chunks": 1,
//	    "chunks_truncated": 0,
//	    "reused": false,
//	    "duration_ms": 2
//	  }
//	}
//
// When the journal is enabled, repeated text is answered from storage and
// "reused" is true.
//
// # Tool: get_status
//
// Takes no arguments. Reports the chunker limits, whether a run is active and,
// if the journal is enabled, its document, sentence and chunk counts.
//
// # Error Codes
//
//	-32602  Invalid params (missing or malformed arguments)
//	-32603  Internal error
//	-32001  Empty text
//	-32002  Run in progress
//	-32003  Text too long
package mcp
