/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package mcp

const (
	// ProtocolVersion is the MCP protocol revision implemented by this server
	ProtocolVersion = "2024-11-05"

	// ServerName identifies this server in initialize responses
	ServerName = "memory-bank-mcp"

	// ServerVersion is the reported server version
	ServerVersion = "1.0.0"

	// ScannerInitialBufferSize is the initial stdio line buffer size (64 KB)
	ScannerInitialBufferSize = 64 * 1024

	// ScannerMaxBufferSize bounds a single JSON-RPC line (16 MB); tool calls
	// can carry whole documents for ingestion
	ScannerMaxBufferSize = 16 * 1024 * 1024
)
