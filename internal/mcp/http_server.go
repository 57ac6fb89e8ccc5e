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

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/auth"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
)

// HTTPConfig holds configuration for HTTP/HTTPS server mode
type HTTPConfig struct {
	Addr        string           // Server address (e.g., ":8080")
	TLSEnable   bool             // Enable HTTPS
	CertFile    string           // Path to TLS certificate file
	KeyFile     string           // Path to TLS key file
	AuthEnabled bool             // Enable API token authentication
	TokenStore  *auth.TokenStore // Token store for authentication
	Debug       bool             // Enable request/response debug logging
}

// RunHTTP starts the MCP server in HTTP/HTTPS mode
func (s *Server) RunHTTP(config *HTTPConfig) error {
	if config == nil {
		return fmt.Errorf("HTTP config is required")
	}

	s.debug = config.Debug

	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/v1", s.handleHTTPRequest)
	mux.HandleFunc("/health", s.handleHealthCheck)

	var handler http.Handler = mux
	if config.AuthEnabled {
		handler = auth.Middleware(config.TokenStore)(handler)
	}

	httpServer := &http.Server{
		Addr:    config.Addr,
		Handler: handler,
	}

	if config.TLSEnable {
		httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		return httpServer.ListenAndServeTLS(config.CertFile, config.KeyFile)
	}

	return httpServer.ListenAndServe()
}

// handleHTTPRequest handles HTTP requests and translates them to JSON-RPC
func (s *Server) handleHTTPRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logging.Warn("failed to close request body", "error", err.Error())
		}
	}()

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeHTTPResponse(w, errorResponse(nil, -32700, "Parse error", err.Error()))
		return
	}

	if s.debug {
		logging.Debug("incoming request", "method", req.Method, "id", req.ID)
	}

	response := s.handleRequestHTTP(r.Context(), req)

	if s.debug {
		logging.Debug("outgoing response", "id", response.ID, "is_error", response.Error != nil)
	}

	writeHTTPResponse(w, response)
}

// handleRequestHTTP handles a JSON-RPC request and returns the response
// instead of writing it to stdout
func (s *Server) handleRequestHTTP(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return s.initializeResponse(req)
	case "notifications/initialized":
		// Client notification - empty success
		return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}
	case "tools/list":
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  ToolsListResult{Tools: s.tools.List()},
		}
	case "tools/call":
		return s.toolCallResponse(ctx, req)
	default:
		return errorResponse(req.ID, -32601, "Method not found", nil)
	}
}

func (s *Server) initializeResponse(req JSONRPCRequest) JSONRPCResponse {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	var params InitializeParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	protocolVersion := params.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = ProtocolVersion
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			ServerInfo: Implementation{
				Name:    ServerName,
				Version: ServerVersion,
			},
		},
	}
}

func (s *Server) toolCallResponse(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	var params ToolCallParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	response, err := s.tools.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, -32603, "Tool execution error", err.Error())
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  response,
	}
}

// handleHealthCheck responds to liveness probes
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"server":  ServerName,
		"version": ServerVersion,
	})
}

func errorResponse(id interface{}, code int, message string, data interface{}) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func writeHTTPResponse(w http.ResponseWriter, resp JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error("failed to encode HTTP response", "error", err.Error())
	}
}
