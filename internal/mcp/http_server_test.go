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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubProvider serves a single echo tool for protocol-level tests
type stubProvider struct{}

func (stubProvider) List() []Tool {
	return []Tool{{
		Name:        "echo",
		Description: "Echoes the message argument",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{"type": "string"},
			},
			Required: []string{"message"},
		},
	}}
}

func (stubProvider) Execute(ctx context.Context, name string, args map[string]interface{}) (ToolResponse, error) {
	if name != "echo" {
		return NewToolError(fmt.Sprintf("Tool not found: %s", name))
	}
	msg, _ := args["message"].(string)
	return NewToolSuccess(msg)
}

func TestHandleRequestHTTPInitialize(t *testing.T) {
	server := NewServer(stubProvider{})

	resp := server.handleRequestHTTP(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      float64(1),
		Method:  "initialize",
		Params: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"clientInfo":      map[string]interface{}{"name": "test", "version": "0.1"},
		},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	result, ok := resp.Result.(InitializeResult)
	if !ok {
		t.Fatalf("unexpected result type: %T", resp.Result)
	}
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("unexpected protocol version: %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != ServerName {
		t.Errorf("unexpected server name: %q", result.ServerInfo.Name)
	}
}

func TestHandleRequestHTTPToolsList(t *testing.T) {
	server := NewServer(stubProvider{})

	resp := server.handleRequestHTTP(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      float64(2),
		Method:  "tools/list",
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	result, ok := resp.Result.(ToolsListResult)
	if !ok {
		t.Fatalf("unexpected result type: %T", resp.Result)
	}
	if len(result.Tools) != 1 || result.Tools[0].Name != "echo" {
		t.Errorf("unexpected tools: %+v", result.Tools)
	}
}

func TestHandleRequestHTTPToolCall(t *testing.T) {
	server := NewServer(stubProvider{})

	resp := server.handleRequestHTTP(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      float64(3),
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      "echo",
			"arguments": map[string]interface{}{"message": "hello"},
		},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	result, ok := resp.Result.(ToolResponse)
	if !ok {
		t.Fatalf("unexpected result type: %T", resp.Result)
	}
	if result.Content[0].Text != "hello" {
		t.Errorf("unexpected echo: %q", result.Content[0].Text)
	}
}

func TestHandleRequestHTTPMethodNotFound(t *testing.T) {
	server := NewServer(stubProvider{})

	resp := server.handleRequestHTTP(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      float64(4),
		Method:  "resources/list",
	})
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("expected -32601, got %d", resp.Error.Code)
	}
}

func TestHandleHTTPRequest(t *testing.T) {
	server := NewServer(stubProvider{})

	body, _ := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/list",
	})
	req := httptest.NewRequest(http.MethodPost, "/mcp/v1", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	server.handleHTTPRequest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var resp JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Error != nil {
		t.Errorf("unexpected error: %+v", resp.Error)
	}
}

func TestHandleHTTPRequestRejectsGet(t *testing.T) {
	server := NewServer(stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/mcp/v1", nil)
	rec := httptest.NewRecorder()

	server.handleHTTPRequest(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHandleHTTPRequestParseError(t *testing.T) {
	server := NewServer(stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/mcp/v1", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	server.handleHTTPRequest(rec, req)

	var resp JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Errorf("expected parse error, got %+v", resp.Error)
	}
}

func TestHealthCheck(t *testing.T) {
	server := NewServer(stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.handleHealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad health body: %v", err)
	}
	if body["status"] != "ok" || body["server"] != ServerName {
		t.Errorf("unexpected health payload: %v", body)
	}
}
