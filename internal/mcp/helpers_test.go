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
	"encoding/json"
	"strings"
	"testing"
)

func TestNewToolError(t *testing.T) {
	resp, err := NewToolError("something went wrong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsError {
		t.Error("expected IsError true")
	}
	if len(resp.Content) != 1 || resp.Content[0].Type != "text" {
		t.Fatalf("unexpected content: %+v", resp.Content)
	}
	if resp.Content[0].Text != "something went wrong" {
		t.Errorf("unexpected text: %q", resp.Content[0].Text)
	}
}

func TestNewToolSuccess(t *testing.T) {
	resp, err := NewToolSuccess("done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsError {
		t.Error("expected IsError false")
	}
	if resp.Content[0].Text != "done" {
		t.Errorf("unexpected text: %q", resp.Content[0].Text)
	}
}

func TestToolResponseJSON(t *testing.T) {
	resp, _ := NewToolSuccess("ok")
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// isError is omitted on success responses
	if strings.Contains(string(data), "isError") {
		t.Errorf("success response should omit isError, got %s", data)
	}

	resp, _ = NewToolError("bad")
	data, err = json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"isError":true`) {
		t.Errorf("error response should carry isError, got %s", data)
	}
}
