/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package tools

import (
	"context"
	"testing"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

func stubTool(name string) Tool {
	return Tool{
		Definition: mcp.Tool{Name: name, Description: name + " description"},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			return mcp.NewToolSuccess("ran " + name)
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(stubTool("alpha"))

	tool, ok := registry.Get("alpha")
	if !ok {
		t.Fatal("expected tool to be registered")
	}
	if tool.Definition.Name != "alpha" {
		t.Errorf("expected alpha, got %q", tool.Definition.Name)
	}

	if _, ok := registry.Get("missing"); ok {
		t.Error("expected missing tool to be absent")
	}
}

func TestRegistryListSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		registry.Register(stubTool(name))
	}

	defs := registry.List()
	if len(defs) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(defs))
	}
	expected := []string{"alpha", "mid", "zeta"}
	for i, def := range defs {
		if def.Name != expected[i] {
			t.Errorf("position %d: expected %q, got %q", i, expected[i], def.Name)
		}
	}
}

func TestRegistryExecute(t *testing.T) {
	registry := NewRegistry()
	registry.Register(stubTool("alpha"))

	resp, err := registry.Execute(context.Background(), "alpha", nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if resp.IsError || resp.Content[0].Text != "ran alpha" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	registry := NewRegistry()

	resp, err := registry.Execute(context.Background(), "nope", nil)
	if err != nil {
		t.Fatalf("unknown tool should not return a protocol error, got %v", err)
	}
	if !resp.IsError {
		t.Error("expected IsError for an unknown tool")
	}
	if resp.Content[0].Text != "Tool not found: nope" {
		t.Errorf("unexpected message: %q", resp.Content[0].Text)
	}
}
