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
	"fmt"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

// ValidateStringParam validates and extracts a required string parameter from args
// Returns the string value and a ToolResponse error if validation fails
func ValidateStringParam(args map[string]interface{}, name string) (string, *mcp.ToolResponse) {
	value, ok := args[name].(string)
	if !ok || value == "" {
		resp, err := mcp.NewToolError(fmt.Sprintf("Missing or invalid '%s' argument", name))
		if err != nil {
			return "", &resp
		}
		return "", &resp
	}
	return value, nil
}

// ValidateOptionalStringParam validates and extracts an optional string parameter
// Returns the string value (or defaultValue if not present) and no error
func ValidateOptionalStringParam(args map[string]interface{}, name string, defaultValue string) string {
	value, ok := args[name].(string)
	if !ok {
		return defaultValue
	}
	return value
}

// ValidateOptionalNumberParam validates and extracts an optional number parameter
// Returns the float64 value (or defaultValue if not present) and no error
func ValidateOptionalNumberParam(args map[string]interface{}, name string, defaultValue float64) float64 {
	value, ok := args[name].(float64)
	if !ok {
		return defaultValue
	}
	return value
}

// ValidateBoolParam validates and extracts an optional boolean parameter
// Returns the bool value (or defaultValue if not present)
func ValidateBoolParam(args map[string]interface{}, name string, defaultValue bool) bool {
	value, ok := args[name].(bool)
	if !ok {
		return defaultValue
	}
	return value
}

// ValidateObjectParam validates and extracts a required object parameter
// Returns the map value and a ToolResponse error if validation fails
func ValidateObjectParam(args map[string]interface{}, name string) (map[string]interface{}, *mcp.ToolResponse) {
	value, ok := args[name].(map[string]interface{})
	if !ok || len(value) == 0 {
		resp, err := mcp.NewToolError(fmt.Sprintf("Missing or invalid '%s' argument", name))
		if err != nil {
			return nil, &resp
		}
		return nil, &resp
	}
	return value, nil
}

// ValidateOptionalObjectParam extracts an optional object parameter, nil when absent
func ValidateOptionalObjectParam(args map[string]interface{}, name string) map[string]interface{} {
	value, ok := args[name].(map[string]interface{})
	if !ok {
		return nil
	}
	return value
}

// ValidateStringSliceParam extracts an optional array-of-strings parameter.
// JSON arrays decode as []interface{}; non-string members are rejected.
func ValidateStringSliceParam(args map[string]interface{}, name string) ([]string, *mcp.ToolResponse) {
	raw, ok := args[name]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		resp, err := mcp.NewToolError(fmt.Sprintf("'%s' must be an array of strings", name))
		if err != nil {
			return nil, &resp
		}
		return nil, &resp
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			resp, err := mcp.NewToolError(fmt.Sprintf("'%s' must be an array of strings", name))
			if err != nil {
				return nil, &resp
			}
			return nil, &resp
		}
		values = append(values, s)
	}
	return values, nil
}
