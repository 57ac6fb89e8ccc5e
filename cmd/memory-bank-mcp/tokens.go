/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/auth"
)

// newTokenCommand creates the token management subcommands
func newTokenCommand() *cobra.Command {
	var tokenFile string

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens for the HTTP transport",
	}
	tokenCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Path to the API token file")

	var note string
	var expiry string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return addTokenCommand(resolveTokenFile(tokenFile), note, expiry)
		},
	}
	addCmd.Flags().StringVar(&note, "note", "", "Annotation for the new token")
	addCmd.Flags().StringVar(&expiry, "expiry", "never", "Token expiry duration: '30d', '1y', '2w', '12h', or 'never'")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all API tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTokensCommand(resolveTokenFile(tokenFile))
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an API token by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeTokenCommand(resolveTokenFile(tokenFile), args[0])
		},
	}

	tokenCmd.AddCommand(addCmd, listCmd, removeCmd)
	return tokenCmd
}

// resolveTokenFile falls back to the default path next to the executable
func resolveTokenFile(tokenFile string) string {
	if tokenFile != "" {
		return tokenFile
	}
	execPath, err := os.Executable()
	if err != nil {
		return "memory-bank-tokens.yaml"
	}
	return auth.GetDefaultTokenPath(execPath)
}

// addTokenCommand handles the token add command
func addTokenCommand(tokenFile, annotation, expiryStr string) error {
	var store *auth.TokenStore
	if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
		store = auth.NewTokenStore(tokenFile)
		fmt.Fprintf(os.Stderr, "Creating new token file: %s\n", tokenFile)
	} else {
		var err error
		store, err = auth.LoadTokenStore(tokenFile)
		if err != nil {
			return fmt.Errorf("failed to load token file: %w", err)
		}
	}

	var expiry time.Duration
	if expiryStr != "" && expiryStr != "never" {
		var err error
		expiry, err = parseDuration(expiryStr)
		if err != nil {
			return fmt.Errorf("invalid expiry duration: %w", err)
		}
	}

	tokenID := fmt.Sprintf("token-%d", time.Now().Unix())
	token, err := store.Add(tokenID, annotation, expiry)
	if err != nil {
		return fmt.Errorf("failed to add token: %w", err)
	}

	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save token file: %w", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("Token created successfully!")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\nToken: %s\n", token)
	fmt.Printf("ID:    %s\n", tokenID)
	if annotation != "" {
		fmt.Printf("Note:  %s\n", annotation)
	}
	if expiry > 0 {
		fmt.Printf("Expires: %s\n", time.Now().Add(expiry).Format(time.RFC3339))
	} else {
		fmt.Println("Expires: Never")
	}
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("\nIMPORTANT: Save this token securely - it will not be shown again!")
	fmt.Println("Use it in API requests with: Authorization: Bearer <token>")
	fmt.Println(strings.Repeat("=", 70) + "\n")

	return nil
}

// removeTokenCommand handles the token remove command
func removeTokenCommand(tokenFile, id string) error {
	store, err := auth.LoadTokenStore(tokenFile)
	if err != nil {
		return fmt.Errorf("failed to load token file: %w", err)
	}

	if !store.Remove(id) {
		return fmt.Errorf("token not found: %s", id)
	}

	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save token file: %w", err)
	}

	fmt.Printf("Token removed successfully: %s\n", id)
	return nil
}

// listTokensCommand handles the token list command
func listTokensCommand(tokenFile string) error {
	store, err := auth.LoadTokenStore(tokenFile)
	if err != nil {
		return fmt.Errorf("failed to load token file: %w", err)
	}

	tokens := store.List()
	if len(tokens) == 0 {
		fmt.Println("No tokens found.")
		return nil
	}

	ids := make([]string, 0, len(tokens))
	for id := range tokens {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now().UTC()

	fmt.Println("\nAPI Tokens:")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%-20s %-25s %-10s %s\n", "ID", "Expires", "Status", "Annotation")
	fmt.Println(strings.Repeat("-", 80))

	for _, id := range ids {
		token := tokens[id]

		status := "Active"
		expiryStr := "Never"
		if token.ExpiresAt != nil {
			expiryStr = token.ExpiresAt.Format("2006-01-02 15:04")
			if now.After(*token.ExpiresAt) {
				status = "EXPIRED"
			}
		}

		annotation := token.Annotation
		if len(annotation) > 20 {
			annotation = annotation[:17] + "..."
		}

		fmt.Printf("%-20s %-25s %-10s %s\n", id, expiryStr, status, annotation)
	}
	fmt.Println(strings.Repeat("=", 80) + "\n")

	return nil
}

// parseDuration parses durations like "30d", "1y", "2w", "12h"
func parseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration format")
	}

	numStr := s[:len(s)-1]
	unit := s[len(s)-1]

	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return 0, fmt.Errorf("invalid number in duration: %w", err)
	}

	switch unit {
	case 'h':
		return time.Duration(num) * time.Hour, nil
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(num) * 30 * 24 * time.Hour, nil
	case 'y':
		return time.Duration(num) * 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid duration unit: %c (use h, d, w, m, or y)", unit)
	}
}
