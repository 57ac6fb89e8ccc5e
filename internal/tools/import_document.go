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
	"bufio"
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/database"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
)

// ImportDocumentTool creates the import_document tool. HTML is converted to
// markdown before storage so the text columns stay searchable as prose.
func ImportDocumentTool(store *database.Store) Tool {
	return Tool{
		Definition: mcp.Tool{
			Name: "import_document",
			Description: `Import a document into a memory bank table as one row with
'title' and 'content' columns.

<usecase>
Use import_document to remember reference material:
- Paste HTML and it is converted to markdown with the page title extracted
- Paste markdown and it is stored as-is with the first heading as title
- The stored row is then searchable like any other memory
</usecase>

<important>
- The target table is created on demand with TEXT columns 'title' and 'content'
- format is "html" or "markdown" (default markdown)
</important>`,
			InputSchema: mcp.InputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "Table to store the document in",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Document body, HTML or markdown",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"description": "Document format: 'html' or 'markdown' (default markdown)",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Optional title; overrides the extracted one",
					},
				},
				Required: []string{"table", "content"},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (mcp.ToolResponse, error) {
			table, errResp := ValidateStringParam(args, "table")
			if errResp != nil {
				return *errResp, nil
			}
			content, errResp := ValidateStringParam(args, "content")
			if errResp != nil {
				return *errResp, nil
			}
			format := strings.ToLower(ValidateOptionalStringParam(args, "format", "markdown"))

			var (
				markdown string
				title    string
				err      error
			)
			switch format {
			case "html":
				markdown, title, err = convertHTMLDocument(content)
				if err != nil {
					return mcp.NewToolError(fmt.Sprintf("Failed to convert HTML: %v", err))
				}
			case "markdown", "md":
				markdown = content
				title = extractMarkdownTitle(content)
			default:
				return mcp.NewToolError(fmt.Sprintf("Unsupported format '%s' (supported: html, markdown)", format))
			}

			if explicit := ValidateOptionalStringParam(args, "title", ""); explicit != "" {
				title = explicit
			}
			if title == "" {
				title = "Untitled document"
			}

			columns := []database.ColumnDef{
				{Name: "title", Type: "TEXT"},
				{Name: "content", Type: "TEXT"},
			}
			if err := store.CreateTable(ctx, table, columns); err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to prepare table: %v", err))
			}

			id, err := store.InsertRow(ctx, table, map[string]interface{}{
				"title":   title,
				"content": markdown,
			})
			if err != nil {
				return mcp.NewToolError(fmt.Sprintf("Failed to store document: %v", err))
			}

			logging.Info("document_imported", "table", table, "row_id", id, "format", format, "title", title)

			return mcp.NewToolSuccess(fmt.Sprintf("Document '%s' imported into '%s' as row %d", title, table, id))
		},
	}
}

// convertHTMLDocument converts HTML to markdown and extracts the page title
func convertHTMLDocument(content string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(content)
	if err != nil {
		return "", "", fmt.Errorf("failed to convert HTML: %w", err)
	}
	return strings.TrimSpace(markdown), title, nil
}

// extractMarkdownTitle extracts the title from the first # heading, skipping
// YAML front matter
func extractMarkdownTitle(content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	inMetadata := false
	metadataDelimiterCount := 0

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			metadataDelimiterCount++
			if metadataDelimiterCount == 1 {
				inMetadata = true
				continue
			} else if metadataDelimiterCount == 2 {
				inMetadata = false
				continue
			}
		}

		if inMetadata {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}

	return ""
}
