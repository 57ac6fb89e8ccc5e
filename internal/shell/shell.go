/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

// Package shell implements the interactive memory bank shell: a local REPL
// over the same tool surface the MCP server exposes, with markdown-rendered
// output. Useful for inspecting and searching a memory bank without an
// agent attached.
package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/tools"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// Shell is the interactive REPL over a tool registry
type Shell struct {
	registry *tools.Registry
	noColor  bool
}

// New creates a shell over the given tool registry
func New(registry *tools.Registry) *Shell {
	return &Shell{
		registry: registry,
		noColor:  os.Getenv("NO_COLOR") != "",
	}
}

func (s *Shell) colorize(color, text string) string {
	if s.noColor {
		return text
	}
	return color + text + ColorReset
}

// historyFile returns the readline history path under the user config dir
func historyFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "memory-bank-mcp", "shell_history")
}

// Run runs the REPL until EOF, interrupt, or 'exit'
func (s *Shell) Run(ctx context.Context) error {
	fmt.Println(s.colorize(ColorCyan, "SQLite Memory Bank shell. Type 'help' for commands, 'exit' to leave."))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            s.colorize(ColorGreen+ColorBold, "memory-bank> "),
		HistoryFile:       historyFile(),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF || ctx.Err() != nil {
				fmt.Println()
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch {
		case input == "exit" || input == "quit":
			return nil
		case input == "help":
			s.printHelp()
		case input == "clear":
			fmt.Print("\033[H\033[2J")
		case input == "tools":
			s.printTools()
		case input == "tables":
			s.callTool(ctx, "list_tables", nil)
		case input == "schema":
			s.callTool(ctx, "list_all_columns", nil)
		case strings.HasPrefix(input, "search "):
			s.callTool(ctx, "hybrid_search", map[string]interface{}{
				"query": strings.TrimSpace(strings.TrimPrefix(input, "search ")),
			})
		case strings.HasPrefix(input, "select "), strings.HasPrefix(input, "SELECT "):
			s.callTool(ctx, "run_select_query", map[string]interface{}{"query": input})
		case strings.HasPrefix(input, "call "):
			s.handleCall(ctx, strings.TrimSpace(strings.TrimPrefix(input, "call ")))
		default:
			// Bare text is a search; the common case in an interactive session
			s.callTool(ctx, "hybrid_search", map[string]interface{}{"query": input})
		}
	}
}

// handleCall parses "call <tool> [json-args]" and invokes the tool
func (s *Shell) handleCall(ctx context.Context, rest string) {
	name := rest
	args := map[string]interface{}{}

	if idx := strings.IndexAny(rest, " \t"); idx != -1 {
		name = rest[:idx]
		rawArgs := strings.TrimSpace(rest[idx:])
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				s.printError(fmt.Sprintf("invalid JSON arguments: %v", err))
				return
			}
		}
	}

	s.callTool(ctx, name, args)
}

func (s *Shell) callTool(ctx context.Context, name string, args map[string]interface{}) {
	if args == nil {
		args = map[string]interface{}{}
	}

	resp, err := s.registry.Execute(ctx, name, args)
	if err != nil {
		s.printError(err.Error())
		return
	}

	var sb strings.Builder
	for _, item := range resp.Content {
		sb.WriteString(item.Text)
		sb.WriteString("\n")
	}
	text := strings.TrimRight(sb.String(), "\n")

	if resp.IsError {
		s.printError(text)
		return
	}
	s.printResult(text)
}

// printResult renders tool output as markdown when the terminal supports it
func (s *Shell) printResult(text string) {
	style := "dark"
	if s.noColor {
		style = "notty"
	}

	width := terminalWidth()
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if rendered, err := r.Render("```\n" + text + "\n```"); err == nil {
			fmt.Print(rendered)
			return
		}
	}

	fmt.Println(text)
}

func (s *Shell) printError(text string) {
	fmt.Println(s.colorize(ColorRed, "Error: ") + text)
}

func (s *Shell) printTools() {
	for _, def := range s.registry.List() {
		brief := def.Description
		if idx := strings.IndexByte(brief, '\n'); idx != -1 {
			brief = brief[:idx]
		}
		fmt.Printf("%s %s\n", s.colorize(ColorYellow, def.Name), s.colorize(ColorGray, strings.TrimSpace(brief)))
	}
}

func (s *Shell) printHelp() {
	help := `
Available commands:
  help              - Show this help message
  tables            - List memory bank tables
  schema            - Show every table with its columns
  search <query>    - Hybrid search across all tables
  select <sql>      - Run a read-only SELECT query
  tools             - List all available tools
  call <tool> {...} - Invoke any tool with JSON arguments
  clear             - Clear the screen
  exit              - Leave the shell

Anything else you type is treated as a search query.

History navigation:
  Up/Down   - Navigate through command history
  Ctrl+R    - Reverse search history
`
	fmt.Println(s.colorize(ColorCyan, help))
}

// terminalWidth returns the stdout width, defaulting to 80 when unknown
func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 2 {
		return width - 2
	}
	return 80
}
