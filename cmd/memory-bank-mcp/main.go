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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/auth"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/config"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/database"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/embedding"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/logging"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/mcp"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/search"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/shell"
	"github.com/robertmeisner/mcp-sqlite-memory-bank-sub000/internal/tools"
)

// rootFlags holds the flags shared by serve and shell
type rootFlags struct {
	configFile string
	dbPath     string
	httpMode   bool
	httpAddr   string
	noAuth     bool
	debug      bool
}

func main() {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "memory-bank-mcp",
		Short: "SQLite-backed memory bank exposed over the Model Context Protocol",
		Long: `memory-bank-mcp gives AI agents a persistent, searchable memory: a
single SQLite file holding agent-defined tables, with hybrid
semantic-lexical search over their text columns.

Without arguments the server speaks MCP over stdio; --http switches to
the HTTP transport.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Path to the memory bank database file")
	rootCmd.Flags().BoolVar(&flags.httpMode, "http", false, "Enable HTTP transport mode (default: stdio)")
	rootCmd.Flags().StringVar(&flags.httpAddr, "addr", "", "HTTP server address")
	rootCmd.Flags().BoolVar(&flags.noAuth, "no-auth", false, "Disable API token authentication in HTTP mode")
	rootCmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging of HTTP requests and responses")

	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newShellCommand(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration from defaults, file, env,
// and CLI flags
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	configPath := flags.configFile
	configFileSet := cmd.Flags().Changed("config") || cmd.InheritedFlags().Changed("config")
	if !configFileSet {
		configPath = config.GetDefaultConfigPath(execPath)
		if _, err := os.Stat(configPath); err != nil {
			configPath = ""
		}
	}

	cliFlags := config.CLIFlags{
		ConfigFileSet: configFileSet,
		DatabasePath:  flags.dbPath,
		HTTPEnabled:   flags.httpMode,
		HTTPAddress:   flags.httpAddr,
		AuthDisabled:  flags.noAuth,
	}

	return config.LoadConfig(configPath, cliFlags)
}

// buildRuntime assembles the store, search engine, and tool registry
func buildRuntime(cfg *config.Config) (*database.Store, *tools.Registry, error) {
	store, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open memory bank: %w", err)
	}

	var provider search.Provider
	if cfg.Embedding.Enabled {
		p, err := embedding.NewProvider(embedding.Config{
			Provider:     cfg.Embedding.Provider,
			Model:        cfg.Embedding.Model,
			VoyageAPIKey: cfg.Embedding.VoyageAPIKey,
			OpenAIAPIKey: cfg.Embedding.OpenAIAPIKey,
			OllamaURL:    cfg.Embedding.OllamaURL,
		})
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
		provider = p
		logging.Info("embedding_provider_ready", "provider", cfg.Embedding.Provider, "model", p.ModelName())
	} else {
		logging.Info("embedding_disabled", "mode", "lexical_only")
	}

	cache := search.NewCache(store)
	engine := search.NewEngine(store, cache, provider, search.Config{
		DefaultModelID:      cfg.Search.DefaultModelID,
		AutoEmbedBatchSize:  cfg.Search.AutoEmbedBatchSize,
		ScanLimit:           cfg.Search.ScanLimit,
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		SemanticWeight:      cfg.Search.SemanticWeight,
	})

	// Deleted rows and dropped tables take their cached vectors with them
	store.OnRowDeleted(func(table string, rowID int64) {
		if err := cache.EvictRowAll(context.Background(), table, rowID); err != nil {
			logging.Warn("embedding_evict_failed", "table", table, "row_id", rowID, "error", err.Error())
		}
	})
	store.OnTableDropped(func(table string) {
		if err := cache.EvictTable(context.Background(), table); err != nil {
			logging.Warn("embedding_evict_failed", "table", table, "error", err.Error())
		}
	})

	registry := tools.NewRegistry()
	registry.Register(tools.CreateTableTool(store))
	registry.Register(tools.DropTableTool(store))
	registry.Register(tools.RenameTableTool(store))
	registry.Register(tools.ListTablesTool(store))
	registry.Register(tools.DescribeTableTool(store))
	registry.Register(tools.ListAllColumnsTool(store))
	registry.Register(tools.CreateRowTool(store))
	registry.Register(tools.ReadRowsTool(store))
	registry.Register(tools.UpdateRowsTool(store))
	registry.Register(tools.DeleteRowsTool(store))
	registry.Register(tools.RunSelectQueryTool(store))
	registry.Register(tools.ImportDocumentTool(store))
	registry.Register(tools.SearchContentTool(engine))
	registry.Register(tools.SemanticSearchTool(engine))
	registry.Register(tools.HybridSearchTool(engine))
	registry.Register(tools.AddEmbeddingsTool(engine))
	registry.Register(tools.EmbeddingStatsTool(engine))

	return store, registry, nil
}

// runServe starts the MCP server over stdio or HTTP
func runServe(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	store, registry, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	server := mcp.NewServer(registry)

	if !cfg.HTTP.Enabled {
		fmt.Fprintf(os.Stderr, "Memory bank: %s\n", cfg.Database.Path)
		fmt.Fprintf(os.Stderr, "Mode: STDIO\n")
		return server.Run()
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	var tokenStore *auth.TokenStore
	if cfg.HTTP.Auth.Enabled {
		tokenFile := cfg.HTTP.Auth.TokenFile
		if tokenFile == "" {
			tokenFile = auth.GetDefaultTokenPath(execPath)
		}

		if _, err := os.Stat(tokenFile); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "ERROR: Token file not found: %s\n", tokenFile)
			fmt.Fprintf(os.Stderr, "Create tokens with: %s token add\n", os.Args[0])
			fmt.Fprintf(os.Stderr, "Or disable authentication with: --no-auth\n")
			os.Exit(1)
		}

		tokenStore, err = auth.LoadTokenStore(tokenFile)
		if err != nil {
			return fmt.Errorf("failed to load token file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Loaded %d API token(s) from %s\n", len(tokenStore.Tokens), tokenFile)

		if err := tokenStore.StartWatching(); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: Failed to start watching token file: %v\n", err)
			fmt.Fprintf(os.Stderr, "         Token changes will require server restart\n")
		} else {
			fmt.Fprintf(os.Stderr, "Watching %s for changes\n", tokenFile)
		}
		defer tokenStore.StopWatching()

		fmt.Fprintf(os.Stderr, "Authentication: ENABLED\n")
	} else {
		fmt.Fprintf(os.Stderr, "Authentication: DISABLED (warning: server is not secured)\n")
	}

	if cfg.HTTP.TLS.Enabled {
		if _, err := os.Stat(cfg.HTTP.TLS.CertFile); err != nil {
			return fmt.Errorf("certificate file not found: %s", cfg.HTTP.TLS.CertFile)
		}
		if _, err := os.Stat(cfg.HTTP.TLS.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %s", cfg.HTTP.TLS.KeyFile)
		}
		fmt.Fprintf(os.Stderr, "Starting MCP server in HTTPS mode on %s\n", cfg.HTTP.Address)
	} else {
		fmt.Fprintf(os.Stderr, "Starting MCP server in HTTP mode on %s\n", cfg.HTTP.Address)
	}
	fmt.Fprintf(os.Stderr, "Memory bank: %s\n", cfg.Database.Path)

	return server.RunHTTP(&mcp.HTTPConfig{
		Addr:        cfg.HTTP.Address,
		TLSEnable:   cfg.HTTP.TLS.Enabled,
		CertFile:    cfg.HTTP.TLS.CertFile,
		KeyFile:     cfg.HTTP.TLS.KeyFile,
		AuthEnabled: cfg.HTTP.Auth.Enabled,
		TokenStore:  tokenStore,
		Debug:       flags.debug,
	})
}

// newShellCommand creates the interactive shell subcommand
func newShellCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Open an interactive shell over the memory bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			store, registry, err := buildRuntime(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return shell.New(registry).Run(cmd.Context())
		},
	}
}
