/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	// Database holds the memory bank database settings
	Database DatabaseConfig `yaml:"database"`

	// HTTP server configuration
	HTTP HTTPConfig `yaml:"http"`

	// Embedding provider configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Search holds hybrid search defaults
	Search SearchConfig `yaml:"search"`
}

// DatabaseConfig holds memory bank database settings
type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to the SQLite database file (default: ./memory_bank.db)
}

// HTTPConfig holds HTTP/HTTPS server settings
type HTTPConfig struct {
	Enabled bool       `yaml:"enabled"`
	Address string     `yaml:"address"`
	TLS     TLSConfig  `yaml:"tls"`
	Auth    AuthConfig `yaml:"auth"`
}

// TLSConfig holds TLS/HTTPS settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig holds authentication settings for HTTP mode
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Whether bearer token authentication is required
	TokenFile string `yaml:"token_file"` // Path to the API token file
}

// EmbeddingConfig holds embedding generation settings
type EmbeddingConfig struct {
	Enabled          bool   `yaml:"enabled"`             // Whether semantic search is enabled (default: false)
	Provider         string `yaml:"provider"`            // "voyage", "openai", or "ollama"
	Model            string `yaml:"model"`               // Provider-specific model name
	VoyageAPIKey     string `yaml:"voyage_api_key"`      // API key for Voyage AI (discouraged, prefer api_key_file or env var)
	VoyageAPIKeyFile string `yaml:"voyage_api_key_file"` // Path to file containing Voyage API key
	OpenAIAPIKey     string `yaml:"openai_api_key"`      // API key for OpenAI (discouraged, prefer api_key_file or env var)
	OpenAIAPIKeyFile string `yaml:"openai_api_key_file"` // Path to file containing OpenAI API key
	OllamaURL        string `yaml:"ollama_url"`          // URL for Ollama service (default: http://localhost:11434)
}

// SearchConfig holds hybrid search defaults. The two score knobs are
// pointers so an explicit 0 in the file survives merging: nil means unset,
// a configured 0 disables the gate / the semantic term.
type SearchConfig struct {
	DefaultModelID      string   `yaml:"default_model_id"`      // Model id recorded with embedding partitions
	AutoEmbedBatchSize  int      `yaml:"auto_embed_batch_size"` // Texts per provider call during auto-embed (default: 64)
	ScanLimit           int      `yaml:"scan_limit"`            // Maximum rows scanned per table per search (default: 10000)
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`  // Default vector similarity gate (default: 0.5)
	SemanticWeight      *float64 `yaml:"semantic_weight"`       // Default semantic weight (default: 0.7)
}

// CLIFlags holds configuration values provided on the command line
type CLIFlags struct {
	ConfigFileSet bool
	DatabasePath  string
	HTTPEnabled   bool
	HTTPAddress   string
	AuthDisabled  bool
}

// LoadConfig loads configuration with proper priority:
// 1. Command line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Hard-coded defaults (lowest priority)
func LoadConfig(configPath string, cliFlags CLIFlags) (*Config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		fileCfg, err := loadConfigFile(configPath)
		if err != nil {
			// If the file was explicitly specified, error out; otherwise
			// a missing default-path file is fine
			if cliFlags.ConfigFileSet {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		} else {
			mergeConfig(cfg, fileCfg)
		}
	}

	applyEnvOverrides(cfg)
	applyCLIFlags(cfg, cliFlags)

	if err := resolveAPIKeys(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func floatPtr(v float64) *float64 {
	return &v
}

// defaultConfig returns the hard-coded default configuration
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "./memory_bank.db",
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Address: ":8080",
			Auth: AuthConfig{
				Enabled: true,
			},
		},
		Embedding: EmbeddingConfig{
			Enabled:   false,
			Provider:  "ollama",
			OllamaURL: "http://localhost:11434",
		},
		Search: SearchConfig{
			DefaultModelID:      "nomic-embed-text",
			AutoEmbedBatchSize:  64,
			ScanLimit:           10000,
			SimilarityThreshold: floatPtr(0.5),
			SemanticWeight:      floatPtr(0.7),
		},
	}
}

// loadConfigFile reads and parses a YAML configuration file
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// mergeConfig merges non-zero values from src into dst
func mergeConfig(dst, src *Config) {
	if src.Database.Path != "" {
		dst.Database.Path = src.Database.Path
	}

	if src.HTTP.Enabled {
		dst.HTTP.Enabled = true
	}
	if src.HTTP.Address != "" {
		dst.HTTP.Address = src.HTTP.Address
	}
	if src.HTTP.TLS.Enabled {
		dst.HTTP.TLS = src.HTTP.TLS
	}
	if src.HTTP.Auth.TokenFile != "" {
		dst.HTTP.Auth.TokenFile = src.HTTP.Auth.TokenFile
	}

	if src.Embedding.Enabled {
		dst.Embedding.Enabled = true
	}
	if src.Embedding.Provider != "" {
		dst.Embedding.Provider = src.Embedding.Provider
	}
	if src.Embedding.Model != "" {
		dst.Embedding.Model = src.Embedding.Model
	}
	if src.Embedding.VoyageAPIKey != "" {
		dst.Embedding.VoyageAPIKey = src.Embedding.VoyageAPIKey
	}
	if src.Embedding.VoyageAPIKeyFile != "" {
		dst.Embedding.VoyageAPIKeyFile = src.Embedding.VoyageAPIKeyFile
	}
	if src.Embedding.OpenAIAPIKey != "" {
		dst.Embedding.OpenAIAPIKey = src.Embedding.OpenAIAPIKey
	}
	if src.Embedding.OpenAIAPIKeyFile != "" {
		dst.Embedding.OpenAIAPIKeyFile = src.Embedding.OpenAIAPIKeyFile
	}
	if src.Embedding.OllamaURL != "" {
		dst.Embedding.OllamaURL = src.Embedding.OllamaURL
	}

	if src.Search.DefaultModelID != "" {
		dst.Search.DefaultModelID = src.Search.DefaultModelID
	}
	if src.Search.AutoEmbedBatchSize > 0 {
		dst.Search.AutoEmbedBatchSize = src.Search.AutoEmbedBatchSize
	}
	if src.Search.ScanLimit > 0 {
		dst.Search.ScanLimit = src.Search.ScanLimit
	}
	if src.Search.SimilarityThreshold != nil {
		dst.Search.SimilarityThreshold = src.Search.SimilarityThreshold
	}
	if src.Search.SemanticWeight != nil {
		dst.Search.SemanticWeight = src.Search.SemanticWeight
	}
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEMORY_BANK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MEMORY_BANK_OLLAMA_URL"); v != "" {
		cfg.Embedding.OllamaURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Embedding.OpenAIAPIKey == "" {
		cfg.Embedding.OpenAIAPIKey = v
	}
	if v := os.Getenv("VOYAGE_API_KEY"); v != "" && cfg.Embedding.VoyageAPIKey == "" {
		cfg.Embedding.VoyageAPIKey = v
	}
}

// applyCLIFlags applies command line flag overrides (highest priority)
func applyCLIFlags(cfg *Config, flags CLIFlags) {
	if flags.DatabasePath != "" {
		cfg.Database.Path = flags.DatabasePath
	}
	if flags.HTTPEnabled {
		cfg.HTTP.Enabled = true
	}
	if flags.HTTPAddress != "" {
		cfg.HTTP.Address = flags.HTTPAddress
	}
	if flags.AuthDisabled {
		cfg.HTTP.Auth.Enabled = false
	}
}

// resolveAPIKeys reads API keys from key files when configured
func resolveAPIKeys(cfg *Config) error {
	if cfg.Embedding.OpenAIAPIKeyFile != "" && cfg.Embedding.OpenAIAPIKey == "" {
		key, err := readKeyFile(cfg.Embedding.OpenAIAPIKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read OpenAI API key file: %w", err)
		}
		cfg.Embedding.OpenAIAPIKey = key
	}
	if cfg.Embedding.VoyageAPIKeyFile != "" && cfg.Embedding.VoyageAPIKey == "" {
		key, err := readKeyFile(cfg.Embedding.VoyageAPIKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read Voyage API key file: %w", err)
		}
		cfg.Embedding.VoyageAPIKey = key
	}
	return nil
}

// readKeyFile reads an API key from a file, trimming whitespace
func readKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// GetDefaultConfigPath returns the default config file path next to the executable
func GetDefaultConfigPath(execPath string) string {
	return filepath.Join(filepath.Dir(execPath), "memory-bank-mcp.yaml")
}
