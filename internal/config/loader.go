package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Load reads the config file at path, falling back to defaults when the
// file is absent, then applies environment overrides. An empty path skips
// the file entirely.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv overlays environment variables onto cfg. Credentials always come
// from the environment in deployed setups, so env wins over the file.
func applyEnv(cfg *Config) {
	setString(&cfg.Cosmos.AccountName, "COSMOS_ACCOUNT_NAME")
	setString(&cfg.Cosmos.PrimaryKey, "COSMOS_PRIMARY_KEY")
	setString(&cfg.Cosmos.Database, "COSMOS_DATABASE")
	setString(&cfg.Cosmos.Graph, "COSMOS_GRAPH")
	setString(&cfg.Cosmos.Endpoint, "COSMOS_GREMLIN_ENDPOINT")

	setString(&cfg.OpenAI.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&cfg.OpenAI.Deployment, "AZURE_OPENAI_DEPLOYMENT")
	setString(&cfg.OpenAI.APIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "OPENAI_MODEL")

	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setString(&cfg.DomainsPath, "DOMAINS_CONFIG")
	setString(&cfg.Export.OutputDir, "EXPORT_OUTPUT_DIR")
	setString(&cfg.Export.Schedule, "EXPORT_SCHEDULE")

	if v := os.Getenv("AGENT_MAX_TOOL_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Agent.MaxToolIter = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the settings a live run cannot do without.
func (c *Config) Validate() error {
	if c.Cosmos.AccountName == "" {
		return fmt.Errorf("cosmos account name is required (COSMOS_ACCOUNT_NAME)")
	}
	if c.Cosmos.PrimaryKey == "" {
		return fmt.Errorf("cosmos primary key is required (COSMOS_PRIMARY_KEY)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("LLM API key is required (AZURE_OPENAI_API_KEY or OPENAI_API_KEY)")
	}
	return nil
}
