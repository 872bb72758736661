// Package config defines the configuration schema for referralgraph.
//
// Config is loaded from a JSON file and then overridden by environment
// variables, which carry the Cosmos and Azure OpenAI credentials in
// deployed environments.
package config

// CosmosConfig holds the Cosmos DB Gremlin connection settings.
type CosmosConfig struct {
	AccountName string `json:"accountName"`
	PrimaryKey  string `json:"primaryKey"`
	Database    string `json:"database"`
	Graph       string `json:"graph"`
	Endpoint    string `json:"endpoint,omitempty"` // override, mainly for emulators
}

// OpenAIConfig holds the LLM endpoint settings. Deployment selects Azure
// OpenAI mode; without it the endpoint is treated as OpenAI-compatible.
type OpenAIConfig struct {
	APIKey     string `json:"apiKey"`
	Endpoint   string `json:"endpoint,omitempty"`
	Deployment string `json:"deployment,omitempty"`
	APIVersion string `json:"apiVersion,omitempty"`
	Model      string `json:"model"`
}

// AgentConfig holds default values for agent behaviour.
type AgentConfig struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	MaxToolIter int     `json:"maxToolIterations"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// ExportConfig holds the analytics export settings.
type ExportConfig struct {
	OutputDir string `json:"outputDir"`
	Schedule  string `json:"schedule,omitempty"` // cron expression; empty disables scheduling
}

// Config is the root configuration.
type Config struct {
	Cosmos      CosmosConfig `json:"cosmos"`
	OpenAI      OpenAIConfig `json:"openai"`
	Agent       AgentConfig  `json:"agent"`
	Server      ServerConfig `json:"server"`
	Export      ExportConfig `json:"export"`
	DomainsPath string       `json:"domainsPath"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Cosmos: CosmosConfig{
			Database: "graphdb",
			Graph:    "referral_network",
		},
		OpenAI: OpenAIConfig{
			Model:      "gpt-4o",
			APIVersion: "2024-02-15-preview",
		},
		Agent: AgentConfig{
			MaxTokens:   4096,
			Temperature: 0.1,
			MaxToolIter: 10,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Export: ExportConfig{
			OutputDir: "powerbi_export",
		},
		DomainsPath: "config/domains.yaml",
	}
}
