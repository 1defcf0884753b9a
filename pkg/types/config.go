package types

import "time"

// HTTPConfig holds shared HTTP settings used for provider requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with provider requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// EndpointConfig holds the base URL of each provider API. Tests point these
// at httptest servers.
type EndpointConfig struct {
	Gemini     string `json:"gemini" yaml:"gemini" mapstructure:"gemini"`
	Perplexity string `json:"perplexity" yaml:"perplexity" mapstructure:"perplexity"`
	Tavily     string `json:"tavily" yaml:"tavily" mapstructure:"tavily"`
	Exa        string `json:"exa" yaml:"exa" mapstructure:"exa"`
}

// DefaultEndpoints returns the public API base URLs.
func DefaultEndpoints() EndpointConfig {
	return EndpointConfig{
		Gemini:     "https://generativelanguage.googleapis.com/v1beta",
		Perplexity: "https://api.perplexity.ai",
		Tavily:     "https://api.tavily.com",
		Exa:        "https://api.exa.ai",
	}
}

// LogFileConfig configures rotated log file output.
type LogFileConfig struct {
	Filename   string `json:"filename" yaml:"filename" mapstructure:"filename"`
	MaxSize    int    `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	MaxAge     int    `json:"max_age" yaml:"max_age" mapstructure:"max_age"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	Compress   bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console"`

	// Output is console, file, or both.
	Output string `json:"output" yaml:"output" mapstructure:"output" validate:"oneof=console file both"`

	File LogFileConfig `json:"file" yaml:"file" mapstructure:"file"`
}

// Config is the static configuration of the CLI host, read from
// research-assistant.yaml and RESEARCH_ASSISTANT_* environment variables.
type Config struct {
	HTTP      HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Endpoints EndpointConfig `json:"endpoints" yaml:"endpoints" mapstructure:"endpoints"`
	Log       LogConfig      `json:"log" yaml:"log" mapstructure:"log"`

	// SettingsPath is the YAML file holding the persisted Settings blob.
	SettingsPath string `json:"settings_path" yaml:"settings_path" mapstructure:"settings_path"`

	// DatabasePath is the SQLite conversation store.
	DatabasePath string `json:"database_path" yaml:"database_path" mapstructure:"database_path"`

	// VaultDir is the root of the notes folder that conversations are saved into.
	VaultDir string `json:"vault_dir" yaml:"vault_dir" mapstructure:"vault_dir"`

	// SecretsDir holds one API key per file.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   120 * time.Second,
			UserAgent: "research-assistant/0.1",
		},
		Endpoints: DefaultEndpoints(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "console",
			File: LogFileConfig{
				Filename:   "logs/research-assistant.log",
				MaxSize:    10,
				MaxAge:     30,
				MaxBackups: 5,
			},
		},
		SettingsPath: "research-assistant-settings.yaml",
		DatabasePath: "research-assistant.db",
		VaultDir:     ".",
		SecretsDir:   ".secrets",
	}
}
