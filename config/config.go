package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config holds the syndicator settings. Read-only after Load returns.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	CDN    CDNConfig    `yaml:"cdn"`
	LLM    LLMConfig    `yaml:"llm"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig selects the zap preset ("dev" or "prod").
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// CDNConfig identifies the asset CDN used to rebuild image URLs when an upload
// response carries only an asset id.
type CDNConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	BaseURL   string `yaml:"base_url"`
}

// LLMConfig configures the optional strategy generator.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"` // env-only
	BaseURL  string `yaml:"base_url"`
}

const defaultPath = "config/syndicate.yaml"

// Load reads configuration with precedence defaults -> YAML file -> env vars.
// An empty path falls back to SYNDICATE_CONFIG_PATH and then to the default
// location; a missing file at the default location is not an error.
func Load(path string) (*Config, error) {
	cfg := newDefaults()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("SYNDICATE_CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, eris.Wrapf(err, "parsing config file %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, eris.Wrapf(err, "reading config file %s", path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Mode: "dev"},
		CDN: CDNConfig{
			Dataset: "production",
			BaseURL: "https://cdn.sanity.io/images",
		},
		LLM: LLMConfig{Provider: "mock"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SYNDICATE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SYNDICATE_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := os.Getenv("SANITY_PROJECT_ID"); v != "" {
		cfg.CDN.ProjectID = v
	}
	if v := os.Getenv("SANITY_DATASET"); v != "" {
		cfg.CDN.Dataset = v
	}
	if v := os.Getenv("SYNDICATE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("SYNDICATE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SYNDICATE_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "", "mock", "openai":
	case "deepseek":
		// DeepSeek is reached through its OpenAI-compatible endpoint.
		if c.LLM.BaseURL == "" {
			return eris.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return eris.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.CDN.BaseURL == "" {
		return eris.New("cdn.base_url must not be empty")
	}
	return nil
}
