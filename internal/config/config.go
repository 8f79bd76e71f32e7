// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type AgentConfig struct {
	Name       string `yaml:"name"`
	Credential string `yaml:"credential"`
	Archetype  string `yaml:"archetype"`
	Model      string `yaml:"model,omitempty"`
}

type Config struct {
	Agents []AgentConfig `yaml:"agents"`
	Debate struct {
		Rounds            int `yaml:"rounds"`
		RequestsPerMinute int `yaml:"requests_per_minute"`
	} `yaml:"debate"`
	Research struct {
		TavilyKey string `yaml:"tavily_key"`
	} `yaml:"research"`
	Moderator struct {
		// "template" or "llm"
		Mode       string `yaml:"mode"`
		Credential string `yaml:"credential,omitempty"`
	} `yaml:"moderator"`
	Voice struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint,omitempty"`
	} `yaml:"voice"`
	Storage struct {
		Path string `yaml:"path,omitempty"`
	} `yaml:"storage"`
}

// Load reads the config file, expanding environment variables in its values.
// A missing file yields a usable default built from the environment.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file at an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, nil
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// envAgents is the ordered credential fallback used when the config file
// declares no panel. Each env var that is set becomes one agent.
var envAgents = []struct {
	env       string
	name      string
	archetype string
}{
	{"GROQ_API_KEY", "Vega", "precision"},
	{"OPENAI_API_KEY", "Orion", "early-signal"},
	{"XAI_API_KEY", "Lyra", "constraint"},
	{"GEMINI_API_KEY", "Altair", "precision"},
}

func applyDefaults(cfg *Config) {
	if len(cfg.Agents) == 0 {
		for _, e := range envAgents {
			if key := os.Getenv(e.env); key != "" {
				cfg.Agents = append(cfg.Agents, AgentConfig{
					Name:       e.name,
					Credential: key,
					Archetype:  e.archetype,
				})
			}
		}
	}
	for i := range cfg.Agents {
		if cfg.Agents[i].Archetype == "" {
			cfg.Agents[i].Archetype = "precision"
		}
	}

	if cfg.Debate.Rounds == 0 {
		cfg.Debate.Rounds = 3
	}
	if cfg.Research.TavilyKey == "" {
		cfg.Research.TavilyKey = os.Getenv("TAVILY_API_KEY")
	}
	if cfg.Moderator.Mode == "" {
		cfg.Moderator.Mode = "template"
	}
	if cfg.Moderator.Mode == "llm" && cfg.Moderator.Credential == "" && len(cfg.Agents) > 0 {
		cfg.Moderator.Credential = cfg.Agents[0].Credential
	}
}

// Path returns the default config file location.
func Path() string {
	configDir, _ := os.UserConfigDir()
	if configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, "foresight", "config.yaml")
}
