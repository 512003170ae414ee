// Package config loads service configuration from a YAML file with
// environment-variable fallbacks.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Server
	Port int `yaml:"port"`

	// Groq API
	GroqAPIKey  string `yaml:"groq_api_key"`
	GroqBaseURL string `yaml:"groq_base_url"`
	Model       string `yaml:"model"`

	// Generation parameters
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// Gateway timeouts
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`

	// Session store limits
	MaxConversations           int `yaml:"max_conversations"`
	MaxMessagesPerConversation int `yaml:"max_messages_per_conversation"`
	EvictBatch                 int `yaml:"evict_batch"`
	TrimSlack                  int `yaml:"trim_slack"`
}

// Default returns the configuration with all defaults applied and the
// environment consulted for the API key and port.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// Load reads configuration from a YAML file. Missing fields fall back
// to environment variables and then to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.GroqBaseURL == "" {
		c.GroqBaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Model == "" {
		c.Model = "llama-3.3-70b-versatile"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 10 * time.Second
	}
	if c.MaxConversations == 0 {
		c.MaxConversations = 100
	}
	if c.MaxMessagesPerConversation == 0 {
		c.MaxMessagesPerConversation = 50
	}
	if c.EvictBatch == 0 {
		c.EvictBatch = 10
	}
	if c.TrimSlack == 0 {
		c.TrimSlack = 10
	}
}

func (c *Config) applyEnv() {
	if c.GroqAPIKey == "" {
		c.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("groq_api_key is required (set GROQ_API_KEY)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.TrimSlack >= c.MaxMessagesPerConversation {
		return fmt.Errorf("trim_slack must be smaller than max_messages_per_conversation")
	}
	return nil
}
