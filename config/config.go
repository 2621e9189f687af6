// Package config loads agent configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loomlabs/loom/agent"
	"github.com/loomlabs/loom/retry"
)

// Config is the top-level configuration.
type Config struct {
	Provider   ProviderConfig `yaml:"provider"`
	Agent      AgentConfig    `yaml:"agent"`
	Tools      ToolsConfig    `yaml:"tools"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Retry      RetryConfig    `yaml:"retry"`
	MCPServers []MCPConfig    `yaml:"mcp_servers"`
}

// ProviderConfig describes the completion backend.
type ProviderConfig struct {
	Kind      string `yaml:"kind"` // "anthropic" or "openai"
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// AgentConfig holds loop behaviour settings.
type AgentConfig struct {
	ApprovalMode     string   `yaml:"approval_mode"` // "auto", "manual", or "disabled"
	MaxIterations    int      `yaml:"max_iterations"`
	IterationTimeout string   `yaml:"iteration_timeout"` // duration string, e.g. "300s"
	AllowedTools     []string `yaml:"allowed_tools"`
	BlockedTools     []string `yaml:"blocked_tools"`
	EnableTools      *bool    `yaml:"enable_tools"`
}

// ToolsConfig holds settings for the built-in tools.
type ToolsConfig struct {
	BasePath     string   `yaml:"base_path"`
	MaxFileSize  int64    `yaml:"max_file_size"`
	Shell        string   `yaml:"shell"`
	WorkDir      string   `yaml:"work_dir"`
	AllowedHosts []string `yaml:"allowed_hosts"`
	BlockedHosts []string `yaml:"blocked_hosts"`
}

// MetricsConfig holds tool metrics persistence settings.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// RetryConfig holds completion retry settings.
type RetryConfig struct {
	MaxAttempts  int    `yaml:"max_attempts"`
	InitialDelay string `yaml:"initial_delay"` // duration string
	MaxDelay     string `yaml:"max_delay"`     // duration string
}

// MCPConfig describes an MCP server whose tools join the registry.
type MCPConfig struct {
	Name      string   `yaml:"name"`
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args"`
	Dangerous bool     `yaml:"dangerous"` // mark all of this server's tools dangerous
}

// Load reads a YAML file and returns a validated Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are
// expanded before parsing, so API keys can live in the environment
// rather than the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.Provider.Kind {
	case "anthropic", "openai":
	case "":
		return fmt.Errorf("config: provider kind is required")
	default:
		return fmt.Errorf("config: unknown provider kind %q", c.Provider.Kind)
	}

	switch c.Agent.ApprovalMode {
	case "", "auto", "manual", "disabled":
	default:
		return fmt.Errorf("config: unknown approval mode %q", c.Agent.ApprovalMode)
	}

	if c.Agent.MaxIterations < 0 {
		return fmt.Errorf("config: max_iterations must not be negative")
	}
	if _, err := parseDuration(c.Agent.IterationTimeout); err != nil {
		return fmt.Errorf("config: iteration_timeout: %w", err)
	}
	if _, err := parseDuration(c.Retry.InitialDelay); err != nil {
		return fmt.Errorf("config: retry initial_delay: %w", err)
	}
	if _, err := parseDuration(c.Retry.MaxDelay); err != nil {
		return fmt.Errorf("config: retry max_delay: %w", err)
	}

	for _, m := range c.MCPServers {
		if m.Name == "" {
			return fmt.Errorf("config: mcp server name is required")
		}
		if m.Command == "" {
			return fmt.Errorf("config: mcp server %q: command is required", m.Name)
		}
	}

	return nil
}

// AgentOptions converts the agent section into agent constructor options.
func (c Config) AgentOptions() []agent.Option {
	var opts []agent.Option

	if c.Agent.ApprovalMode != "" {
		opts = append(opts, agent.WithApprovalMode(agent.ApprovalMode(c.Agent.ApprovalMode)))
	}
	if c.Agent.MaxIterations > 0 {
		opts = append(opts, agent.WithMaxIterations(c.Agent.MaxIterations))
	}
	if d, err := parseDuration(c.Agent.IterationTimeout); err == nil && d > 0 {
		opts = append(opts, agent.WithIterationTimeout(d))
	}
	if len(c.Agent.AllowedTools) > 0 {
		opts = append(opts, agent.WithAllowedTools(c.Agent.AllowedTools...))
	}
	if len(c.Agent.BlockedTools) > 0 {
		opts = append(opts, agent.WithBlockedTools(c.Agent.BlockedTools...))
	}
	if c.Agent.EnableTools != nil {
		opts = append(opts, agent.WithToolsEnabled(*c.Agent.EnableTools))
	}
	if c.Provider.Model != "" {
		opts = append(opts, agent.WithModel(c.Provider.Model))
	}
	if c.Provider.MaxTokens > 0 {
		opts = append(opts, agent.WithMaxTokens(c.Provider.MaxTokens))
	}

	return opts
}

// RetryConfig converts the retry section into a retry configuration,
// starting from the package defaults.
func (c Config) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	if c.Retry.MaxAttempts > 0 {
		cfg.MaxAttempts = c.Retry.MaxAttempts
	}
	if d, err := parseDuration(c.Retry.InitialDelay); err == nil && d > 0 {
		cfg.InitialDelay = d
	}
	if d, err := parseDuration(c.Retry.MaxDelay); err == nil && d > 0 {
		cfg.MaxDelay = d
	}
	return cfg
}

// parseDuration parses a duration string, treating empty as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
