package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
provider:
  kind: anthropic
  api_key: test-key
  model: test-model
  max_tokens: 2048
agent:
  approval_mode: manual
  max_iterations: 5
  iteration_timeout: 90s
  blocked_tools: [execute_command]
tools:
  base_path: /workspace
metrics:
  file: /tmp/metrics.json
retry:
  max_attempts: 3
  initial_delay: 500ms
mcp_servers:
  - name: files
    command: mcp-files
    args: [--stdio]
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "anthropic", cfg.Provider.Kind)
		assert.Equal(t, "test-key", cfg.Provider.APIKey)
		assert.Equal(t, 2048, cfg.Provider.MaxTokens)
		assert.Equal(t, "manual", cfg.Agent.ApprovalMode)
		assert.Equal(t, []string{"execute_command"}, cfg.Agent.BlockedTools)
		assert.Equal(t, "/workspace", cfg.Tools.BasePath)
		assert.Equal(t, "/tmp/metrics.json", cfg.Metrics.File)
		require.Len(t, cfg.MCPServers, 1)
		assert.Equal(t, "files", cfg.MCPServers[0].Name)
	})

	t.Run("expands environment variables", func(t *testing.T) {
		t.Setenv("LOOM_TEST_KEY", "from-env")
		path := writeConfig(t, `
provider:
  kind: openai
  api_key: ${LOOM_TEST_KEY}
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Provider.APIKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "provider: [broken")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Provider: ProviderConfig{Kind: "anthropic"}}
	}

	t.Run("valid minimal config", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing provider kind", func(t *testing.T) {
		cfg := base()
		cfg.Provider.Kind = ""
		assert.ErrorContains(t, cfg.Validate(), "provider kind")
	})

	t.Run("unknown provider kind", func(t *testing.T) {
		cfg := base()
		cfg.Provider.Kind = "cohere"
		assert.ErrorContains(t, cfg.Validate(), "unknown provider kind")
	})

	t.Run("unknown approval mode", func(t *testing.T) {
		cfg := base()
		cfg.Agent.ApprovalMode = "yolo"
		assert.ErrorContains(t, cfg.Validate(), "approval mode")
	})

	t.Run("bad duration", func(t *testing.T) {
		cfg := base()
		cfg.Agent.IterationTimeout = "ten seconds"
		assert.ErrorContains(t, cfg.Validate(), "iteration_timeout")
	})

	t.Run("mcp server without command", func(t *testing.T) {
		cfg := base()
		cfg.MCPServers = []MCPConfig{{Name: "files"}}
		assert.ErrorContains(t, cfg.Validate(), "command is required")
	})
}

func TestAgentOptions(t *testing.T) {
	cfg := Config{
		Provider: ProviderConfig{Kind: "anthropic", Model: "test-model", MaxTokens: 1024},
		Agent: AgentConfig{
			ApprovalMode:     "auto",
			MaxIterations:    7,
			IterationTimeout: "45s",
		},
	}

	// Options apply without panicking; behaviour is covered by the
	// agent package tests.
	opts := cfg.AgentOptions()
	assert.Len(t, opts, 5)
}

func TestRetryConfig(t *testing.T) {
	cfg := Config{
		Provider: ProviderConfig{Kind: "openai"},
		Retry: RetryConfig{
			MaxAttempts:  2,
			InitialDelay: "250ms",
		},
	}

	rc := cfg.RetryConfig()
	assert.Equal(t, 2, rc.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, rc.InitialDelay)
	// Unset fields keep the package defaults.
	assert.Equal(t, 60*time.Second, rc.MaxDelay)
}
