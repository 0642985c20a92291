package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 200*time.Millisecond, cfg.Unreliable.MinLatency)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "talentflow.yaml", `
database: /tmp/tf.db
current_user: Recruiter Rita
page_size: 25
unreliable:
  enabled: true
  failure_rate: 0.5
  min_latency: 10ms
  max_latency: 50ms
  seed: 42
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tf.db", cfg.Database)
	assert.Equal(t, "Recruiter Rita", cfg.CurrentUser)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.Unreliable.Enabled)
	assert.Equal(t, 0.5, cfg.Unreliable.FailureRate)
	assert.Equal(t, 10*time.Millisecond, cfg.Unreliable.MinLatency)
	assert.Equal(t, 50*time.Millisecond, cfg.Unreliable.MaxLatency)
	assert.Len(t, cfg.Unreliable.ProviderOptions(), 3)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "c.yaml", "page_size: 5\n")
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, "talentflow.db", cfg.Database)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	envFile := writeFile(t, ".env", "TALENTFLOW_DB=from-dotenv.db\nTALENTFLOW_USER=Dot Env\n")
	t.Setenv(EnvUser, "Process Env")
	t.Setenv(EnvFailureRate, "0.25")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.Database)
	assert.Equal(t, "Process Env", cfg.CurrentUser, "process env beats .env")
	assert.Equal(t, 0.25, cfg.Unreliable.FailureRate)
	assert.True(t, cfg.Unreliable.Enabled)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "databse: x.db\n", "databse"},
		{"page size zero", "page_size: 0\n", "invalid config"},
		{"failure rate above one", "unreliable:\n  failure_rate: 1.5\n", "invalid config"},
		{"latency range inverted", "unreliable:\n  min_latency: 2s\n  max_latency: 1s\n", "invalid config"},
		{"empty user", "current_user: \"\"\n", "invalid config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_BadEnvFailureRate(t *testing.T) {
	t.Setenv(EnvFailureRate, "lots")
	_, err := Load("", "")
	assert.ErrorContains(t, err, EnvFailureRate)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}
