package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Knowledge.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Nil(t, cfg.Upload.MaxFileSizeMB, "default is no size limit")
	assert.False(t, cfg.Drive.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satchel.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9000
upload:
  endpoint_url: https://api.example.com/upload
  max_file_size_mb: 25
  stt_language: en
  resource_url_base: https://api.example.com
knowledge:
  endpoint_url: https://api.example.com/knowledge
  cache_ttl: 5m
drive:
  enabled: true
  credentials_file: /etc/satchel/drive.json
user:
  role: admin
logging:
  level: debug
  format: text
metrics:
  enabled: true
  prometheus_port: 9100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	require.NotNil(t, cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 25.0, *cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, "en", cfg.Upload.SpeechToTextLanguage)
	assert.Equal(t, 5*time.Minute, cfg.Knowledge.CacheTTL)
	assert.True(t, cfg.Drive.Enabled)
	assert.Equal(t, "/etc/satchel/drive.json", cfg.Drive.Picker.CredentialsFile)
	assert.Equal(t, "admin", cfg.User.Role)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9100, cfg.Metrics.PrometheusPort)
	require.NoError(t, cfg.Validate())
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestNormalizeDropsNonPositiveSizeLimit(t *testing.T) {
	zero := 0.0
	cfg := Normalize(&Config{Upload: UploadConfig{MaxFileSizeMB: &zero}})
	assert.Nil(t, cfg.Upload.MaxFileSizeMB)

	negative := -3.0
	cfg = Normalize(&Config{Upload: UploadConfig{MaxFileSizeMB: &negative}})
	assert.Nil(t, cfg.Upload.MaxFileSizeMB)
}

func TestValidateRequiresEndpoints(t *testing.T) {
	cfg := Normalize(&Config{})
	require.Error(t, cfg.Validate())

	cfg.Upload.EndpointURL = "https://api.example.com/upload"
	require.Error(t, cfg.Validate())

	cfg.Knowledge.EndpointURL = "https://api.example.com/knowledge"
	require.NoError(t, cfg.Validate())
}
