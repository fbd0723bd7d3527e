package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.Workers)
	assert.Equal(t, time.Second, cfg.Server.ConnTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(`
server:
  address: 127.0.0.1
  port: 8080
  workers: 4
logging:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1", cfg.Server.Address)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.Workers)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)

	cfg.Server.Port = -1
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 9001
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg.Logging.Format = "console"
	cfg.Server.Workers = 0
	assert.Error(t, cfg.Validate())
}
