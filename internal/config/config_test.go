package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: test
database:
  driver: sqlite
storage:
  local_path: `+filepath.Join(t.TempDir(), "uploads")+`
jwt:
  secret: short
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 10, cfg.Catalog.DefaultLimit)
	assert.Equal(t, 100, cfg.Catalog.MaxLimit)
	assert.False(t, cfg.Catalog.RenumberOnDelete)
	assert.Equal(t, "/uploads", cfg.Storage.PublicPrefix)
	assert.DirExists(t, cfg.Storage.LocalPath)
}

func TestLoadConfigRejectsShortSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
database:
  driver: sqlite
storage:
  type: minio
jwt:
  secret: too-short
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is too short")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: oracle
storage:
  type: minio
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestLoadConfigCatalogSection(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
storage:
  type: minio
catalog:
  default_limit: 25
  max_limit: 5
  renumber_on_delete: true
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Catalog.DefaultLimit)
	assert.Equal(t, 25, cfg.Catalog.MaxLimit)
	assert.True(t, cfg.Catalog.RenumberOnDelete)
}
