package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDefaultsAreValid(t *testing.T) {
	assert.NoError(t, Validate(Builtin()))
}

func TestInitializeWithNoConfigDirReturnsBuiltinDefaults(t *testing.T) {
	cfg, err := Initialize(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 365, cfg.Retention.DefaultDays)
	assert.True(t, cfg.Security.DigitalSignatures)
}

func TestInitializeMergesUserYAMLOverBuiltinDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "retention:\n  default_days: 90\nsecurity:\n  digital_signatures: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trustmesh.yaml"), []byte(yamlContent), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Retention.DefaultDays)
	assert.False(t, cfg.Security.DigitalSignatures)
	// Untouched sections keep their built-in defaults.
	assert.Equal(t, 1000, cfg.Performance.BufferSize)
}

func TestInitializeWithMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 365, cfg.Retention.DefaultDays)
}

func TestInitializeRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trustmesh.yaml"), []byte("not: valid: yaml: ["), 0o644))
	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}

func TestInitializeRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trustmesh.yaml"), []byte("trust:\n  initial_score: 2.0\n"), 0o644))
	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}

func TestFlushIntervalConvertsMillisecondsToDuration(t *testing.T) {
	cfg := Builtin()
	assert.Equal(t, 30*time.Second, cfg.FlushInterval())
}

func TestCorrelationWindowConvertsMillisecondsToDuration(t *testing.T) {
	cfg := Builtin()
	assert.Equal(t, 5*time.Minute, cfg.CorrelationWindow())
}
