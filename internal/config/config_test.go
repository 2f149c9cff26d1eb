package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveasm/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LIVEASM_COMPILER", "LIVEASM_EXTRA_ARGS", "LIVEASM_SYNTAX", "LIVEASM_OPT",
		"LIVEASM_DIALECT", "LIVEASM_ADDR", "LIVEASM_DEBOUNCE_MS", "LIVEASM_CACHE_SIZE",
		"LIVEASM_HIDE_DIRECTIVES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg := config.Load()

	assert.Equal(t, "gcc", cfg.Compiler)
	assert.Equal(t, "intel", cfg.Syntax)
	assert.Equal(t, "O0", cfg.Opt)
	assert.Equal(t, "auto", cfg.Dialect)
	assert.True(t, cfg.Hide)
	assert.Equal(t, "127.0.0.1:8088", cfg.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 64, cfg.CacheSize)
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("LIVEASM_COMPILER", "clang")
	t.Setenv("LIVEASM_ADDR", "9000")
	t.Setenv("LIVEASM_DEBOUNCE_MS", "250")
	t.Setenv("LIVEASM_CACHE_SIZE", "-1")
	t.Setenv("LIVEASM_HIDE_DIRECTIVES", "false")

	cfg := config.Load()

	assert.Equal(t, "clang", cfg.Compiler)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.False(t, cfg.Hide)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("LIVEASM_EXTRA_ARGS")
	os.Unsetenv("LIVEASM_OPT")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LIVEASM_EXTRA_ARGS=-std=c17\nLIVEASM_OPT=O2\n"), 0644))
	t.Chdir(dir)
	t.Cleanup(func() {
		os.Unsetenv("LIVEASM_EXTRA_ARGS")
		os.Unsetenv("LIVEASM_OPT")
	})

	cfg := config.Load()

	assert.Equal(t, "-std=c17", cfg.ExtraArgs)
	assert.Equal(t, "O2", cfg.Opt)
}
