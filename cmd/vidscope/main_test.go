package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpts_Defaults(t *testing.T) {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	_, err := parser.ParseArgs([]string{})
	require.NoError(t, err)

	assert.Equal(t, "config.yml", opts.Config)
	assert.False(t, opts.Debug)
}

func TestSetupLog(t *testing.T) {
	// both modes must not panic
	setupLog(false)
	setupLog(true, "secret-key")
}

func TestRun_BadConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: "/does/not/exist.yml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_StartsAndShutsDown(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	cfg := `
server:
  listen: "127.0.0.1:0"
database:
  dsn: "file:` + filepath.Join(dir, "test.db") + `?mode=rwc"
llm:
  endpoint: "http://127.0.0.1:9/v1"
  model: "gpt-4o-mini"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := run(ctx, Opts{Config: cfgPath})
	assert.NoError(t, err, "clean shutdown on context cancel")
}
