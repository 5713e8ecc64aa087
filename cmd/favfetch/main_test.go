package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favfetch/internal/config"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

// isolate clears every variable that could leak real settings into a test.
func isolate(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		config.ConfigPathEnvVar,
		config.EnvIGDBClientID,
		config.EnvIGDBClientSecret,
		config.EnvListenNotesAPIKey,
		config.EnvTMDBAPIKey,
	} {
		t.Setenv(name, "")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "configs", "favfetch.yaml")

	code, stdout, _ := execute(t, "config", "init", path)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "wrote "+path)

	code, _, stderr := execute(t, "config", "init", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, stdout, _ = execute(t, "--config", path, "--env-file", "", "config", "validate")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Sources: 6")
}

func TestMissingCredentialsExitNonZero(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "games.json")
	output := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"name":"Hades"}]`), 0o644))

	code, _, stderr := execute(t, "--env-file", filepath.Join(dir, "missing.env"), "--log-format", "json",
		"games", "--input", input, "--output", output)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, config.EnvIGDBClientID)

	_, err := os.Stat(output)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInvalidLogLevel(t *testing.T) {
	isolate(t)

	code, _, stderr := execute(t, "--env-file", "", "--log-level", "loud", "config", "validate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "logging.level")
}

func TestExtractPodcasts(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "library.json")
	output := filepath.Join(dir, "myFavPodcasts.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"items":[{"name":"Show","type":"podcast"}]}`), 0o644))

	code, stdout, _ := execute(t, "--env-file", "", "extract-podcasts", "--input", input, "--output", output)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "extracted 1 unique podcasts")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Show"}]`, string(data))
}

func TestExtractPodcastsMaxDepthZero(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "library.json")
	output := filepath.Join(dir, "myFavPodcasts.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"items":[{"name":"Show","type":"podcast"}]}`), 0o644))

	code, stdout, _ := execute(t, "--env-file", "", "extract-podcasts", "--input", input, "--output", output, "--max-depth", "0")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "extracted 0 unique podcasts")
}

func TestTMDBPopularRejectsKind(t *testing.T) {
	isolate(t)

	code, _, stderr := execute(t, "tmdb", "popular", "--kind", "anime")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--kind")
}

func TestUnknownCommand(t *testing.T) {
	code, _, _ := execute(t, "comics")
	assert.Equal(t, 1, code)
}
