package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadPassword_PipedInput(t *testing.T) {
	var prompt bytes.Buffer

	got, err := readPassword(strings.NewReader("s3cret\r\nignored\n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	got, err = readPassword(strings.NewReader("no-newline"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)
}

func TestReadPassword_RegularFileIsNotATerminal(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pw.txt", "from-file\n")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := readPassword(f, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestSavePassword_NeedsPostgres(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.Type = config.SourceFile

	err := savePassword(cfg, strings.NewReader("pw\n"), &bytes.Buffer{})
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestLazygrid_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, lazygrid([]string{"--no-such-flag"}, strings.NewReader(""), &stdout, &stderr))
}

func TestLazygrid_ErrorIsLoggedAndReturned(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "lazygrid.log")
	cfgPath := writeFile(t, dir, "config.yaml", "source:\n  type: mongo\nlog:\n  file: "+logPath+"\n")

	var stdout, stderr bytes.Buffer
	code := lazygrid([]string{"--config", cfgPath, "--print"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown source type")

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "Invalid configuration")
}

func TestLazygrid_Print(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeFile(t, dir, "org.json", `[
		{"id": 1, "name": "Sales"},
		{"id": 2, "parentId": 1, "name": "Alice"}
	]`)
	cfgPath := writeFile(t, dir, "config.yaml", "state:\n  enabled: false\nlog:\n  file: "+filepath.Join(dir, "log.txt")+"\n")

	var stdout, stderr bytes.Buffer
	code := lazygrid([]string{
		"--config", cfgPath,
		"--print",
		"--path", dataPath,
		"--primary-key", "id",
		"--foreign-key", "parentId",
	}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Sales")
	assert.Contains(t, stdout.String(), "Alice")
}
