package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gingerrexayers/sha256-go/internal/sha256sum/lib"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/types"
)

const abcHash = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

type runOutput struct {
	exitCode int
	stdout   string
	stderr   string
}

// runCLI executes the command tree with a clean HOME and no SHA256SUM_*
// overrides, capturing both output streams.
func runCLI(t *testing.T, args ...string) runOutput {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{lib.EnvLogLevel, lib.EnvBufferSize, lib.EnvRateLimit, lib.EnvMetricsFile} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return runOutput{exitCode: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunHashesFile(t *testing.T) {
	path := writeFile(t, "abc.txt", "abc")

	out := runCLI(t, "-f", path)

	assert.Equal(t, 0, out.exitCode)
	assert.Equal(t, abcHash+" "+path+"\n", out.stdout)
	assert.Empty(t, out.stderr)
}

func TestRunLongFlagAndOptions(t *testing.T) {
	path := writeFile(t, "abc.txt", "abc")

	out := runCLI(t, "--file", path, "--buffer-size", "1", "--log-level", "error")

	assert.Equal(t, 0, out.exitCode)
	assert.Equal(t, abcHash+" "+path+"\n", out.stdout)
}

func TestRunUsagePaths(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "no flags", args: nil},
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "missing flag value", args: []string{"-f"}},
		{name: "stray positional argument", args: []string{"data.bin"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := runCLI(t, tc.args...)

			assert.Equal(t, 0, out.exitCode)
			assert.Contains(t, out.stdout, "Usage:")
			assert.Contains(t, out.stdout, "-f, --file")
		})
	}
}

func TestRunMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.bin")

	out := runCLI(t, "-f", path)

	assert.Equal(t, 1, out.exitCode)
	assert.Empty(t, out.stdout)
	assert.Contains(t, out.stderr, path+" does not exist")
}

func TestRunBadConfig(t *testing.T) {
	t.Run("missing explicit config", func(t *testing.T) {
		path := writeFile(t, "abc.txt", "abc")
		out := runCLI(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "-f", path)
		assert.Equal(t, 3, out.exitCode)
		assert.Empty(t, out.stdout)
	})

	t.Run("invalid flag value", func(t *testing.T) {
		path := writeFile(t, "abc.txt", "abc")
		out := runCLI(t, "--rate-limit", "-1", "-f", path)
		assert.Equal(t, 3, out.exitCode)
	})

	t.Run("oversized buffer", func(t *testing.T) {
		path := writeFile(t, "abc.txt", "abc")
		out := runCLI(t, "--buffer-size", "100000000000", "-f", path)
		assert.Equal(t, 3, out.exitCode)
		assert.Empty(t, out.stdout)
		assert.Contains(t, out.stderr, "buffer_size must not exceed")
	})
}

func TestRunWritesMetrics(t *testing.T) {
	path := writeFile(t, "abc.txt", "abc")
	metricsPath := filepath.Join(t.TempDir(), "sha256sum.prom")

	out := runCLI(t, "-f", path, "--metrics-file", metricsPath)
	require.Equal(t, 0, out.exitCode, out.stderr)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sha256sum_bytes_hashed_total 3")
}

func TestRunWritesMetricsOnFailure(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "sha256sum.prom")

	out := runCLI(t, "-f", filepath.Join(t.TempDir(), "nope.bin"), "--metrics-file", metricsPath)
	require.Equal(t, 1, out.exitCode)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err, "metrics file should be written even when hashing fails")
	assert.Contains(t, string(data), "sha256sum_bytes_hashed_total 0")
}

func TestRunChunks(t *testing.T) {
	path := writeFile(t, "abc.txt", "abc")

	t.Run("text", func(t *testing.T) {
		out := runCLI(t, "chunks", "-f", path)
		require.Equal(t, 0, out.exitCode, out.stderr)
		lines := strings.Split(strings.TrimSpace(out.stdout), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, abcHash+" 0 3", lines[0])
		assert.Equal(t, abcHash+" "+path, lines[1])
	})

	t.Run("json", func(t *testing.T) {
		out := runCLI(t, "chunks", "-f", path, "-o", "json")
		require.Equal(t, 0, out.exitCode, out.stderr)

		var m types.Manifest
		require.NoError(t, json.Unmarshal([]byte(out.stdout), &m))
		assert.Equal(t, abcHash, m.Hash)
		assert.EqualValues(t, 3, m.TotalSize)
	})

	t.Run("unknown output format shows usage", func(t *testing.T) {
		out := runCLI(t, "chunks", "-f", path, "-o", "xml")
		assert.Equal(t, 0, out.exitCode)
		assert.Contains(t, out.stdout, "Usage:")
		assert.Contains(t, out.stdout, "-o, --output")
		assert.Contains(t, out.stderr, `unknown output format "xml"`)
	})

	t.Run("without file shows usage", func(t *testing.T) {
		out := runCLI(t, "chunks")
		assert.Equal(t, 0, out.exitCode)
		assert.Contains(t, out.stdout, "Usage:")
	})
}

func TestRunVersion(t *testing.T) {
	out := runCLI(t, "version")

	assert.Equal(t, 0, out.exitCode)
	assert.True(t, strings.HasPrefix(out.stdout, "sha256sum dev\n"), out.stdout)
	assert.Contains(t, out.stdout, "commit: unknown")
}
