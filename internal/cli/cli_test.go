package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipeargs/internal/argparse"
	"github.com/vk/pipeargs/internal/pipeline"
)

func writePipeline(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	hcl := fmt.Sprintf(`
pipeline "demo" {
  config = { workdir = %q }
}

process "P" {
  input = ["a"]
}
`, filepath.Join(dir, "work"))
	path := filepath.Join(dir, "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(hcl), 0o644))
	return path
}

func TestExitError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantNil  bool
		wantCode int
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "help is not an error", err: fmt.Errorf("parse: %w", argparse.ErrHelp), wantNil: true},
		{name: "usage", err: fmt.Errorf("x: %w", argparse.ErrUsage), wantCode: 2},
		{name: "invalid settings", err: fmt.Errorf("x: %w", pipeline.ErrInvalidSettings), wantCode: 2},
		{name: "other", err: errors.New("disk full"), wantCode: 1},
		{name: "already mapped", err: &ExitError{Code: 3, Message: "m"}, wantCode: 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := exitError(tc.err)
			if tc.wantNil {
				assert.NoError(t, got)
				return
			}
			var exitErr *ExitError
			require.ErrorAs(t, got, &exitErr)
			assert.Equal(t, tc.wantCode, exitErr.Code)
		})
	}
}

func TestExecute_Run(t *testing.T) {
	// --- Arrange ---
	path := writePipeline(t)
	outdir := filepath.Join(t.TempDir(), "out")
	var out bytes.Buffer

	// --- Act ---
	err := Execute(context.Background(), []string{
		"--log-format", "text", "--config", "none.toml", "--dump",
		"run", path, "--in.a", "x", "y", "--outdir", outdir,
	}, &out)

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Pipeline configured.")
	assert.Contains(t, out.String(), "jobs=2")
	assert.FileExists(t, filepath.Join(outdir, "args.toml"))
}

func TestExecute_PipelineHelp(t *testing.T) {
	var out bytes.Buffer

	err := Execute(context.Background(), []string{"run", writePipeline(t), "-h"}, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage: demo")
	assert.Contains(t, out.String(), "--in.a")
}

func TestExecute_Schema(t *testing.T) {
	var out bytes.Buffer

	err := Execute(context.Background(), []string{"schema", writePipeline(t)}, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "--loglevel")
}

func TestExecute_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		args     func(t *testing.T) []string
		wantCode int
	}{
		{
			name:     "unknown pipeline option",
			args:     func(t *testing.T) []string { return []string{"run", writePipeline(t), "--nope", "1"} },
			wantCode: 2,
		},
		{
			name:     "invalid setting",
			args:     func(t *testing.T) []string { return []string{"run", writePipeline(t), "--forks", "0"} },
			wantCode: 2,
		},
		{
			name:     "missing pipeline path",
			args:     func(t *testing.T) []string { return []string{"run"} },
			wantCode: 2,
		},
		{
			name:     "bad log format",
			args:     func(t *testing.T) []string { return []string{"--log-format", "xml", "run", writePipeline(t)} },
			wantCode: 2,
		},
		{
			name:     "pipeline cannot load",
			args:     func(t *testing.T) []string { return []string{"run", filepath.Join(t.TempDir(), "nothing")} },
			wantCode: 1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer

			err := Execute(context.Background(), tc.args(t), &out)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tc.wantCode, exitErr.Code, exitErr.Message)
		})
	}
}
