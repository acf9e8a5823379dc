package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/pipeargs/internal/app"
	"github.com/vk/pipeargs/internal/hcl_adapter"
	"github.com/vk/pipeargs/internal/resolve"
	"github.com/vk/pipeargs/internal/session"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Dir is the temporary root the files were written to.
	Dir       string
	LogOutput string
	Err       error
	App       *app.App
	Result    *resolve.Result
}

// WriteFiles writes files, keyed by slash-separated relative path, under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// RunPipelineTest writes the given files to a temporary directory, loads the
// pipeline declared under its "pipeline/" subdirectory and initializes it
// with args. Profiles are read from "profiles.toml" when present. Warnings
// are flushed into the captured log.
func RunPipelineTest(t *testing.T, files map[string]string, args []string, opts ...app.Option) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	WriteFiles(t, dir, files)
	// The working directory is where relative outdirs and workdirs land.
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	cfg := &app.Config{
		PipelinePaths: []string{filepath.Join(dir, "pipeline")},
		ConfigPaths:   []string{filepath.Join(dir, "profiles.toml")},
		LogLevel:      "debug",
		LogFormat:     "text",
	}
	logBuffer := &SafeBuffer{}
	opts = append([]app.Option{app.WithRegistry(&session.Registry{})}, opts...)
	testApp := app.NewApp(logBuffer, cfg, hcl_adapter.NewLoader(), opts...)
	t.Cleanup(testApp.Close)

	res, err := testApp.Init(context.Background(), args)
	testApp.FlushWarnings()

	if os.Getenv("PIPEARGS_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Dir:       dir,
		LogOutput: logBuffer.String(),
		Err:       err,
		App:       testApp,
		Result:    res,
	}
}
