package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/pipeargs/internal/session"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates an app with a private session registry and a
// captured debug log for system testing.
func SetupAppTest(t *testing.T, cfg *Config, loader Loader, opts ...Option) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	opts = append([]Option{WithRegistry(&session.Registry{})}, opts...)
	testApp := NewApp(logBuffer, cfg, loader, opts...)

	t.Cleanup(func() {
		testApp.Close()
		if os.Getenv("PIPEARGS_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
