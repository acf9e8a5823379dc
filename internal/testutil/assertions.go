package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertWarnedOnce checks that the log output holds exactly one warning
// containing substr.
func AssertWarnedOnce(t *testing.T, result *HarnessResult, substr string) {
	t.Helper()

	count := 0
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "level=WARN") && strings.Contains(line, substr) {
			count++
		}
	}
	require.Equal(t, 1, count, "expected exactly one warning containing %q in logs:\n%s", substr, result.LogOutput)
}
