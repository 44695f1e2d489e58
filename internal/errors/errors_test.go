package errors

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError_IsFatal(t *testing.T) {
	err := ConfigErrorf("agents config is missing key %q", "rails_architect")

	assert.Equal(t, ErrorTypeConfig, err.Type)
	assert.Equal(t, SeverityCritical, err.Severity)
	assert.True(t, err.IsFatal())
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "rails_architect")
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeExternal, SeverityHigh, "ignored"))
}

func TestWrap_UnwrapsCause(t *testing.T) {
	err := FileSystemError(os.ErrPermission, "create output directory")

	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, "create output directory: permission denied", err.Error())
}

func TestIsType_ThroughFmtWrapping(t *testing.T) {
	inner := ValidationError("missing input \"feature_name\"")
	outer := fmt.Errorf("kickoff: %w", inner)

	assert.True(t, IsType(outer, ErrorTypeValidation))
	assert.False(t, IsType(outer, ErrorTypeConfig))
	assert.Equal(t, ErrorTypeValidation, GetType(outer))
	assert.Equal(t, SeverityHigh, GetSeverity(outer))
}

func TestGetType_PlainError(t *testing.T) {
	plain := fmt.Errorf("boom")

	assert.Equal(t, ErrorTypeInternal, GetType(plain))
	assert.Equal(t, SeverityMedium, GetSeverity(plain))
	assert.Equal(t, SeverityLow, GetSeverity(nil))
	assert.False(t, IsFatal(plain))
}

func TestDetailedString_SortsContext(t *testing.T) {
	err := ExternalErrorf(fmt.Errorf("429 too many requests"), "task %s failed", "frontend_task").
		WithContext("task", "frontend_task").
		WithContext("agent", "frontend_developer")

	detail := err.DetailedString()
	require.Contains(t, detail, "[HIGH] [EXTERNAL] task frontend_task failed")
	assert.Contains(t, detail, "Caused by: 429 too many requests")

	agentIdx := indexOf(detail, "agent: frontend_developer")
	taskIdx := indexOf(detail, "task: frontend_task")
	require.NotEqual(t, -1, agentIdx)
	require.NotEqual(t, -1, taskIdx)
	assert.Less(t, agentIdx, taskIdx)
}

func TestTypeAndSeverityNames(t *testing.T) {
	assert.Equal(t, "STORAGE", ErrorTypeStorage.String())
	assert.Equal(t, "UNKNOWN", ErrorType(99).String())
	assert.Equal(t, "CRITICAL", SeverityCritical.String())
	assert.Equal(t, "UNKNOWN", Severity(-1).String())
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
