package injector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesCode(t *testing.T) {
	err := UnregisteredServiceError("db")

	assert.ErrorIs(t, err, ErrUnregisteredService)
	assert.NotErrorIs(t, err, ErrNoActiveScope)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), ErrUnregisteredService)
}

func TestError_Message(t *testing.T) {
	err := NewError(CodeInvalidFactory, "bad", errors.New("root cause"))

	assert.Equal(t, "[INVALID_FACTORY] bad: root cause", err.Error())
	assert.Equal(t, "[SCOPE_ENDED] scope has ended", ErrScopeEnded.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError(CodeTypeMismatch, "bad", cause)

	assert.ErrorIs(t, err, cause)
}

func TestError_WithContextCopies(t *testing.T) {
	base := NewError(CodeUnknownParam, "x", nil).WithContext("a", 1)
	derived := base.WithContext("b", 2)

	assert.Len(t, base.Context, 1)
	assert.Len(t, derived.Context, 2)

	ended := ScopeEndedError("s1")
	assert.Equal(t, "s1", ended.Context["scope"])
	assert.Nil(t, ErrScopeEnded.Context, "sentinels stay untouched")
}

func TestDependencyCycleError(t *testing.T) {
	err := DependencyCycleError([]ServiceID{"a", "b", "a"})

	assert.ErrorIs(t, err, ErrDependencyCycle)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestDepthExceededError(t *testing.T) {
	err := DepthExceededError("deep", 8)

	assert.ErrorIs(t, err, ErrDependencyCycle)
	assert.Equal(t, 8, err.Context["max_depth"])
}
