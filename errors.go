package injector

import (
	"fmt"
	"strings"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeUnregisteredService indicates resolution of an id with no registration
	CodeUnregisteredService = "UNREGISTERED_SERVICE"

	// CodeNoActiveScope indicates a scoped service was resolved outside any scope
	CodeNoActiveScope = "NO_ACTIVE_SCOPE"

	// CodeDependencyCycle indicates a resolution chain revisited a service
	CodeDependencyCycle = "DEPENDENCY_CYCLE"

	// CodeScopeEnded indicates operation on an ended scope
	CodeScopeEnded = "SCOPE_ENDED"

	// CodeInvalidFactory indicates a factory is nil or has an unusable shape
	CodeInvalidFactory = "INVALID_FACTORY"

	// CodeTypeMismatch indicates a type mismatch during resolution or injection
	CodeTypeMismatch = "TYPE_MISMATCH"

	// CodeUnknownParam indicates a fixed parameter that no constructor input accepts
	CodeUnknownParam = "UNKNOWN_PARAM"

	// CodeContainerClosed indicates use of a container after Close
	CodeContainerClosed = "CONTAINER_CLOSED"
)

// Error is the coded error returned by the container.
// Two *Error values match under errors.Is when their codes are equal, so a
// constructed error can be checked against the package sentinels.
type Error struct {
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

// NewError creates a coded error.
func NewError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// WithContext returns a copy of e carrying an extra diagnostic key.
func (e *Error) WithContext(key string, value any) *Error {
	cp := *e
	cp.Context = make(map[string]any, len(e.Context)+1)

	for k, v := range e.Context {
		cp.Context[k] = v
	}

	cp.Context[key] = value

	return &cp
}

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrUnregisteredService is returned when an id has no registration.
var ErrUnregisteredService = NewError(CodeUnregisteredService, "service not registered", nil)

// ErrNoActiveScope is returned when a scoped service is resolved without a scope.
var ErrNoActiveScope = NewError(CodeNoActiveScope, "no active scope", nil)

// ErrDependencyCycle is returned when a resolution chain revisits a service.
var ErrDependencyCycle = NewError(CodeDependencyCycle, "dependency cycle", nil)

// ErrScopeEnded is returned when operations are attempted on an ended scope.
var ErrScopeEnded = NewError(CodeScopeEnded, "scope has ended", nil)

// ErrInvalidFactory is returned when a nil or malformed factory is registered.
var ErrInvalidFactory = NewError(CodeInvalidFactory, "invalid factory", nil)

// ErrTypeMismatch is returned when a value does not have the expected type.
var ErrTypeMismatch = NewError(CodeTypeMismatch, "type mismatch", nil)

// ErrUnknownParam is returned when a fixed parameter matches no constructor input.
var ErrUnknownParam = NewError(CodeUnknownParam, "unknown parameter", nil)

// ErrContainerClosed is returned when the container has been closed.
var ErrContainerClosed = NewError(CodeContainerClosed, "container is closed", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// UnregisteredServiceError creates an error for an id with no registration.
func UnregisteredServiceError(id ServiceID) *Error {
	return NewError(
		CodeUnregisteredService,
		fmt.Sprintf("service '%s' is not registered", id),
		nil,
	).WithContext("service", id)
}

// NoActiveScopeError creates an error for a scoped resolution outside a scope.
func NoActiveScopeError(id ServiceID) *Error {
	return NewError(
		CodeNoActiveScope,
		fmt.Sprintf("scoped service '%s' resolved with no active scope", id),
		nil,
	).WithContext("service", id)
}

// DependencyCycleError creates an error describing the offending chain.
// The path lists ids from the outermost request to the revisited id.
func DependencyCycleError(path []ServiceID) *Error {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = string(id)
	}

	return NewError(
		CodeDependencyCycle,
		fmt.Sprintf("dependency cycle detected: %s", strings.Join(parts, " -> ")),
		nil,
	).WithContext("cycle", path)
}

// DepthExceededError creates a cycle error for chains longer than the limit.
func DepthExceededError(id ServiceID, limit int) *Error {
	return NewError(
		CodeDependencyCycle,
		fmt.Sprintf("resolution of '%s' exceeded maximum depth %d", id, limit),
		nil,
	).WithContext("service", id).WithContext("max_depth", limit)
}

// ScopeEndedError creates an error for use of an ended scope.
func ScopeEndedError(scopeID string) *Error {
	return ErrScopeEnded.WithContext("scope", scopeID)
}

// InvalidFactoryError creates an error for a rejected registration.
func InvalidFactoryError(id ServiceID, reason string) *Error {
	return NewError(
		CodeInvalidFactory,
		fmt.Sprintf("invalid factory for '%s': %s", id, reason),
		nil,
	).WithContext("service", id)
}

// TypeMismatchError creates an error for a value of the wrong type.
func TypeMismatchError(id ServiceID, expected string, actual any) *Error {
	return NewError(
		CodeTypeMismatch,
		fmt.Sprintf("service '%s' type mismatch: expected %s, got %T", id, expected, actual),
		nil,
	).WithContext("service", id).
		WithContext("actual_type", fmt.Sprintf("%T", actual))
}

// UnknownParamError creates an error for a fixed parameter nothing accepts.
func UnknownParamError(id ServiceID, name string) *Error {
	return NewError(
		CodeUnknownParam,
		fmt.Sprintf("service '%s' has fixed parameter '%s' with no matching input", id, name),
		nil,
	).WithContext("service", id).WithContext("param", name)
}
