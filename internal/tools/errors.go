// Package tools provides the tool registry and execution framework.
//
// This file defines sentinel error types for tool execution.
package tools

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a tool call targets a name that is not
// in the registry. This is a capability mismatch, not a transient
// failure; callers should report it rather than retry.
type NotFoundError struct {
	ToolName string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.ToolName)
}

// IsNotFound reports whether err is a tool-not-found failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AccessDeniedError is returned when a file operation targets a path
// outside the allowed roots, or a command matches the deny list. The
// operation was rejected before touching the filesystem or spawning a
// process.
type AccessDeniedError struct {
	Reason string
}

// Error implements the error interface.
func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

// IsAccessDenied reports whether err is a safety-policy rejection.
func IsAccessDenied(err error) bool {
	var ad *AccessDeniedError
	return errors.As(err, &ad)
}
