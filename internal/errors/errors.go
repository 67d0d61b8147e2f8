// Package errors provides custom error types for the complaint desk.
//
// Date handling never produces these: unparseable and malformed dates are
// sentinel return values inside the dates package. These types cover the
// outer surfaces (store, import, login, rendering) where the caller needs to
// know what went wrong to decide what to tell the user.
package errors

import (
	stderrors "errors"
	"fmt"
)

// StoreError wraps a failed read or write of the record store.
//
// This error is returned when:
//   - The store file cannot be read or replaced
//   - Stored bytes are not a complaint collection
//
// Recovery strategy: Report and stop; in-memory state is left as it was
type StoreError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error with context
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// NotFoundError indicates that no record has the requested ID.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("complaint %q not found", e.ID)
}

// NewNotFoundError creates a new not found error for a record ID
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// ImportError indicates that a bulk import file could not be read.
//
// Individual bad rows are skipped, not reported; this error means the
// whole sheet was unusable.
type ImportError struct {
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("import failed: %s", e.Message)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates a new import error with context
func NewImportError(msg string, err error) *ImportError {
	return &ImportError{Message: msg, Err: err}
}

// AuthFailedError indicates a rejected login.
//
// This error is returned when:
//   - The login ID is unknown
//   - The staff member is inactive
//   - The PIN does not match
type AuthFailedError struct {
	LoginID string
	Message string
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("login %q failed: %s", e.LoginID, e.Message)
}

// NewAuthFailedError creates a new login failure error
func NewAuthFailedError(loginID, msg string) *AuthFailedError {
	return &AuthFailedError{LoginID: loginID, Message: msg}
}

// PermissionError indicates a logged-in user tried something their role
// does not allow.
type PermissionError struct {
	User   string
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s is not allowed to %s", e.User, e.Action)
}

// NewPermissionError creates a new permission error
func NewPermissionError(user, action string) *PermissionError {
	return &PermissionError{User: user, Action: action}
}

// RenderError wraps failures producing a manifest or activity board.
type RenderError struct {
	Target string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Target, e.Err)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a new render error with context
func NewRenderError(target string, err error) *RenderError {
	return &RenderError{Target: target, Err: err}
}

// IsNotFound checks if the error is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

// IsAuthFailed checks if the error is or wraps an AuthFailedError
func IsAuthFailed(err error) bool {
	var target *AuthFailedError
	return stderrors.As(err, &target)
}

// IsPermission checks if the error is or wraps a PermissionError
func IsPermission(err error) bool {
	var target *PermissionError
	return stderrors.As(err, &target)
}

// IsStore checks if the error is or wraps a StoreError
func IsStore(err error) bool {
	var target *StoreError
	return stderrors.As(err, &target)
}
