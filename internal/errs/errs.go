// Package errs contains the error taxonomy shared by the sync stores, the
// backend implementations and the HTTP layer, so callers can map failures to
// stable kinds instead of matching message strings.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service/store layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is not
	// visible to the current user.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthenticated indicates a mutation was attempted with no active
	// user session.
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrNoGroupSelected indicates a note mutation that needs a group scope
	// was attempted while the note store had none selected.
	ErrNoGroupSelected = errors.New("no group selected")
)

// AuthKind classifies authentication failures the way the identity provider
// reports them.
type AuthKind string

const (
	AuthInvalidEmail     AuthKind = "invalid-email"
	AuthWeakPassword     AuthKind = "weak-password"
	AuthEmailInUse       AuthKind = "email-in-use"
	AuthWrongCredentials AuthKind = "wrong-credentials"
	AuthUnknown          AuthKind = "unknown-auth-error"
)

// AuthError is returned by sign-in/sign-up/sign-out operations.
type AuthError struct {
	Kind AuthKind
	Msg  string
}

func (e *AuthError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("auth: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

func NewAuthError(kind AuthKind, msg string) *AuthError {
	return &AuthError{Kind: kind, Msg: msg}
}

// AuthKindOf extracts the AuthKind from err, or AuthUnknown if err is not an
// AuthError.
func AuthKindOf(err error) AuthKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return AuthUnknown
}

// BackendError wraps a subscription or write failure from the document
// backend, carrying the backend's own message.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func Backend(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}
