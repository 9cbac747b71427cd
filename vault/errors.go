// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package vault

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig is returned when the vault or secret coordinates are missing or malformed.
	ErrInvalidConfig = errors.New("invalid secret configuration")

	// ErrAuthentication is returned when no credential could be obtained or the vault rejected it.
	ErrAuthentication = errors.New("authentication failed")

	// ErrSecretNotFound is returned when the vault has no secret with the requested name or version.
	ErrSecretNotFound = errors.New("secret not found")
)

// Error attaches one of the package's error kinds to an underlying error.
// errors.Is matches the kind, and errors.Unwrap yields the underlying error.
type Error struct {
	Kind error
	Err  error
}

// NewError classifies err as kind. It returns nil if err is nil.
func NewError(kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}
