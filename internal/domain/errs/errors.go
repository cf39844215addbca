// Package errs holds the sentinel errors shared by every layer. Callers
// wrap them with fmt.Errorf and match with errors.Is; the HTTP layer maps
// each to a status code.
package errs

import "errors"

// Lookup and input errors.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// Errors returned by Application methods.
var (
	// ErrUnauthorized: foreign tenant or missing operator role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidOperation: the request contradicts the current state,
	// e.g. manual "disabled" on an enabled application or a duplicate appKey.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidState: scheduler input for an application that is not polled.
	ErrInvalidState = errors.New("invalid aggregate state")
)

// ErrUpstreamUnavailable means the configuration store or the token
// provider failed. The resource may still exist.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
