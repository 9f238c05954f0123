// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Verification-phase errors. These never cause side effects.
	ErrMalformedBundle  = errors.New("malformed proof bundle")
	ErrChallengeInvalid = errors.New("challenge invalid")
	ErrSignatureInvalid = errors.New("signature invalid")

	// Mutation-phase errors.
	ErrAccountCreationFailed = errors.New("failed to create account")
	ErrRecordWriteFailed     = errors.New("failed to write identity record")
	ErrRecordMissingOnSignIn = errors.New("no identity record found")

	// Account service errors.
	ErrDuplicateUsername = errors.New("username already taken")

	// Infrastructure errors (cache, database, network).
	ErrUnavailable = errors.New("dependency unavailable")
)
