// Package common contains shared constants and sentinel errors used across
// the wallet authentication service.
package common

import "time"

// ChallengeByteLength is the amount of randomness behind every challenge token.
const ChallengeByteLength = 32

// PasswordByteLength is the amount of randomness behind every generated
// account password.
const PasswordByteLength = 16

// DefaultChallengeTTL is how long an issued challenge stays valid.
const DefaultChallengeTTL = 5 * time.Minute

// RequestIDHeaderName carries the request id on responses.
const RequestIDHeaderName = "X-Request-Id"
