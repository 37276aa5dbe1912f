// Package broker implements the match and presence core: it tracks which
// users are reachable, holds the pool of users waiting for a partner from
// the same school, and owns every active 1-on-1 chat session.
//
// All matching state lives in this package and in memory. PostgreSQL and
// Redis only mirror it for history and operational tooling; their failures
// never affect live matching.
package broker

import "errors"

// Caller-correctable errors returned by broker operations. None of them are
// fatal to the broker; invalid requests are rejected, never silently dropped.
var (
	ErrAlreadyInChat    = errors.New("already in a chat")
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrNotParticipant   = errors.New("user is not in this chat")
	ErrPartnerOffline   = errors.New("partner is offline")
	ErrAlreadyPaired    = errors.New("user already has an active session")
	ErrSessionNotActive = errors.New("chat session is not active")
)
