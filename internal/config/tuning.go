package config

import "time"

const (
	// Presence
	// A user counts as online while their last heartbeat is younger than this.
	// Purely time based: a client that vanishes without a word stays "online"
	// for up to the full window. That staleness is an accepted trade-off,
	// not something the broker tries to detect.
	PresenceWindow = 5 * time.Minute

	// Auth
	AccessTokenTTL = 72 * time.Hour
	TokenIssuer    = "schoolchat-service"

	// Bans
	DefaultBanDuration = 24 * time.Hour

	// HTTP server
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
)
