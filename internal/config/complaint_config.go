package config

import "time"

const (
	// Input limits
	MaxNameLength     = 100
	MinPasswordLength = 6

	// Sessions
	DefaultSessionTTL     = 72 * time.Hour
	TokenIssuer           = "complaintdesk-service"
	RevokedTokenKeyPrefix = "revoked:"

	// Assignment
	DefaultFCFSMaxAttempts = 5

	// Live views
	ComplaintEventsChannel = "complaints:events"
	FeedEventBuffer        = 64
)
