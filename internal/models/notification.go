package models

import "time"

// Message types pushed over the realtime channel
const (
	NotificationPrize = "prize"
	NotificationClaim = "claim"
	NotificationError = "error"
)

// Notification is a message pushed to connected users
type Notification struct {
	Type     string       `json:"type"`
	PrizeID  int64        `json:"prize_id,omitempty"`
	ImageURL string       `json:"image_url,omitempty"`
	Claim    *ClaimResult `json:"claim,omitempty"`
	Message  string       `json:"message,omitempty"`
	SentAt   time.Time    `json:"sent_at"`
}

// ClientAction is a message sent by a connected user
type ClientAction struct {
	Action  string `json:"action"`
	PrizeID int64  `json:"prize_id"`
}
