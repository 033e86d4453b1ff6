package models

// RecordResult is the outcome of recording a win for a (user, prize) pair
type RecordResult int

const (
	WinAccepted RecordResult = iota + 1
	WinAlreadyWon
)

// ClaimOutcome is the arbiter's decision for a claim attempt
type ClaimOutcome string

const (
	ClaimAccepted  ClaimOutcome = "accepted"
	ClaimClosedOut ClaimOutcome = "closed_out"
	ClaimDuplicate ClaimOutcome = "duplicate"
)

// ClaimResult is returned to the transport layer. Image is set only when the
// claim was accepted.
type ClaimResult struct {
	Outcome ClaimOutcome `json:"outcome"`
	PrizeID int64        `json:"prizeId"`
	Image   string       `json:"image,omitempty"`
	Retired bool         `json:"retired,omitempty"`
}
