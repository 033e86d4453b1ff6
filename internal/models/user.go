package models

import (
	"time"
)

// User represents a participant identified by the numeric id of the chat
// transport. Users are created on first contact and never updated afterwards.
type User struct {
	ID        int64     `bson:"_id" json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string    `bson:"name" json:"name" gorm:"size:255"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// EnsureResult reports whether Ensure created the user or found it already present
type EnsureResult int

const (
	UserCreated EnsureResult = iota + 1
	UserExisted
)

func (r EnsureResult) String() string {
	switch r {
	case UserCreated:
		return "created"
	case UserExisted:
		return "existed"
	default:
		return "unknown"
	}
}
