package models

import (
	"time"
)

// WinRecord is the durable proof that a user won a prize. At most one exists
// per (UserID, PrizeID).
type WinRecord struct {
	ID      uint      `bson:"-" json:"-" gorm:"primaryKey"`
	UserID  int64     `bson:"userId" json:"userId" gorm:"not null;uniqueIndex:idx_wins_user_prize"`
	PrizeID int64     `bson:"prizeId" json:"prizeId" gorm:"not null;uniqueIndex:idx_wins_user_prize;index"`
	WonAt   time.Time `bson:"wonAt" json:"wonAt" gorm:"not null"`
}

// TableName keeps the relation name used by the other backends
func (WinRecord) TableName() string {
	return "wins"
}

// LeaderboardEntry is one row of the top winners table
type LeaderboardEntry struct {
	UserID   int64  `bson:"_id" json:"userId"`
	UserName string `bson:"userName" json:"userName"`
	Wins     int64  `bson:"wins" json:"wins"`
}
