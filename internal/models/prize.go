package models

import "time"

// Prize is a distributable image. Used marks manual (or auto) retirement from
// broadcasting; it does not by itself stop claims.
type Prize struct {
	ID          int64     `bson:"_id" json:"id" gorm:"primaryKey"`
	Image       string    `bson:"image" json:"image" gorm:"size:512;index"`
	Used        bool      `bson:"used" json:"used" gorm:"index"`
	WinnerCount int       `bson:"winnerCount" json:"winnerCount"`
	WinnerIDs   []int64   `bson:"winnerIds" json:"-" gorm:"-"` // mongodb only
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// StockStatus summarises the prize pool
type StockStatus struct {
	Total     int   `json:"total"`
	Unused    int64 `json:"unused"`
	Connected int   `json:"connected,omitempty"`
}
