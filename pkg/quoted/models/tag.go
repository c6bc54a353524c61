package models

import "time"

// Tag represents a label attached to a single quote. Tag names are
// unique per quote; tags have no lifecycle outside their owning quote.
type Tag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	QuoteID   uint      `gorm:"not null;index" json:"quote_id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
