package models

import "time"

// Quote represents a stored quote with its attribution.
// Quotes are hard-deleted so that tag cleanup is a real cascade.
type Quote struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Quote     string    `gorm:"not null" json:"quote"`
	Source    string    `gorm:"not null" json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Tags []Tag `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
}
