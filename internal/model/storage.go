package model

import "time"

// Storage is a location that keeps items.
type Storage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Address   string    `gorm:"size:256" json:"address,omitempty"`
	Capacity  int       `gorm:"not null;default:0" json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
