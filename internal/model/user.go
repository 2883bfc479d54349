package model

import "time"

// User borrows items and drives vehicles.
type User struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username    string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"size:255;not null" json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
