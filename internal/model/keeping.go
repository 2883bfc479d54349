package model

import "time"

// Keeping is the quantity of one item held at one storage.
// There is at most one row per (storage, item) pair.
type Keeping struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	StorageID string    `gorm:"size:36;not null;uniqueIndex:idx_keepings_storage_item" json:"storageId"`
	ItemID    string    `gorm:"size:36;not null;uniqueIndex:idx_keepings_storage_item;index" json:"itemId"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
