package model

import "time"

// VehicleStatus is a cached hint for listings. Availability is always computed
// from transportation overlap, never from this column.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleInUse       VehicleStatus = "IN_USE"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
)

// Vehicle moves items between storages.
type Vehicle struct {
	ID           string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	LicensePlate string        `gorm:"size:32;uniqueIndex;not null" json:"licensePlate"`
	Model        string        `gorm:"size:64" json:"model,omitempty"`
	Capacity     int           `gorm:"not null;default:0" json:"capacity"`
	Status       VehicleStatus `gorm:"size:16;not null;default:'AVAILABLE'" json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
