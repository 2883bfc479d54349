package model

import (
	"time"

	"warehouse-reservation-backend/internal/domain"
)

// TransportStatus is the stored lifecycle state of a transportation.
type TransportStatus string

const (
	TransportPlanned    TransportStatus = "PLANNED"
	TransportInProgress TransportStatus = "IN_PROGRESS"
	TransportCompleted  TransportStatus = "COMPLETED"
	TransportCancelled  TransportStatus = "CANCELLED"
)

// Holding reports whether the trip still reserves its vehicle and driver.
func (s TransportStatus) Holding() bool {
	return s == TransportPlanned || s == TransportInProgress
}

// Terminal reports whether no further transition is allowed.
func (s TransportStatus) Terminal() bool {
	return s == TransportCompleted || s == TransportCancelled
}

// ParseTransportStatus validates a status name.
func ParseTransportStatus(s string) (TransportStatus, bool) {
	switch st := TransportStatus(s); st {
	case TransportPlanned, TransportInProgress, TransportCompleted, TransportCancelled:
		return st, true
	}
	return "", false
}

// Transportation moves Quantity units of an item between storages with one vehicle and one driver.
type Transportation struct {
	ID                 string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ItemID             string          `gorm:"size:36;not null;index" json:"itemId"`
	VehicleID          string          `gorm:"size:36;not null;index:idx_transportations_vehicle_status" json:"vehicleId"`
	DriverID           string          `gorm:"size:36;not null;index:idx_transportations_driver_status" json:"driverId"`
	FromStorageID      string          `gorm:"size:36;not null" json:"fromStorageId"`
	ToStorageID        string          `gorm:"size:36;not null" json:"toStorageId"`
	Quantity           int             `gorm:"not null;default:1" json:"quantity"`
	ScheduledDeparture time.Time       `gorm:"not null" json:"scheduledDeparture"`
	ScheduledArrival   time.Time       `gorm:"not null" json:"scheduledArrival"`
	ActualDeparture    *time.Time      `json:"actualDeparture,omitempty"`
	ActualArrival      *time.Time      `json:"actualArrival,omitempty"`
	Status             TransportStatus `gorm:"size:16;not null;index:idx_transportations_vehicle_status;index:idx_transportations_driver_status" json:"status"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Window returns the scheduled interval.
func (t *Transportation) Window() domain.Window {
	return domain.Window{Start: t.ScheduledDeparture, End: t.ScheduledArrival}
}

// IsOverdue is true while the trip is in progress past its scheduled arrival.
func (t *Transportation) IsOverdue(now time.Time) bool {
	return t.Status == TransportInProgress && now.After(t.ScheduledArrival)
}
