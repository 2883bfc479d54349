package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

// TransportFilter narrows ListTransportations. Zero fields match everything.
type TransportFilter struct {
	ItemID    string
	VehicleID string
	DriverID  string
	Status    model.TransportStatus
	// OverdueAt selects in-progress trips scheduled to arrive before it.
	OverdueAt time.Time
	Limit     int
	Offset    int
}

func (s *gormStore) CreateTransportation(ctx context.Context, t *model.Transportation) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transportation: %w", mapError(err))
	}
	return nil
}

func (s *gormStore) GetTransportation(ctx context.Context, id string, forUpdate bool) (*model.Transportation, error) {
	q := s.db.WithContext(ctx)
	if forUpdate && s.postgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var t model.Transportation
	err := q.Where("id = ?", id).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("transportation", id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (s *gormStore) SaveTransportation(ctx context.Context, t *model.Transportation) error {
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("failed to save transportation %s: %w", t.ID, mapError(err))
	}
	return nil
}

// HoldingTrips returns planned or in-progress trips using the vehicle or the driver.
func (s *gormStore) HoldingTrips(ctx context.Context, vehicleID, driverID string) ([]model.Transportation, error) {
	var out []model.Transportation
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.TransportStatus{model.TransportPlanned, model.TransportInProgress}).
		Where("(vehicle_id = ? OR driver_id = ?)", vehicleID, driverID).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trips for vehicle %s / driver %s: %w", vehicleID, driverID, mapError(err))
	}
	return out, nil
}

// OutboundTrips returns planned or in-progress trips carrying the item out of the storage.
func (s *gormStore) OutboundTrips(ctx context.Context, storageID, itemID string) ([]model.Transportation, error) {
	var out []model.Transportation
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.TransportStatus{model.TransportPlanned, model.TransportInProgress}).
		Where("from_storage_id = ? AND item_id = ?", storageID, itemID).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load outbound trips for item %s at storage %s: %w", itemID, storageID, mapError(err))
	}
	return out, nil
}

func (s *gormStore) ListTransportations(ctx context.Context, f TransportFilter) ([]model.Transportation, error) {
	q := s.db.WithContext(ctx).Model(&model.Transportation{})
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}
	if f.VehicleID != "" {
		q = q.Where("vehicle_id = ?", f.VehicleID)
	}
	if f.DriverID != "" {
		q = q.Where("driver_id = ?", f.DriverID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.OverdueAt.IsZero() {
		q = q.Where("status = ? AND scheduled_arrival < ?", model.TransportInProgress, f.OverdueAt)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []model.Transportation
	if err := q.Order("scheduled_departure, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list transportations: %w", mapError(err))
	}
	return out, nil
}
