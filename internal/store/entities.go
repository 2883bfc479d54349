package store

import (
	"context"
	"fmt"

	"warehouse-reservation-backend/internal/model"
)

func (s *gormStore) ItemExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, &model.Item{}, id)
}

func (s *gormStore) UserExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, &model.User{}, id)
}

func (s *gormStore) VehicleExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, &model.Vehicle{}, id)
}

func (s *gormStore) StorageExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, &model.Storage{}, id)
}

func (s *gormStore) CreateItem(ctx context.Context, item *model.Item) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item %s: %w", item.ID, err)
	}
	return nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

func (s *gormStore) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	if err := s.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return fmt.Errorf("failed to create vehicle %s: %w", vehicle.ID, err)
	}
	return nil
}

func (s *gormStore) CreateStorage(ctx context.Context, storage *model.Storage) error {
	if err := s.db.WithContext(ctx).Create(storage).Error; err != nil {
		return fmt.Errorf("failed to create storage %s: %w", storage.ID, err)
	}
	return nil
}
