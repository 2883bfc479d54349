package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

// TotalStock sums the item's quantity across every storage.
func (s *gormStore) TotalStock(ctx context.Context, itemID string) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Keeping{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("item_id = ?", itemID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock for item %s: %w", itemID, mapError(err))
	}
	return int(total), nil
}

func (s *gormStore) GetKeeping(ctx context.Context, storageID, itemID string) (*model.Keeping, error) {
	var k model.Keeping
	err := s.db.WithContext(ctx).
		Where("storage_id = ? AND item_id = ?", storageID, itemID).
		Take(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("keeping", storageID+"/"+itemID)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &k, nil
}

// UpsertKeeping writes the keeping's quantity, inserting the (storage, item) row if absent.
func (s *gormStore) UpsertKeeping(ctx context.Context, k *model.Keeping) error {
	res := s.db.WithContext(ctx).Model(&model.Keeping{}).
		Where("storage_id = ? AND item_id = ?", k.StorageID, k.ItemID).
		Updates(map[string]any{"quantity": k.Quantity})
	if res.Error != nil {
		return fmt.Errorf("failed to update keeping %s/%s: %w", k.StorageID, k.ItemID, mapError(res.Error))
	}
	if res.RowsAffected > 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(k).Error
	if err != nil {
		return fmt.Errorf("failed to upsert keeping %s/%s: %w", k.StorageID, k.ItemID, mapError(err))
	}
	return nil
}

func (s *gormStore) ListKeepings(ctx context.Context, itemID string) ([]model.Keeping, error) {
	var keepings []model.Keeping
	if err := s.db.WithContext(ctx).Where("item_id = ?", itemID).Order("storage_id").Find(&keepings).Error; err != nil {
		return nil, mapError(err)
	}
	return keepings, nil
}
