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

// BorrowingFilter narrows ListBorrowings. Zero fields match everything.
type BorrowingFilter struct {
	ItemID string
	UserID string
	State  model.BorrowingState
	// OverdueAt selects active, unreturned borrowings due before it.
	OverdueAt time.Time
	// DueFrom selects borrowings whose expected return is not before it.
	DueFrom time.Time
	Limit   int
	Offset  int
}

func (s *gormStore) CreateBorrowing(ctx context.Context, b *model.Borrowing) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create borrowing: %w", mapError(err))
	}
	return nil
}

func (s *gormStore) GetBorrowing(ctx context.Context, id string, forUpdate bool) (*model.Borrowing, error) {
	q := s.db.WithContext(ctx)
	if forUpdate && s.postgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var b model.Borrowing
	err := q.Where("id = ?", id).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("borrowing", id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (s *gormStore) SaveBorrowing(ctx context.Context, b *model.Borrowing) error {
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return fmt.Errorf("failed to save borrowing %s: %w", b.ID, mapError(err))
	}
	return nil
}

// ActiveBorrowings returns every stored-ACTIVE borrowing of the item, overdue ones included.
func (s *gormStore) ActiveBorrowings(ctx context.Context, itemID string) ([]model.Borrowing, error) {
	var out []model.Borrowing
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND state = ? AND actual_return_date IS NULL", itemID, model.BorrowingActive).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active borrowings for item %s: %w", itemID, mapError(err))
	}
	return out, nil
}

func (s *gormStore) ListBorrowings(ctx context.Context, f BorrowingFilter) ([]model.Borrowing, error) {
	q := s.db.WithContext(ctx).Model(&model.Borrowing{})
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if !f.OverdueAt.IsZero() {
		q = q.Where("state = ? AND actual_return_date IS NULL AND expected_return_date < ?", model.BorrowingActive, f.OverdueAt)
	}
	if !f.DueFrom.IsZero() {
		q = q.Where("expected_return_date >= ?", f.DueFrom)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []model.Borrowing
	if err := q.Order("borrow_date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list borrowings: %w", mapError(err))
	}
	return out, nil
}
