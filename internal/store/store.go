package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Transaction runs fn in one database transaction. fn receives a Store bound to it.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// Lock takes transaction-scoped advisory locks on postgres. It is a no-op elsewhere.
	Lock(ctx context.Context, keys ...string) error
	DB() *gorm.DB

	ItemExists(ctx context.Context, id string) (bool, error)
	UserExists(ctx context.Context, id string) (bool, error)
	VehicleExists(ctx context.Context, id string) (bool, error)
	StorageExists(ctx context.Context, id string) (bool, error)
	CreateItem(ctx context.Context, item *model.Item) error
	CreateUser(ctx context.Context, user *model.User) error
	CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	CreateStorage(ctx context.Context, storage *model.Storage) error

	TotalStock(ctx context.Context, itemID string) (int, error)
	GetKeeping(ctx context.Context, storageID, itemID string) (*model.Keeping, error)
	UpsertKeeping(ctx context.Context, keeping *model.Keeping) error
	ListKeepings(ctx context.Context, itemID string) ([]model.Keeping, error)

	CreateBorrowing(ctx context.Context, b *model.Borrowing) error
	GetBorrowing(ctx context.Context, id string, forUpdate bool) (*model.Borrowing, error)
	SaveBorrowing(ctx context.Context, b *model.Borrowing) error
	ActiveBorrowings(ctx context.Context, itemID string) ([]model.Borrowing, error)
	ListBorrowings(ctx context.Context, f BorrowingFilter) ([]model.Borrowing, error)

	CreateTransportation(ctx context.Context, t *model.Transportation) error
	GetTransportation(ctx context.Context, id string, forUpdate bool) (*model.Transportation, error)
	SaveTransportation(ctx context.Context, t *model.Transportation) error
	HoldingTrips(ctx context.Context, vehicleID, driverID string) ([]model.Transportation, error)
	OutboundTrips(ctx context.Context, storageID, itemID string) ([]model.Transportation, error)
	ListTransportations(ctx context.Context, f TransportFilter) ([]model.Transportation, error)

	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	ListSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Options tunes database-side locking.
type Options struct {
	// LockTimeout bounds how long postgres waits for a row or advisory lock.
	LockTimeout time.Duration
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db       *gorm.DB
	opts     Options
	postgres bool
	inTx     bool
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 2 * time.Second
	}
	return &gormStore{
		db:       db,
		opts:     opts,
		postgres: db.Dialector.Name() == "postgres",
	}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.postgres {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.opts.LockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		return fn(&gormStore{db: tx, opts: s.opts, postgres: s.postgres, inTx: true})
	})
	return mapError(err)
}

func (s *gormStore) Lock(ctx context.Context, keys ...string) error {
	if !s.postgres || !s.inTx {
		return nil
	}
	for _, k := range keys {
		if err := s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", k).Error; err != nil {
			return mapError(fmt.Errorf("failed to lock %s: %w", k, err))
		}
	}
	return nil
}

// mapError translates database lock failures into engine error kinds.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40P01", "40001":
			return domain.WrapError(domain.KindContended, "database lock not acquired", err)
		case "23P01":
			return domain.WrapError(domain.KindResourceBusy, "overlapping trip rejected by database", err)
		}
	}
	return err
}

func (s *gormStore) exists(ctx context.Context, m any, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}
