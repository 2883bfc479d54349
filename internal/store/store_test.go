package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore opens a private in-memory database with the full schema.
func newSQLiteStore(t *testing.T) Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, gormDB.AutoMigrate(model.All()...))
	return NewGormStore(gormDB, Options{})
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

func TestGormStore_Exists(t *testing.T) {
	testCases := []struct {
		name     string
		call     func(s Store) (bool, error)
		table    string
		count    int
		expected bool
	}{
		{"item present", func(s Store) (bool, error) { return s.ItemExists(context.Background(), "i1") }, "items", 1, true},
		{"user missing", func(s Store) (bool, error) { return s.UserExists(context.Background(), "i1") }, "users", 0, false},
		{"vehicle present", func(s Store) (bool, error) { return s.VehicleExists(context.Background(), "i1") }, "vehicles", 1, true},
		{"storage missing", func(s Store) (bool, error) { return s.StorageExists(context.Background(), "i1") }, "storages", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, Options{})

			mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf(`SELECT count(*) FROM "%s" WHERE id = $1`, tc.table))).
				WithArgs("i1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tc.count))

			ok, err := tc.call(s)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_TotalStock(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, Options{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(quantity), 0) FROM "keepings" WHERE item_id = $1`)).
		WithArgs("i1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

	total, err := s.TotalStock(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetBorrowingForUpdate(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, Options{})

	mock.ExpectQuery(`SELECT \* FROM "borrowings" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "quantity", "state"}).AddRow("b1", "i1", 2, "ACTIVE"))
	mock.ExpectQuery(`SELECT \* FROM "borrowings" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	b, err := s.GetBorrowing(context.Background(), "b1", true)
	require.NoError(t, err)
	assert.Equal(t, "i1", b.ItemID)
	assert.Equal(t, model.BorrowingActive, b.State)

	_, err = s.GetBorrowing(context.Background(), "missing", false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_TransactionLocks(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, Options{LockTimeout: 1500 * time.Millisecond})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL lock_timeout = '1500ms'`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("item:i1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("item:i2").
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	err := s.Transaction(context.Background(), func(tx Store) error {
		return tx.Lock(context.Background(), "item:i1", "item:i2")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrContended))
	assert.True(t, domain.Retryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_LockOutsideTransactionIsNoop(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, Options{})

	require.NoError(t, s.Lock(context.Background(), "item:i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	testCases := []struct {
		code string
		kind domain.Kind
	}{
		{"55P03", domain.KindContended},
		{"40P01", domain.KindContended},
		{"23P01", domain.KindResourceBusy},
		{"23505", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			err := mapError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: tc.code}))
			assert.Equal(t, tc.kind, domain.KindOf(err))
		})
	}
	assert.NoError(t, mapError(nil))
}

func TestGormStore_Keepings(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	total, err := s.TotalStock(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	require.NoError(t, s.UpsertKeeping(ctx, &model.Keeping{ID: "k1", StorageID: "s1", ItemID: "i1", Quantity: 3}))
	require.NoError(t, s.UpsertKeeping(ctx, &model.Keeping{ID: "k2", StorageID: "s2", ItemID: "i1", Quantity: 2}))
	// Same (storage, item): updates the existing row instead of inserting.
	require.NoError(t, s.UpsertKeeping(ctx, &model.Keeping{ID: "k3", StorageID: "s1", ItemID: "i1", Quantity: 5}))

	total, err = s.TotalStock(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	keepings, err := s.ListKeepings(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, keepings, 2)
	assert.Equal(t, "k1", keepings[0].ID)

	k, err := s.GetKeeping(ctx, "s1", "i1")
	require.NoError(t, err)
	assert.Equal(t, 5, k.Quantity)

	_, err = s.GetKeeping(ctx, "s9", "i1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGormStore_BorrowingQueries(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	returned := base.Add(2 * time.Hour)

	rows := []model.Borrowing{
		{ID: "b1", ItemID: "i1", UserID: "u1", Quantity: 1, BorrowDate: base, ExpectedReturnDate: base.Add(24 * time.Hour), State: model.BorrowingActive},
		{ID: "b2", ItemID: "i1", UserID: "u2", Quantity: 2, BorrowDate: base.Add(time.Hour), ExpectedReturnDate: base.Add(72 * time.Hour), State: model.BorrowingActive},
		{ID: "b3", ItemID: "i1", UserID: "u1", Quantity: 4, BorrowDate: base, ExpectedReturnDate: base.Add(time.Hour), ActualReturnDate: &returned, State: model.BorrowingReturned},
		{ID: "b4", ItemID: "i2", UserID: "u1", Quantity: 1, BorrowDate: base, ExpectedReturnDate: base.Add(time.Hour), State: model.BorrowingActive},
	}
	for i := range rows {
		require.NoError(t, s.CreateBorrowing(ctx, &rows[i]))
	}

	active, err := s.ActiveBorrowings(ctx, "i1")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byUser, err := s.ListBorrowings(ctx, BorrowingFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 3)

	overdue, err := s.ListBorrowings(ctx, BorrowingFilter{OverdueAt: base.Add(48 * time.Hour)})
	require.NoError(t, err)
	ids := make([]string, 0, len(overdue))
	for _, b := range overdue {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{"b1", "b4"}, ids)

	page, err := s.ListBorrowings(ctx, BorrowingFilter{ItemID: "i1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)

	b, err := s.GetBorrowing(ctx, "b2", true)
	require.NoError(t, err)
	b.State = model.BorrowingCancelled
	require.NoError(t, s.SaveBorrowing(ctx, b))
	active, err = s.ActiveBorrowings(ctx, "i1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestGormStore_HoldingTrips(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	trip := func(id, vehicle, driver string, status model.TransportStatus) *model.Transportation {
		return &model.Transportation{
			ID: id, ItemID: "i1", VehicleID: vehicle, DriverID: driver,
			FromStorageID: "s1", ToStorageID: "s2", Quantity: 1,
			ScheduledDeparture: base, ScheduledArrival: base.Add(2 * time.Hour), Status: status,
		}
	}
	for _, tr := range []*model.Transportation{
		trip("t1", "v1", "d1", model.TransportPlanned),
		trip("t2", "v2", "d2", model.TransportInProgress),
		trip("t3", "v1", "d3", model.TransportCancelled),
		trip("t4", "v3", "d3", model.TransportPlanned),
	} {
		require.NoError(t, s.CreateTransportation(ctx, tr))
	}

	trips, err := s.HoldingTrips(ctx, "v1", "d2")
	require.NoError(t, err)
	ids := make([]string, 0, len(trips))
	for _, tr := range trips {
		ids = append(ids, tr.ID)
	}
	assert.ElementsMatch(t, []string{"t1", "t2"}, ids)

	overdue, err := s.ListTransportations(ctx, TransportFilter{OverdueAt: base.Add(3 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "t2", overdue[0].ID)

	byVehicle, err := s.ListTransportations(ctx, TransportFilter{VehicleID: "v1"})
	require.NoError(t, err)
	assert.Len(t, byVehicle, 2)

	_, err = s.GetTransportation(ctx, "nope", false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, s.CreateTransportation(ctx, &model.Transportation{
		ID: "t5", ItemID: "i2", VehicleID: "v4", DriverID: "d4",
		FromStorageID: "s1", ToStorageID: "s2", Quantity: 1,
		ScheduledDeparture: base, ScheduledArrival: base.Add(time.Hour), Status: model.TransportPlanned,
	}))
	outbound, err := s.OutboundTrips(ctx, "s1", "i1")
	require.NoError(t, err)
	ids = ids[:0]
	for _, tr := range outbound {
		ids = append(ids, tr.ID)
	}
	assert.ElementsMatch(t, []string{"t1", "t2", "t4"}, ids)

	none, err := s.OutboundTrips(ctx, "s2", "i1")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx Store) error {
		if err := tx.UpsertKeeping(ctx, &model.Keeping{ID: "k1", StorageID: "s1", ItemID: "i1", Quantity: 3}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	total, err := s.TotalStock(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestGormStore_Subscriptions(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSubscription(ctx, &model.PushSubscription{Endpoint: "https://push/1", UserID: "u1", P256DH: "p", Auth: "a", CreatedAt: time.Now()}))
	require.NoError(t, s.SaveSubscription(ctx, &model.PushSubscription{Endpoint: "https://push/1", UserID: "u2", P256DH: "p2", Auth: "a2", CreatedAt: time.Now()}))

	sub, err := s.GetSubscription(ctx, "https://push/1")
	require.NoError(t, err)
	assert.Equal(t, "u2", sub.UserID)
	assert.Equal(t, "p2", sub.P256DH)

	subs, err := s.ListSubscriptions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, s.DeleteSubscription(ctx, "https://push/1"))
	_, err = s.GetSubscription(ctx, "https://push/1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
