package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

var t0 = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func activeBorrowing() *model.Borrowing {
	b, _ := NewBorrowing("b1", BorrowRequest{
		ItemID: "i1", UserID: "u1", Quantity: 2,
		BorrowDate: t0, ExpectedReturnDate: t0.Add(48 * time.Hour),
	})
	return b
}

func TestBorrowRequest_Validate(t *testing.T) {
	valid := BorrowRequest{ItemID: "i1", UserID: "u1", Quantity: 1, BorrowDate: t0, ExpectedReturnDate: t0.Add(time.Hour)}

	testCases := []struct {
		name   string
		mutate func(r *BorrowRequest)
		kind   domain.Kind
	}{
		{"valid", func(r *BorrowRequest) {}, ""},
		{"zero quantity", func(r *BorrowRequest) { r.Quantity = 0 }, domain.KindInvalidArgument},
		{"negative quantity", func(r *BorrowRequest) { r.Quantity = -3 }, domain.KindInvalidArgument},
		{"missing item", func(r *BorrowRequest) { r.ItemID = " " }, domain.KindInvalidArgument},
		{"missing user", func(r *BorrowRequest) { r.UserID = "" }, domain.KindInvalidArgument},
		{"return equals borrow", func(r *BorrowRequest) { r.ExpectedReturnDate = r.BorrowDate }, domain.KindInvalidWindow},
		{"return before borrow", func(r *BorrowRequest) { r.ExpectedReturnDate = r.BorrowDate.Add(-time.Hour) }, domain.KindInvalidWindow},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			err := r.Validate()
			if tc.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.kind, domain.KindOf(err))
		})
	}
}

func TestBorrowingLifecycle(t *testing.T) {
	b := activeBorrowing()
	require.NotNil(t, b)
	assert.Equal(t, model.BorrowingActive, b.State)

	require.NoError(t, Activate(b, t0))
	first := b.ActivatedAt
	require.NoError(t, Activate(b, t0.Add(time.Hour)), "activate is idempotent")
	assert.Same(t, first, b.ActivatedAt)

	err := Extend(b, b.ExpectedReturnDate)
	assert.True(t, errors.Is(err, domain.ErrInvalidWindow))

	newDue := t0.Add(72 * time.Hour)
	ext := ExtensionWindow(b, newDue)
	assert.Equal(t, t0.Add(48*time.Hour), ext.Start)
	require.NoError(t, Extend(b, newDue))
	assert.Equal(t, newDue, b.ExpectedReturnDate)

	returnedAt := t0.Add(24 * time.Hour)
	require.NoError(t, Return(b, returnedAt))
	assert.Equal(t, model.BorrowingReturned, b.State)
	require.NotNil(t, b.ActualReturnDate)
	assert.Equal(t, returnedAt, *b.ActualReturnDate)
}

func TestBorrowing_TerminalRejections(t *testing.T) {
	returned := activeBorrowing()
	require.NoError(t, Return(returned, t0))
	cancelled := activeBorrowing()
	require.NoError(t, Cancel(cancelled))

	for _, b := range []*model.Borrowing{returned, cancelled} {
		before := *b
		assert.True(t, errors.Is(Extend(b, t0.Add(100*time.Hour)), domain.ErrInvalidTransition))
		assert.True(t, errors.Is(Cancel(b), domain.ErrInvalidTransition))
		assert.True(t, errors.Is(Return(b, t0), domain.ErrInvalidTransition))
		assert.True(t, errors.Is(Activate(b, t0), domain.ErrInvalidTransition))
		assert.Equal(t, before, *b, "rejected transitions leave state unchanged")
	}
}

func TestBorrowing_OverdueIsDerived(t *testing.T) {
	b := activeBorrowing()
	late := b.ExpectedReturnDate.Add(time.Minute)

	assert.False(t, b.IsOverdue(b.ExpectedReturnDate))
	assert.True(t, b.IsOverdue(late))
	assert.Equal(t, model.BorrowingOverdue, b.Status(late))
	assert.Equal(t, b.IsOverdue(late), b.IsOverdue(late))
	assert.Equal(t, model.BorrowingActive, b.State)

	require.NoError(t, Extend(b, late.Add(time.Hour)), "overdue borrowings can be extended")
	assert.False(t, b.IsOverdue(late))

	require.NoError(t, Return(b, late))
	assert.False(t, b.IsOverdue(late.Add(24*time.Hour)))
}

func validTrip() TransportRequest {
	return TransportRequest{
		ItemID: "i1", VehicleID: "v1", DriverID: "d1",
		FromStorageID: "s1", ToStorageID: "s2",
		ScheduledDeparture: t0, ScheduledArrival: t0.Add(2 * time.Hour),
	}
}

func TestTransportRequest_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *TransportRequest)
		kind   domain.Kind
	}{
		{"valid", func(r *TransportRequest) {}, ""},
		{"same storage", func(r *TransportRequest) { r.ToStorageID = r.FromStorageID }, domain.KindInvalidArgument},
		{"missing vehicle", func(r *TransportRequest) { r.VehicleID = "" }, domain.KindInvalidArgument},
		{"missing driver", func(r *TransportRequest) { r.DriverID = "" }, domain.KindInvalidArgument},
		{"negative quantity", func(r *TransportRequest) { r.Quantity = -1 }, domain.KindInvalidArgument},
		{"arrival before departure", func(r *TransportRequest) { r.ScheduledArrival = t0.Add(-time.Hour) }, domain.KindInvalidWindow},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := validTrip()
			tc.mutate(&r)
			err := r.Normalize().Validate()
			if tc.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.kind, domain.KindOf(err))
		})
	}
}

func TestTransportationLifecycle(t *testing.T) {
	tr, err := NewTransportation("t1", validTrip())
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Quantity)
	assert.Equal(t, model.TransportPlanned, tr.Status)

	assert.True(t, errors.Is(Complete(tr, t0), domain.ErrInvalidTransition), "cannot complete a planned trip")
	assert.Equal(t, model.TransportPlanned, tr.Status)

	require.NoError(t, Transition(tr, model.TransportInProgress, t0.Add(5*time.Minute)))
	assert.Equal(t, t0.Add(5*time.Minute), *tr.ActualDeparture)
	assert.False(t, tr.IsOverdue(t0.Add(2*time.Hour)))
	assert.True(t, tr.IsOverdue(t0.Add(3*time.Hour)))

	require.NoError(t, Transition(tr, model.TransportCompleted, t0.Add(3*time.Hour)))
	assert.Equal(t, model.TransportCompleted, tr.Status)
	assert.False(t, tr.IsOverdue(t0.Add(4*time.Hour)))

	before := *tr
	assert.True(t, errors.Is(CancelTrip(tr), domain.ErrInvalidTransition))
	assert.True(t, errors.Is(Start(tr, t0), domain.ErrInvalidTransition))
	assert.Equal(t, before, *tr)
}

func TestTransportation_Cancel(t *testing.T) {
	planned, _ := NewTransportation("t1", validTrip())
	require.NoError(t, CancelTrip(planned))
	assert.Equal(t, model.TransportCancelled, planned.Status)

	moving, _ := NewTransportation("t2", validTrip())
	require.NoError(t, Start(moving, t0))
	require.NoError(t, Transition(moving, model.TransportCancelled, t0))
	assert.Equal(t, model.TransportCancelled, moving.Status)

	back, _ := NewTransportation("t3", validTrip())
	err := Transition(back, model.TransportPlanned, t0)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}
