package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-reservation-backend/internal/model"
	"warehouse-reservation-backend/internal/notification"
	"warehouse-reservation-backend/internal/scheduling"
)

type mockSource struct {
	mu         sync.Mutex
	calls      int
	borrowings []scheduling.BorrowingView
	trips      []scheduling.TransportationView
	err        error
}

func (m *mockSource) ListOverdueBorrowings(ctx context.Context) ([]scheduling.BorrowingView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.borrowings, m.err
}

func (m *mockSource) ListOverdueTransportations(ctx context.Context) ([]scheduling.TransportationView, error) {
	return m.trips, nil
}

func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recorder struct {
	mu   sync.Mutex
	got  []notification.Reminder
	fail error
}

func (r *recorder) Dispatch(ctx context.Context, rem notification.Reminder) error {
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, rem)
	return nil
}

func overdueSource() *mockSource {
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return &mockSource{
		borrowings: []scheduling.BorrowingView{{
			Borrowing: model.Borrowing{ID: "b1", ItemID: "i1", UserID: "u1", Quantity: 2, ExpectedReturnDate: due},
			Status:    model.BorrowingOverdue,
			Overdue:   true,
		}},
		trips: []scheduling.TransportationView{{
			Transportation: model.Transportation{ID: "t1", DriverID: "d1", FromStorageID: "s1", ToStorageID: "s2", ScheduledArrival: due},
			Overdue:        true,
		}},
	}
}

func TestSweepOnce(t *testing.T) {
	out := &recorder{}
	s := NewSweeper(Config{Enabled: true}, overdueSource(), out, nil)

	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, out.got, 2)

	assert.Equal(t, "u1", out.got[0].UserID)
	assert.Equal(t, "b1", out.got[0].Ref)
	assert.Contains(t, out.got[0].Body, "2025-03-10T12:00:00Z")
	assert.Equal(t, "d1", out.got[1].UserID)
	assert.Equal(t, "t1", out.got[1].Ref)

	n, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "records reminded within the repeat period are skipped")
}

func TestSweepOnce_RepeatsAfterPeriod(t *testing.T) {
	out := &recorder{}
	s := NewSweeper(Config{Enabled: true, Repeat: 20 * time.Millisecond}, overdueSource(), out, nil)

	_, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)

	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSweepOnce_Errors(t *testing.T) {
	src := overdueSource()
	src.err = errors.New("db down")
	_, err := NewSweeper(Config{}, src, &recorder{}, nil).SweepOnce(context.Background())
	assert.ErrorContains(t, err, "db down")

	out := &recorder{fail: context.Canceled}
	s := NewSweeper(Config{}, overdueSource(), out, nil)
	_, err = s.SweepOnce(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	out.fail = nil
	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "failed dispatches are not remembered")
}

func TestRun(t *testing.T) {
	t.Run("disabled returns immediately", func(t *testing.T) {
		src := overdueSource()
		NewSweeper(Config{Enabled: false}, src, &recorder{}, nil).Run(context.Background())
		assert.Zero(t, src.Calls())
	})

	t.Run("sweeps until cancelled", func(t *testing.T) {
		src := &mockSource{}
		s := NewSweeper(Config{Enabled: true, Interval: 10 * time.Millisecond}, src, &recorder{}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		assert.Eventually(t, func() bool { return src.Calls() >= 3 }, time.Second, 5*time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sweeper did not stop")
		}
	})
}
