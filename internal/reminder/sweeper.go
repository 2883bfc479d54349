// Package reminder periodically looks for overdue borrowings and trips and
// pushes a reminder to the user responsible for each.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"warehouse-reservation-backend/internal/notification"
	"warehouse-reservation-backend/internal/scheduling"
)

// Source lists what is overdue right now.
type Source interface {
	ListOverdueBorrowings(ctx context.Context) ([]scheduling.BorrowingView, error)
	ListOverdueTransportations(ctx context.Context) ([]scheduling.TransportationView, error)
}

// Dispatcher accepts reminders for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, r notification.Reminder) error
}

type Config struct {
	Enabled  bool
	Interval time.Duration
	// Repeat is how long to wait before reminding about the same record again.
	Repeat time.Duration
}

// Sweeper finds overdue records on a fixed interval.
type Sweeper struct {
	cfg    Config
	source Source
	out    Dispatcher
	sent   *cache.Cache
	log    *slog.Logger
}

func NewSweeper(cfg Config, source Source, out Dispatcher, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Repeat <= 0 {
		cfg.Repeat = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cfg:    cfg,
		source: source,
		out:    out,
		sent:   cache.New(cfg.Repeat, 2*cfg.Repeat),
		log:    logger.With("component", "reminder"),
	}
}

// Run sweeps once immediately and then on every interval until ctx ends.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("reminders are disabled, not starting")
		return
	}
	s.log.Info("starting reminder sweeper", "interval", s.cfg.Interval)

	s.sweepAndLog(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder sweeper shutting down")
			return
		case <-timer.C:
			s.sweepAndLog(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.Error("reminder sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("reminders queued", "count", n)
	}
}

// SweepOnce queues a reminder for every overdue record not reminded about
// within the repeat period and returns how many were queued.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	borrowings, err := s.source.ListOverdueBorrowings(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue borrowings: %w", err)
	}
	trips, err := s.source.ListOverdueTransportations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue transportations: %w", err)
	}

	queued := 0
	for _, b := range borrowings {
		r := notification.Reminder{
			UserID: b.UserID,
			Title:  "Borrowing overdue",
			Body: fmt.Sprintf("%d of item %s were due back at %s.",
				b.Quantity, b.ItemID, b.ExpectedReturnDate.Format(time.RFC3339)),
			Ref: b.ID,
		}
		ok, err := s.send(ctx, "borrowing:"+b.ID, r)
		if err != nil {
			return queued, err
		}
		if ok {
			queued++
		}
	}
	for _, t := range trips {
		r := notification.Reminder{
			UserID: t.DriverID,
			Title:  "Transportation overdue",
			Body: fmt.Sprintf("Trip from %s to %s was due to arrive at %s.",
				t.FromStorageID, t.ToStorageID, t.ScheduledArrival.Format(time.RFC3339)),
			Ref: t.ID,
		}
		ok, err := s.send(ctx, "transportation:"+t.ID, r)
		if err != nil {
			return queued, err
		}
		if ok {
			queued++
		}
	}
	return queued, nil
}

func (s *Sweeper) send(ctx context.Context, key string, r notification.Reminder) (bool, error) {
	if _, found := s.sent.Get(key); found {
		return false, nil
	}
	if err := s.out.Dispatch(ctx, r); err != nil {
		return false, err
	}
	s.sent.SetDefault(key, struct{}{})
	return true, nil
}
