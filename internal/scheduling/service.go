// Package scheduling is the single entry point for every mutation of
// borrowings, transportations and keepings. Each operation resolves its
// references, takes the serializing scope for the resources it touches and
// runs check plus commit in one transaction.
package scheduling

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"warehouse-reservation-backend/internal/directory"
	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/lock"
	"warehouse-reservation-backend/internal/store"
)

// Logger is the logging surface the service needs. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock sets the source of now. Defaults to domain.SystemClock.
func WithClock(c domain.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator replaces the uuid generator for new reservations.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service implements the scheduling operations.
type Service struct {
	store    store.Store
	resolver directory.Resolver
	locker   lock.Locker
	clock    domain.Clock
	log      Logger
	newID    func() string
}

// NewService wires the facade to its collaborators.
func NewService(s store.Store, r directory.Resolver, l lock.Locker, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		resolver: r,
		locker:   l,
		clock:    domain.SystemClock{},
		log:      slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// serialize holds keys in the locker and the database for the whole transaction.
func (s *Service) serialize(ctx context.Context, keys []string, fn func(tx store.Store) error) error {
	keys = lock.Normalize(keys)
	unlock, err := s.locker.Lock(ctx, keys...)
	if err != nil {
		s.log.Warn("serializing scope not acquired", "keys", keys, "error", err)
		return err
	}
	defer unlock()

	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.Lock(ctx, keys...); err != nil {
			return err
		}
		return fn(tx)
	})
}

type reference struct {
	kind directory.Kind
	id   string
}

// resolve checks every reference before any lock is taken.
func (s *Service) resolve(ctx context.Context, refs ...reference) error {
	for _, ref := range refs {
		if err := directory.Require(ctx, s.resolver, ref.kind, ref.id); err != nil {
			if domain.KindOf(err) == domain.KindDependencyUnavailable {
				s.log.Error("identity resolution failed", "kind", ref.kind, "id", ref.id, "error", err)
			}
			return err
		}
	}
	return nil
}

// outcome logs the result of a mutation at a level matching its kind.
func (s *Service) outcome(op string, err error, args ...any) {
	if err == nil {
		s.log.Info(op, args...)
		return
	}
	args = append(args, "error", err)
	switch domain.KindOf(err) {
	case "":
		s.log.Error(op+" failed", args...)
	case domain.KindContended, domain.KindDependencyUnavailable:
		s.log.Warn(op+" failed", args...)
	default:
		s.log.Debug(op+" rejected", args...)
	}
}
