// Package lock provides the serializing scope around read-check-write sequences.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"warehouse-reservation-backend/internal/domain"
)

// Unlock releases every key taken by one Lock call. Calling it twice is safe.
type Unlock func()

// Locker serializes commits per resource key with a bounded wait.
type Locker interface {
	// Lock blocks until all keys are held, the wait bound elapses (Contended),
	// or ctx is cancelled.
	Lock(ctx context.Context, keys ...string) (Unlock, error)
}

func ItemKey(id string) string           { return "item:" + id }
func VehicleKey(id string) string        { return "vehicle:" + id }
func DriverKey(id string) string         { return "driver:" + id }
func BorrowingKey(id string) string      { return "borrowing:" + id }
func TransportationKey(id string) string { return "transportation:" + id }

// Normalize sorts and dedupes keys so every caller acquires in the same order.
func Normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contended(key string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("waiting for %s: %w", key, err)
	}
	return domain.WrapError(domain.KindContended, fmt.Sprintf("could not acquire %s in time", key), err)
}
