package directory

import (
	"context"
	"fmt"

	"warehouse-reservation-backend/internal/store"
)

// Local resolves against the tables of this service's own database.
type Local struct {
	store store.Store
}

func NewLocal(s store.Store) *Local {
	return &Local{store: s}
}

func (l *Local) Exists(ctx context.Context, kind Kind, id string) (bool, error) {
	switch kind {
	case KindItem:
		return l.store.ItemExists(ctx, id)
	case KindUser:
		return l.store.UserExists(ctx, id)
	case KindVehicle:
		return l.store.VehicleExists(ctx, id)
	case KindStorage:
		return l.store.StorageExists(ctx, id)
	}
	return false, fmt.Errorf("unknown entity kind %q", kind)
}
