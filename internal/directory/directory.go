// Package directory answers whether referenced items, users, vehicles and
// storages exist. Failures surface as DependencyUnavailable and are never
// retried here.
package directory

import (
	"context"
	"fmt"

	"warehouse-reservation-backend/internal/domain"
)

// Kind names a resolvable entity collection.
type Kind string

const (
	KindItem    Kind = "items"
	KindUser    Kind = "users"
	KindVehicle Kind = "vehicles"
	KindStorage Kind = "storages"
)

// Resolver answers existence questions about referenced entities.
type Resolver interface {
	Exists(ctx context.Context, kind Kind, id string) (bool, error)
}

// Require returns NotFound when the entity is missing and
// DependencyUnavailable when the resolver fails.
func Require(ctx context.Context, r Resolver, kind Kind, id string) error {
	ok, err := r.Exists(ctx, kind, id)
	if err != nil {
		if domain.KindOf(err) == domain.KindDependencyUnavailable {
			return err
		}
		return domain.WrapError(domain.KindDependencyUnavailable, fmt.Sprintf("resolving %s %s", kind.singular(), id), err)
	}
	if !ok {
		return domain.NotFound(kind.singular(), id)
	}
	return nil
}

func (k Kind) singular() string {
	switch k {
	case KindItem:
		return "item"
	case KindUser:
		return "user"
	case KindVehicle:
		return "vehicle"
	case KindStorage:
		return "storage"
	}
	return string(k)
}
