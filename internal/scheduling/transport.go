package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse-reservation-backend/internal/availability"
	"warehouse-reservation-backend/internal/directory"
	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/lifecycle"
	"warehouse-reservation-backend/internal/lock"
	"warehouse-reservation-backend/internal/model"
	"warehouse-reservation-backend/internal/store"
)

// originQuantity is what the storage keeps of the item, zero when there is no keeping row.
func originQuantity(ctx context.Context, tx store.Store, storageID, itemID string) (*model.Keeping, error) {
	k, err := tx.GetKeeping(ctx, storageID, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return &model.Keeping{StorageID: storageID, ItemID: itemID}, nil
	}
	return k, err
}

// ScheduleTransport books the vehicle and driver for the window. Both are
// checked against the same snapshot so neither can be double-booked. The trip
// also claims its quantity at the origin storage until it completes or is
// cancelled.
func (s *Service) ScheduleTransport(ctx context.Context, req lifecycle.TransportRequest) (*model.Transportation, error) {
	req = req.Normalize()
	req.ScheduledDeparture = req.ScheduledDeparture.UTC()
	req.ScheduledArrival = req.ScheduledArrival.UTC()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx,
		reference{directory.KindItem, req.ItemID},
		reference{directory.KindVehicle, req.VehicleID},
		reference{directory.KindUser, req.DriverID},
		reference{directory.KindStorage, req.FromStorageID},
		reference{directory.KindStorage, req.ToStorageID},
	); err != nil {
		return nil, err
	}

	var created *model.Transportation
	keys := []string{lock.VehicleKey(req.VehicleID), lock.DriverKey(req.DriverID), lock.ItemKey(req.ItemID)}
	err := s.serialize(ctx, keys, func(tx store.Store) error {
		trips, err := tx.HoldingTrips(ctx, req.VehicleID, req.DriverID)
		if err != nil {
			return err
		}
		if err := availability.CheckTrip(req.VehicleID, req.DriverID, trips, req.Window(), s.clock.Now()); err != nil {
			return err
		}

		origin, err := originQuantity(ctx, tx, req.FromStorageID, req.ItemID)
		if err != nil {
			return err
		}
		outbound, err := tx.OutboundTrips(ctx, req.FromStorageID, req.ItemID)
		if err != nil {
			return err
		}
		// Units already promised to other trips leaving the same storage are not available.
		if free := origin.Quantity - availability.Outbound(outbound, req.FromStorageID, req.ItemID, ""); free < req.Quantity {
			return domain.NewError(domain.KindInsufficientStock, fmt.Sprintf("storage %s has %d of item %s not committed to other trips, trip needs %d",
				req.FromStorageID, free, req.ItemID, req.Quantity))
		}

		t, err := lifecycle.NewTransportation(s.newID(), req)
		if err != nil {
			return err
		}
		if err := tx.CreateTransportation(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	s.outcome("schedule transport", err, "vehicle_id", req.VehicleID, "driver_id", req.DriverID, "window", req.Window().String())
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) mutateTransport(ctx context.Context, op, id string, extraKeys []string,
	fn func(tx store.Store, t *model.Transportation, now time.Time) error) (*model.Transportation, error) {

	var out *model.Transportation
	keys := append([]string{lock.TransportationKey(id)}, extraKeys...)
	err := s.serialize(ctx, keys, func(tx store.Store) error {
		current, err := tx.GetTransportation(ctx, id, true)
		if err != nil {
			return err
		}
		next := *current
		if err := fn(tx, &next, s.clock.Now()); err != nil {
			return err
		}
		if err := tx.SaveTransportation(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	s.outcome(op, err, "transportation_id", id)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StartTransport marks a planned trip as departed.
func (s *Service) StartTransport(ctx context.Context, id string) (*model.Transportation, error) {
	return s.mutateTransport(ctx, "start transport", id, nil, func(_ store.Store, t *model.Transportation, now time.Time) error {
		return lifecycle.Start(t, now)
	})
}

// CompleteTransport records arrival and moves the carried quantity from the
// origin keeping to the destination keeping.
func (s *Service) CompleteTransport(ctx context.Context, id string) (*model.Transportation, error) {
	current, err := s.store.GetTransportation(ctx, id, false)
	if err != nil {
		return nil, err
	}

	return s.mutateTransport(ctx, "complete transport", id, []string{lock.ItemKey(current.ItemID)},
		func(tx store.Store, t *model.Transportation, now time.Time) error {
			if err := lifecycle.Complete(t, now); err != nil {
				return err
			}
			origin, err := originQuantity(ctx, tx, t.FromStorageID, t.ItemID)
			if err != nil {
				return err
			}
			if origin.Quantity < t.Quantity {
				return domain.NewError(domain.KindInsufficientStock, fmt.Sprintf("storage %s keeps %d of item %s, trip carried %d",
					t.FromStorageID, origin.Quantity, t.ItemID, t.Quantity))
			}
			dest, err := originQuantity(ctx, tx, t.ToStorageID, t.ItemID)
			if err != nil {
				return err
			}
			if dest.ID == "" {
				dest.ID = s.newID()
			}
			origin.Quantity -= t.Quantity
			dest.Quantity += t.Quantity
			if err := tx.UpsertKeeping(ctx, origin); err != nil {
				return err
			}
			return tx.UpsertKeeping(ctx, dest)
		})
}

// CancelTransport releases the vehicle and driver.
func (s *Service) CancelTransport(ctx context.Context, id string) (*model.Transportation, error) {
	return s.mutateTransport(ctx, "cancel transport", id, nil, func(_ store.Store, t *model.Transportation, _ time.Time) error {
		return lifecycle.CancelTrip(t)
	})
}

// UpdateTransportStatus moves a trip to target through the matching transition.
func (s *Service) UpdateTransportStatus(ctx context.Context, id string, target model.TransportStatus) (*model.Transportation, error) {
	switch target {
	case model.TransportInProgress:
		return s.StartTransport(ctx, id)
	case model.TransportCompleted:
		return s.CompleteTransport(ctx, id)
	case model.TransportCancelled:
		return s.CancelTransport(ctx, id)
	case model.TransportPlanned:
		t, err := s.store.GetTransportation(ctx, id, false)
		if err != nil {
			return nil, err
		}
		return nil, domain.NewError(domain.KindInvalidTransition,
			fmt.Sprintf("transportation %s cannot move from %s to %s", id, t.Status, target))
	}
	return nil, domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("unknown transportation status %q", target))
}
