package scheduling

import (
	"context"
	"fmt"

	"warehouse-reservation-backend/internal/availability"
	"warehouse-reservation-backend/internal/directory"
	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/lock"
	"warehouse-reservation-backend/internal/model"
	"warehouse-reservation-backend/internal/store"
)

// AdjustKeeping puts away (delta > 0) or removes (delta < 0) units of an item
// at a storage. A removal may not leave the keeping below what outbound trips
// will carry away, nor total stock below the most units borrowings hold out
// at any one time from now on.
func (s *Service) AdjustKeeping(ctx context.Context, storageID, itemID string, delta int) (*model.Keeping, error) {
	if delta == 0 {
		return nil, domain.NewError(domain.KindInvalidArgument, "delta must be non-zero")
	}
	if err := s.resolve(ctx,
		reference{directory.KindStorage, storageID},
		reference{directory.KindItem, itemID},
	); err != nil {
		return nil, err
	}

	var out *model.Keeping
	err := s.serialize(ctx, []string{lock.ItemKey(itemID)}, func(tx store.Store) error {
		k, err := originQuantity(ctx, tx, storageID, itemID)
		if err != nil {
			return err
		}
		if k.Quantity+delta < 0 {
			return domain.NewError(domain.KindInsufficientStock,
				fmt.Sprintf("storage %s keeps %d of item %s, cannot remove %d", storageID, k.Quantity, itemID, -delta))
		}
		if delta < 0 {
			outbound, err := tx.OutboundTrips(ctx, storageID, itemID)
			if err != nil {
				return err
			}
			if shipping := availability.Outbound(outbound, storageID, itemID, ""); k.Quantity+delta < shipping {
				return domain.NewError(domain.KindInsufficientStock,
					fmt.Sprintf("storage %s has %d of item %s committed to outbound trips, keeping would drop to %d",
						storageID, shipping, itemID, k.Quantity+delta))
			}

			total, err := tx.TotalStock(ctx, itemID)
			if err != nil {
				return err
			}
			active, err := tx.ActiveBorrowings(ctx, itemID)
			if err != nil {
				return err
			}
			now := s.clock.Now()
			if peak := availability.PeakReserved(active, now, now, ""); total+delta < peak {
				return domain.NewError(domain.KindInsufficientStock,
					fmt.Sprintf("item %s has up to %d units out on borrowings at once, total would drop to %d", itemID, peak, total+delta))
			}
		}
		if k.ID == "" {
			k.ID = s.newID()
		}
		k.Quantity += delta
		if err := tx.UpsertKeeping(ctx, k); err != nil {
			return err
		}
		out = k
		return nil
	})
	s.outcome("adjust keeping", err, "storage_id", storageID, "item_id", itemID, "delta", delta)
	if err != nil {
		return nil, err
	}
	return out, nil
}
