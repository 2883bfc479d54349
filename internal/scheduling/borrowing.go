package scheduling

import (
	"context"
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

func insufficient(itemID string, requested, available int, w domain.Window) error {
	return domain.NewError(domain.KindInsufficientStock,
		fmt.Sprintf("item %s: requested %d, available %d over %s", itemID, requested, available, w))
}

// ReserveItem creates an ACTIVE borrowing if the item has enough stock over the window.
func (s *Service) ReserveItem(ctx context.Context, req lifecycle.BorrowRequest) (*model.Borrowing, error) {
	req.BorrowDate = req.BorrowDate.UTC()
	req.ExpectedReturnDate = req.ExpectedReturnDate.UTC()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolve(ctx,
		reference{directory.KindItem, req.ItemID},
		reference{directory.KindUser, req.UserID},
	); err != nil {
		return nil, err
	}

	var created *model.Borrowing
	err := s.serialize(ctx, []string{lock.ItemKey(req.ItemID)}, func(tx store.Store) error {
		total, err := tx.TotalStock(ctx, req.ItemID)
		if err != nil {
			return err
		}
		active, err := tx.ActiveBorrowings(ctx, req.ItemID)
		if err != nil {
			return err
		}
		w := req.Window()
		if avail := availability.StockAvailable(total, active, w, s.clock.Now(), ""); avail < req.Quantity {
			return insufficient(req.ItemID, req.Quantity, avail, w)
		}

		b, err := lifecycle.NewBorrowing(s.newID(), req)
		if err != nil {
			return err
		}
		if err := tx.CreateBorrowing(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	s.outcome("reserve item", err, "item_id", req.ItemID, "user_id", req.UserID, "quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// mutateBorrowing loads the borrowing under its own key and saves it if fn succeeds.
func (s *Service) mutateBorrowing(ctx context.Context, op, id string, extraKeys []string,
	fn func(tx store.Store, b *model.Borrowing, now time.Time) (bool, error)) (*model.Borrowing, error) {

	var out *model.Borrowing
	keys := append([]string{lock.BorrowingKey(id)}, extraKeys...)
	err := s.serialize(ctx, keys, func(tx store.Store) error {
		current, err := tx.GetBorrowing(ctx, id, true)
		if err != nil {
			return err
		}
		next := *current
		changed, err := fn(tx, &next, s.clock.Now())
		if err != nil {
			return err
		}
		if changed {
			if err := tx.SaveBorrowing(ctx, &next); err != nil {
				return err
			}
		}
		out = &next
		return nil
	})
	s.outcome(op, err, "borrowing_id", id)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ActivateBorrowing confirms the physical hand-off. Repeating it changes nothing.
func (s *Service) ActivateBorrowing(ctx context.Context, id string) (*model.Borrowing, error) {
	return s.mutateBorrowing(ctx, "activate borrowing", id, nil, func(_ store.Store, b *model.Borrowing, now time.Time) (bool, error) {
		already := b.ActivatedAt != nil
		if err := lifecycle.Activate(b, now); err != nil {
			return false, err
		}
		return !already, nil
	})
}

// ExtendBorrowing moves the expected return date later, provided the added
// segment does not oversell the item.
func (s *Service) ExtendBorrowing(ctx context.Context, id string, newExpected time.Time) (*model.Borrowing, error) {
	newExpected = newExpected.UTC()
	current, err := s.store.GetBorrowing(ctx, id, false)
	if err != nil {
		return nil, err
	}

	return s.mutateBorrowing(ctx, "extend borrowing", id, []string{lock.ItemKey(current.ItemID)},
		func(tx store.Store, b *model.Borrowing, now time.Time) (bool, error) {
			added := lifecycle.ExtensionWindow(b, newExpected)
			if err := lifecycle.Extend(b, newExpected); err != nil {
				return false, err
			}
			total, err := tx.TotalStock(ctx, b.ItemID)
			if err != nil {
				return false, err
			}
			active, err := tx.ActiveBorrowings(ctx, b.ItemID)
			if err != nil {
				return false, err
			}
			if avail := availability.StockAvailable(total, active, added, now, b.ID); avail < b.Quantity {
				return false, insufficient(b.ItemID, b.Quantity, avail, added)
			}
			return true, nil
		})
}

// ReturnItem closes the borrowing and makes its quantity available immediately.
func (s *Service) ReturnItem(ctx context.Context, id string) (*model.Borrowing, error) {
	return s.mutateBorrowing(ctx, "return item", id, nil, func(_ store.Store, b *model.Borrowing, now time.Time) (bool, error) {
		return true, lifecycle.Return(b, now)
	})
}

// CancelBorrowing withdraws a borrowing that was never returned.
func (s *Service) CancelBorrowing(ctx context.Context, id string) (*model.Borrowing, error) {
	return s.mutateBorrowing(ctx, "cancel borrowing", id, nil, func(_ store.Store, b *model.Borrowing, _ time.Time) (bool, error) {
		return true, lifecycle.Cancel(b)
	})
}
