// Package lifecycle owns the Borrowing and Transportation state machines.
// A rejected transition returns a typed error and leaves the record untouched.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

// BorrowRequest carries the fields of a new borrowing.
type BorrowRequest struct {
	ItemID             string
	UserID             string
	Quantity           int
	BorrowDate         time.Time
	ExpectedReturnDate time.Time
	Purpose            string
}

// Window returns the requested interval.
func (r BorrowRequest) Window() domain.Window {
	return domain.Window{Start: r.BorrowDate, End: r.ExpectedReturnDate}
}

// Validate checks every field invariant of a borrowing before any lookup.
func (r BorrowRequest) Validate() error {
	if strings.TrimSpace(r.ItemID) == "" {
		return domain.NewError(domain.KindInvalidArgument, "item id is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return domain.NewError(domain.KindInvalidArgument, "user id is required")
	}
	if r.Quantity <= 0 {
		return domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("quantity must be positive, got %d", r.Quantity))
	}
	return r.Window().Validate()
}

// NewBorrowing builds an ACTIVE borrowing. Stock feasibility is the caller's concern.
func NewBorrowing(id string, r BorrowRequest) (*model.Borrowing, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &model.Borrowing{
		ID:                 id,
		ItemID:             r.ItemID,
		UserID:             r.UserID,
		Quantity:           r.Quantity,
		Purpose:            r.Purpose,
		BorrowDate:         r.BorrowDate,
		ExpectedReturnDate: r.ExpectedReturnDate,
		State:              model.BorrowingActive,
	}, nil
}

func borrowingTransition(b *model.Borrowing, op string) error {
	return domain.NewError(domain.KindInvalidTransition,
		fmt.Sprintf("cannot %s borrowing %s in state %s", op, b.ID, b.State))
}

// Activate confirms the hand-off. Repeating it is a no-op.
func Activate(b *model.Borrowing, now time.Time) error {
	if b.State != model.BorrowingActive {
		return borrowingTransition(b, "activate")
	}
	if b.ActivatedAt == nil {
		b.ActivatedAt = &now
	}
	return nil
}

// Extend moves the expected return date later. Overdue borrowings may be extended.
func Extend(b *model.Borrowing, newExpected time.Time) error {
	if b.State != model.BorrowingActive || b.ActualReturnDate != nil {
		return borrowingTransition(b, "extend")
	}
	if !newExpected.After(b.ExpectedReturnDate) {
		return domain.NewError(domain.KindInvalidWindow, fmt.Sprintf("new return date %s must be after %s",
			newExpected.Format(time.RFC3339), b.ExpectedReturnDate.Format(time.RFC3339)))
	}
	b.ExpectedReturnDate = newExpected
	return nil
}

// ExtensionWindow is the segment an extension adds to the borrowing.
func ExtensionWindow(b *model.Borrowing, newExpected time.Time) domain.Window {
	return domain.Window{Start: b.ExpectedReturnDate, End: newExpected}
}

// Return closes the borrowing and releases its stock.
func Return(b *model.Borrowing, now time.Time) error {
	if b.State != model.BorrowingActive {
		return borrowingTransition(b, "return")
	}
	b.ActualReturnDate = &now
	b.State = model.BorrowingReturned
	return nil
}

// Cancel withdraws a borrowing that was never returned.
func Cancel(b *model.Borrowing) error {
	if b.State != model.BorrowingActive || b.ActualReturnDate != nil {
		return borrowingTransition(b, "cancel")
	}
	b.State = model.BorrowingCancelled
	return nil
}
