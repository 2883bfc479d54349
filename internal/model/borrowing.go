package model

import (
	"time"

	"warehouse-reservation-backend/internal/domain"
)

// BorrowingState is the stored lifecycle state of a borrowing.
type BorrowingState string

const (
	BorrowingActive    BorrowingState = "ACTIVE"
	BorrowingReturned  BorrowingState = "RETURNED"
	BorrowingCancelled BorrowingState = "CANCELLED"

	// BorrowingOverdue is derived at read time and never persisted.
	BorrowingOverdue BorrowingState = "OVERDUE"
)

// Terminal reports whether no further transition is allowed.
func (s BorrowingState) Terminal() bool {
	return s == BorrowingReturned || s == BorrowingCancelled
}

// Borrowing reserves Quantity units of an item for a user over [BorrowDate, ExpectedReturnDate).
type Borrowing struct {
	ID                 string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ItemID             string         `gorm:"size:36;not null;index:idx_borrowings_item_state" json:"itemId"`
	UserID             string         `gorm:"size:36;not null;index" json:"userId"`
	Quantity           int            `gorm:"not null" json:"quantity"`
	Purpose            string         `gorm:"size:512" json:"purpose,omitempty"`
	BorrowDate         time.Time      `gorm:"not null" json:"borrowDate"`
	ExpectedReturnDate time.Time      `gorm:"not null;index" json:"expectedReturnDate"`
	ActualReturnDate   *time.Time     `json:"actualReturnDate,omitempty"`
	ActivatedAt        *time.Time     `json:"activatedAt,omitempty"`
	State              BorrowingState `gorm:"size:16;not null;index:idx_borrowings_item_state" json:"state"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Window returns the reserved interval.
func (b *Borrowing) Window() domain.Window {
	return domain.Window{Start: b.BorrowDate, End: b.ExpectedReturnDate}
}

// IsOverdue is true while the borrowing is active past its expected return date.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	return b.State == BorrowingActive && b.ActualReturnDate == nil && now.After(b.ExpectedReturnDate)
}

// Status is the display state, with OVERDUE derived from now.
func (b *Borrowing) Status(now time.Time) BorrowingState {
	if b.IsOverdue(now) {
		return BorrowingOverdue
	}
	return b.State
}
