// Package availability decides whether stock or an exclusive resource can be
// committed to a window. Every function is pure: callers pass a snapshot read
// inside the same transaction that will commit the result.
package availability

import (
	"cmp"
	"slices"
	"time"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

// BorrowingOccupancy returns the interval during which b keeps units out of stock.
// An overdue borrowing stays out until it is returned, so its interval is open-ended.
func BorrowingOccupancy(b *model.Borrowing, now time.Time) (domain.Window, bool) {
	if b.State != model.BorrowingActive || b.ActualReturnDate != nil {
		return domain.Window{}, false
	}
	w := b.Window()
	if b.IsOverdue(now) {
		w.End = time.Time{}
	}
	return w, true
}

// TripOccupancy returns the interval during which t holds its vehicle and driver.
// A trip still in progress past its scheduled arrival holds them open-endedly.
func TripOccupancy(t *model.Transportation, now time.Time) (domain.Window, bool) {
	if !t.Status.Holding() {
		return domain.Window{}, false
	}
	w := t.Window()
	if t.IsOverdue(now) {
		w.End = time.Time{}
	}
	return w, true
}

// Reserved sums the quantity of borrowings occupying any part of w.
// The borrowing with id excludeID is skipped.
func Reserved(borrowings []model.Borrowing, w domain.Window, now time.Time, excludeID string) int {
	n := 0
	for i := range borrowings {
		b := &borrowings[i]
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		occ, ok := BorrowingOccupancy(b, now)
		if ok && occ.Overlaps(w) {
			n += b.Quantity
		}
	}
	return n
}

// StockAvailable is total stock minus the quantity out on active or overdue
// borrowings intersecting w. It may be negative when stock was removed.
func StockAvailable(total int, borrowings []model.Borrowing, w domain.Window, now time.Time, excludeID string) int {
	return total - Reserved(borrowings, w, now, excludeID)
}

// StockFeasible reports whether quantity units can be committed over w.
func StockFeasible(total int, borrowings []model.Borrowing, w domain.Window, now time.Time, quantity int, excludeID string) bool {
	return StockAvailable(total, borrowings, w, now, excludeID) >= quantity
}

// PeakReserved is the largest quantity borrowings hold out at any single
// instant at or after from. Borrowings whose windows never overlap do not add
// up, matching the windowed check ReserveItem applies.
func PeakReserved(borrowings []model.Borrowing, from, now time.Time, excludeID string) int {
	type event struct {
		at    time.Time
		delta int
	}
	events := make([]event, 0, 2*len(borrowings))
	for i := range borrowings {
		b := &borrowings[i]
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		occ, ok := BorrowingOccupancy(b, now)
		if !ok || !occ.Overlaps(domain.Window{Start: from}) {
			continue
		}
		start := occ.Start
		if start.Before(from) {
			start = from
		}
		events = append(events, event{at: start, delta: b.Quantity})
		if !occ.OpenEnded() {
			events = append(events, event{at: occ.End, delta: -b.Quantity})
		}
	}

	// Ends sort before starts at the same instant: [a,b) and [b,c) never overlap.
	slices.SortFunc(events, func(x, y event) int {
		if c := x.at.Compare(y.at); c != 0 {
			return c
		}
		return cmp.Compare(x.delta, y.delta)
	})

	peak, held := 0, 0
	for _, e := range events {
		held += e.delta
		peak = max(peak, held)
	}
	return peak
}

// Outbound sums the quantity that planned or in-progress trips will carry
// out of storageID. The trip with id excludeID is skipped.
func Outbound(trips []model.Transportation, storageID, itemID, excludeID string) int {
	n := 0
	for i := range trips {
		t := &trips[i]
		if excludeID != "" && t.ID == excludeID {
			continue
		}
		if t.Status.Holding() && t.FromStorageID == storageID && t.ItemID == itemID {
			n += t.Quantity
		}
	}
	return n
}

// ResourceFree reports whether the vehicle or driver id has no holding trip
// intersecting w. When busy, the first conflicting trip is returned.
func ResourceFree(kind domain.ResourceKind, id string, trips []model.Transportation, w domain.Window, now time.Time) (bool, *domain.Conflict) {
	for i := range trips {
		t := &trips[i]
		if resourceOf(kind, t) != id {
			continue
		}
		occ, ok := TripOccupancy(t, now)
		if !ok || !occ.Overlaps(w) {
			continue
		}
		return false, &domain.Conflict{
			Resource:         kind,
			ResourceID:       id,
			TransportationID: t.ID,
			Window:           occ,
		}
	}
	return true, nil
}

// CheckTrip checks vehicle and driver against the same snapshot.
// The vehicle is reported first when both are busy.
func CheckTrip(vehicleID, driverID string, trips []model.Transportation, w domain.Window, now time.Time) error {
	if free, c := ResourceFree(domain.ResourceVehicle, vehicleID, trips, w, now); !free {
		return domain.Busy(*c)
	}
	if free, c := ResourceFree(domain.ResourceDriver, driverID, trips, w, now); !free {
		return domain.Busy(*c)
	}
	return nil
}

func resourceOf(kind domain.ResourceKind, t *model.Transportation) string {
	switch kind {
	case domain.ResourceVehicle:
		return t.VehicleID
	case domain.ResourceDriver:
		return t.DriverID
	}
	return ""
}

// StockReport is the read model for an item's availability over a window.
type StockReport struct {
	ItemID    string        `json:"itemId"`
	Window    domain.Window `json:"window"`
	Total     int           `json:"total"`
	Reserved  int           `json:"reserved"`
	Available int           `json:"available"`
}

// Stock builds a StockReport from a snapshot.
func Stock(itemID string, total int, borrowings []model.Borrowing, w domain.Window, now time.Time) StockReport {
	reserved := Reserved(borrowings, w, now, "")
	return StockReport{
		ItemID:    itemID,
		Window:    w,
		Total:     total,
		Reserved:  reserved,
		Available: total - reserved,
	}
}

// ResourceReport is the read model for a vehicle's or driver's schedule over a window.
type ResourceReport struct {
	Resource  domain.ResourceKind `json:"resource"`
	ID        string              `json:"id"`
	Window    domain.Window       `json:"window"`
	Free      bool                `json:"free"`
	Conflicts []domain.Conflict   `json:"conflicts"`
}

// Resource lists every holding trip of the resource that intersects w.
func Resource(kind domain.ResourceKind, id string, trips []model.Transportation, w domain.Window, now time.Time) ResourceReport {
	r := ResourceReport{Resource: kind, ID: id, Window: w, Conflicts: []domain.Conflict{}}
	for i := range trips {
		t := &trips[i]
		if resourceOf(kind, t) != id {
			continue
		}
		occ, ok := TripOccupancy(t, now)
		if ok && occ.Overlaps(w) {
			r.Conflicts = append(r.Conflicts, domain.Conflict{
				Resource: kind, ResourceID: id, TransportationID: t.ID, Window: occ,
			})
		}
	}
	r.Free = len(r.Conflicts) == 0
	return r
}
