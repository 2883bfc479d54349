package scheduling

import (
	"context"
	"fmt"

	"warehouse-reservation-backend/internal/availability"
	"warehouse-reservation-backend/internal/directory"
	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
	"warehouse-reservation-backend/internal/store"
)

// BorrowingView is a borrowing with its status derived at read time.
type BorrowingView struct {
	model.Borrowing
	Status  model.BorrowingState `json:"status"`
	Overdue bool                 `json:"overdue"`
}

// TransportationView is a trip with overdue derived at read time.
type TransportationView struct {
	model.Transportation
	Overdue bool `json:"overdue"`
}

// BorrowingQuery filters ListBorrowings. Status accepts ACTIVE, OVERDUE,
// RETURNED or CANCELLED; ACTIVE excludes overdue borrowings.
type BorrowingQuery struct {
	ItemID string
	UserID string
	Status string
	Limit  int
	Offset int
}

// TransportQuery filters ListTransportations.
type TransportQuery struct {
	ItemID    string
	VehicleID string
	DriverID  string
	Status    string
	Overdue   bool
	Limit     int
	Offset    int
}

func (s *Service) ViewBorrowing(b model.Borrowing) BorrowingView {
	now := s.clock.Now()
	return BorrowingView{Borrowing: b, Status: b.Status(now), Overdue: b.IsOverdue(now)}
}

func (s *Service) ViewTransportation(t model.Transportation) TransportationView {
	return TransportationView{Transportation: t, Overdue: t.IsOverdue(s.clock.Now())}
}

func (s *Service) GetBorrowing(ctx context.Context, id string) (BorrowingView, error) {
	b, err := s.store.GetBorrowing(ctx, id, false)
	if err != nil {
		return BorrowingView{}, err
	}
	return s.ViewBorrowing(*b), nil
}

func (s *Service) GetTransportation(ctx context.Context, id string) (TransportationView, error) {
	t, err := s.store.GetTransportation(ctx, id, false)
	if err != nil {
		return TransportationView{}, err
	}
	return s.ViewTransportation(*t), nil
}

// ListBorrowings is not serialized and may observe slightly stale state.
func (s *Service) ListBorrowings(ctx context.Context, q BorrowingQuery) ([]BorrowingView, error) {
	now := s.clock.Now()
	f := store.BorrowingFilter{ItemID: q.ItemID, UserID: q.UserID, Limit: q.Limit, Offset: q.Offset}
	switch model.BorrowingState(q.Status) {
	case "":
	case model.BorrowingOverdue:
		f.OverdueAt = now
	case model.BorrowingActive:
		f.State = model.BorrowingActive
		f.DueFrom = now
	case model.BorrowingReturned, model.BorrowingCancelled:
		f.State = model.BorrowingState(q.Status)
	default:
		return nil, domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("unknown borrowing status %q", q.Status))
	}

	rows, err := s.store.ListBorrowings(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]BorrowingView, 0, len(rows))
	for _, b := range rows {
		out = append(out, BorrowingView{Borrowing: b, Status: b.Status(now), Overdue: b.IsOverdue(now)})
	}
	return out, nil
}

// ListOverdueBorrowings scans for active borrowings past their expected return date.
func (s *Service) ListOverdueBorrowings(ctx context.Context) ([]BorrowingView, error) {
	return s.ListBorrowings(ctx, BorrowingQuery{Status: string(model.BorrowingOverdue)})
}

func (s *Service) ListTransportations(ctx context.Context, q TransportQuery) ([]TransportationView, error) {
	now := s.clock.Now()
	f := store.TransportFilter{ItemID: q.ItemID, VehicleID: q.VehicleID, DriverID: q.DriverID, Limit: q.Limit, Offset: q.Offset}
	if q.Status != "" {
		st, ok := model.ParseTransportStatus(q.Status)
		if !ok {
			return nil, domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("unknown transportation status %q", q.Status))
		}
		f.Status = st
	}
	if q.Overdue {
		f.OverdueAt = now
	}

	rows, err := s.store.ListTransportations(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]TransportationView, 0, len(rows))
	for _, t := range rows {
		out = append(out, TransportationView{Transportation: t, Overdue: t.IsOverdue(now)})
	}
	return out, nil
}

// ListOverdueTransportations scans for in-progress trips past their scheduled arrival.
func (s *Service) ListOverdueTransportations(ctx context.Context) ([]TransportationView, error) {
	return s.ListTransportations(ctx, TransportQuery{Overdue: true})
}

// ItemAvailability reports stock for the item over w.
func (s *Service) ItemAvailability(ctx context.Context, itemID string, w domain.Window) (availability.StockReport, error) {
	w = domain.Window{Start: w.Start.UTC(), End: w.End.UTC()}
	if err := w.Validate(); err != nil {
		return availability.StockReport{}, err
	}
	if err := s.resolve(ctx, reference{directory.KindItem, itemID}); err != nil {
		return availability.StockReport{}, err
	}
	total, err := s.store.TotalStock(ctx, itemID)
	if err != nil {
		return availability.StockReport{}, err
	}
	active, err := s.store.ActiveBorrowings(ctx, itemID)
	if err != nil {
		return availability.StockReport{}, err
	}
	return availability.Stock(itemID, total, active, w, s.clock.Now()), nil
}

// ResourceAvailability lists the trips holding a vehicle or driver during w.
func (s *Service) ResourceAvailability(ctx context.Context, kind domain.ResourceKind, id string, w domain.Window) (availability.ResourceReport, error) {
	w = domain.Window{Start: w.Start.UTC(), End: w.End.UTC()}
	if err := w.Validate(); err != nil {
		return availability.ResourceReport{}, err
	}

	var vehicleID, driverID string
	var ref reference
	switch kind {
	case domain.ResourceVehicle:
		vehicleID, ref = id, reference{directory.KindVehicle, id}
	case domain.ResourceDriver:
		driverID, ref = id, reference{directory.KindUser, id}
	default:
		return availability.ResourceReport{}, domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("unknown resource kind %q", kind))
	}
	if err := s.resolve(ctx, ref); err != nil {
		return availability.ResourceReport{}, err
	}

	trips, err := s.store.HoldingTrips(ctx, vehicleID, driverID)
	if err != nil {
		return availability.ResourceReport{}, err
	}
	return availability.Resource(kind, id, trips, w, s.clock.Now()), nil
}
