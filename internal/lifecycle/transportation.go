package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"warehouse-reservation-backend/internal/domain"
	"warehouse-reservation-backend/internal/model"
)

// TransportRequest carries the fields of a new trip.
type TransportRequest struct {
	ItemID             string
	VehicleID          string
	DriverID           string
	FromStorageID      string
	ToStorageID        string
	Quantity           int
	ScheduledDeparture time.Time
	ScheduledArrival   time.Time
}

// Window returns the scheduled interval.
func (r TransportRequest) Window() domain.Window {
	return domain.Window{Start: r.ScheduledDeparture, End: r.ScheduledArrival}
}

// Normalize applies the default quantity of one unit.
func (r TransportRequest) Normalize() TransportRequest {
	if r.Quantity == 0 {
		r.Quantity = 1
	}
	return r
}

// Validate checks every field invariant of a trip before any lookup.
func (r TransportRequest) Validate() error {
	required := []struct{ name, value string }{
		{"item id", r.ItemID},
		{"vehicle id", r.VehicleID},
		{"driver id", r.DriverID},
		{"origin storage id", r.FromStorageID},
		{"destination storage id", r.ToStorageID},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return domain.NewError(domain.KindInvalidArgument, f.name+" is required")
		}
	}
	if r.FromStorageID == r.ToStorageID {
		return domain.NewError(domain.KindInvalidArgument, "origin and destination storage must differ")
	}
	if r.Quantity <= 0 {
		return domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("quantity must be positive, got %d", r.Quantity))
	}
	return r.Window().Validate()
}

// NewTransportation builds a PLANNED trip. Resource freedom is the caller's concern.
func NewTransportation(id string, r TransportRequest) (*model.Transportation, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &model.Transportation{
		ID:                 id,
		ItemID:             r.ItemID,
		VehicleID:          r.VehicleID,
		DriverID:           r.DriverID,
		FromStorageID:      r.FromStorageID,
		ToStorageID:        r.ToStorageID,
		Quantity:           r.Quantity,
		ScheduledDeparture: r.ScheduledDeparture,
		ScheduledArrival:   r.ScheduledArrival,
		Status:             model.TransportPlanned,
	}, nil
}

func transportTransition(t *model.Transportation, target model.TransportStatus) error {
	return domain.NewError(domain.KindInvalidTransition,
		fmt.Sprintf("transportation %s cannot move from %s to %s", t.ID, t.Status, target))
}

// Start records the actual departure.
func Start(t *model.Transportation, now time.Time) error {
	if t.Status != model.TransportPlanned {
		return transportTransition(t, model.TransportInProgress)
	}
	t.ActualDeparture = &now
	t.Status = model.TransportInProgress
	return nil
}

// Complete records the actual arrival.
func Complete(t *model.Transportation, now time.Time) error {
	if t.Status != model.TransportInProgress {
		return transportTransition(t, model.TransportCompleted)
	}
	t.ActualArrival = &now
	t.Status = model.TransportCompleted
	return nil
}

// CancelTrip releases the vehicle and driver.
func CancelTrip(t *model.Transportation) error {
	if !t.Status.Holding() {
		return transportTransition(t, model.TransportCancelled)
	}
	t.Status = model.TransportCancelled
	return nil
}

// Transition dispatches to the transition that reaches target.
func Transition(t *model.Transportation, target model.TransportStatus, now time.Time) error {
	switch target {
	case model.TransportInProgress:
		return Start(t, now)
	case model.TransportCompleted:
		return Complete(t, now)
	case model.TransportCancelled:
		return CancelTrip(t)
	}
	return transportTransition(t, target)
}
