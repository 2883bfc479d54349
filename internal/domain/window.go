package domain

import (
	"fmt"
	"time"
)

// Window is a half-open time interval [Start, End).
// A zero End means the interval is open-ended.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow builds a window and rejects end <= start.
func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate reports InvalidWindow when the window is empty or inverted.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return NewError(KindInvalidWindow, "window start and end are required")
	}
	if !w.End.After(w.Start) {
		return NewError(KindInvalidWindow, fmt.Sprintf("window end %s must be after start %s",
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339)))
	}
	return nil
}

// OpenEnded reports whether the window has no upper bound.
func (w Window) OpenEnded() bool {
	return w.End.IsZero()
}

// Overlaps uses closed-open semantics: [a,b) and [c,d) intersect iff a < d and c < b.
// A window ending exactly when another begins does not overlap it.
func (w Window) Overlaps(o Window) bool {
	startsBeforeOtherEnds := o.OpenEnded() || w.Start.Before(o.End)
	otherStartsBeforeEnd := w.OpenEnded() || o.Start.Before(w.End)
	return startsBeforeOtherEnds && otherStartsBeforeEnd
}

// Duration returns the window length, or zero for open-ended windows.
func (w Window) Duration() time.Duration {
	if w.OpenEnded() {
		return 0
	}
	return w.End.Sub(w.Start)
}

func (w Window) String() string {
	end := "∞"
	if !w.OpenEnded() {
		end = w.End.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("[%s, %s)", w.Start.UTC().Format(time.RFC3339), end)
}
