package parse

import (
	"fmt"
	"strings"
	"time"

	"warehouse-reservation-backend/internal/domain"
)

// Layouts accepted for timestamps without an explicit offset are read in the
// parser's location.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TimeParser converts client timestamps into UTC instants.
type TimeParser struct {
	loc *time.Location
}

// NewTimeParser loads the named IANA zone. An empty name means UTC.
func NewTimeParser(timezone string) (*TimeParser, error) {
	if timezone == "" {
		return &TimeParser{loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &TimeParser{loc: loc}, nil
}

// Time parses RFC 3339 or one of the local layouts.
func (p *TimeParser) Time(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, domain.NewError(domain.KindInvalidArgument, "timestamp is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.NewError(domain.KindInvalidArgument, fmt.Sprintf("unrecognised timestamp %q", raw))
}

// Window parses both bounds and rejects end <= start.
func (p *TimeParser) Window(start, end string) (domain.Window, error) {
	from, err := p.Time(start)
	if err != nil {
		return domain.Window{}, err
	}
	to, err := p.Time(end)
	if err != nil {
		return domain.Window{}, err
	}
	return domain.NewWindow(from, to)
}
