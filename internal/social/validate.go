package social

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ValidationError describes why a record was rejected before it was sent or
// stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the invariants every stored post must hold. Scheduled
// posts need a resolvable date and time; the time may be in the past.
func (p *Post) Validate() error {
	if !p.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", p.Status)}
	}
	if len(p.Platforms) == 0 {
		return &ValidationError{Field: "platforms", Message: "at least one platform is required"}
	}
	for _, pl := range p.Platforms {
		if !pl.Valid() {
			return &ValidationError{Field: "platforms", Message: fmt.Sprintf("unknown platform %q", pl)}
		}
	}
	if p.Status == StatusScheduled {
		if p.ScheduledDate == "" || p.ScheduledTime == "" {
			return &ValidationError{Field: "scheduledDate", Message: "scheduled posts need a date and time"}
		}
		if _, err := p.ScheduledAt(time.UTC); err != nil {
			return &ValidationError{Field: "scheduledDate", Message: err.Error()}
		}
	}
	return nil
}

// ScheduledAt combines ScheduledDate and ScheduledTime in loc. A full
// RFC 3339 timestamp in ScheduledDate is accepted as well, since some
// backends return it that way.
func (p *Post) ScheduledAt(loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, p.ScheduledDate); err == nil {
		return t, nil
	}
	date := p.ScheduledDate
	if i := strings.IndexByte(date, 'T'); i > 0 {
		date = date[:i]
	}
	clock := p.ScheduledTime
	if clock == "" {
		clock = "00:00"
	}
	if len(clock) > 5 {
		clock = clock[:5]
	}
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing schedule %q %q: %w", p.ScheduledDate, p.ScheduledTime, err)
	}
	return t, nil
}

// InMonth reports whether the post is scheduled in the given calendar month.
func (p *Post) InMonth(year int, month time.Month) bool {
	t, err := p.ScheduledAt(time.UTC)
	if err != nil {
		return false
	}
	return t.Year() == year && t.Month() == month
}
