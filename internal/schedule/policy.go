package schedule

import (
	"fmt"
	"time"

	"github.com/Airo-DDS/laine-sub000/internal/config"
)

// Policy decides which calendar days and start times are eligible for
// appointments. The availability-check path and the booking path share one
// policy instance so the two can never disagree within a deployment.
type Policy interface {
	// EligibleDay reports whether any slot may start on the practice-local
	// day containing t, with a human-readable reason when it may not.
	EligibleDay(t time.Time) (bool, string)

	// EligibleStart reports whether a slot may start at exactly t. Day and
	// time-of-day rules only; existing bookings and the past-time cutoff are
	// checked elsewhere.
	EligibleStart(t time.Time) (bool, string)

	// CheckBookable applies every policy rule plus the past-time cutoff
	// relative to now. Returns a policy-violation error when t is ineligible.
	CheckBookable(t, now time.Time) error
}

// NewPolicy selects the configured policy variant.
func NewPolicy(cfg config.Config) Policy {
	if cfg.CalendarPolicy == config.PolicyOpen {
		return &openPolicy{loc: cfg.PracticeTZ, pastCutoff: cfg.PastCutoff}
	}
	return &businessHoursPolicy{
		loc:        cfg.PracticeTZ,
		open:       cfg.OpenTime,
		close:      cfg.CloseTime,
		pastCutoff: cfg.PastCutoff,
	}
}

// openPolicy accepts any day and any slot-aligned time; only the past-time
// cutoff applies at booking.
type openPolicy struct {
	loc        *time.Location
	pastCutoff time.Duration
}

func (p *openPolicy) EligibleDay(time.Time) (bool, string) { return true, "" }

func (p *openPolicy) EligibleStart(time.Time) (bool, string) { return true, "" }

func (p *openPolicy) CheckBookable(t, now time.Time) error {
	return checkNotPast(t, now, p.pastCutoff)
}

// businessHoursPolicy accepts Monday through Friday, at half-hour boundaries
// between the configured open and close times, close inclusive as the last
// slot start.
type businessHoursPolicy struct {
	loc        *time.Location
	open       config.TimeOfDay
	close      config.TimeOfDay
	pastCutoff time.Duration
}

func (p *businessHoursPolicy) EligibleDay(t time.Time) (bool, string) {
	switch t.In(p.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false, "not a business day"
	}
	return true, ""
}

func (p *businessHoursPolicy) EligibleStart(t time.Time) (bool, string) {
	if ok, reason := p.EligibleDay(t); !ok {
		return false, reason
	}

	local := t.In(p.loc)
	if local.Minute()%30 != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
		return false, "appointments start on the hour or half hour"
	}

	minutes := local.Hour()*60 + local.Minute()
	if minutes < p.open.Minutes() || minutes > p.close.Minutes() {
		return false, fmt.Sprintf("outside business hours (%s to %s)", p.open, p.close)
	}
	return true, ""
}

func (p *businessHoursPolicy) CheckBookable(t, now time.Time) error {
	if ok, reason := p.EligibleStart(t); !ok {
		return NewPolicyViolation(reason)
	}
	return checkNotPast(t, now, p.pastCutoff)
}

func checkNotPast(t, now time.Time, cutoff time.Duration) error {
	if t.Before(now.Add(-cutoff)) {
		return NewPolicyViolation("that time has already passed")
	}
	return nil
}
