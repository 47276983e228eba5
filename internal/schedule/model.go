package schedule

import (
	"time"

	"github.com/google/uuid"
)

// SlotDuration is the fixed appointment granularity for the practice.
const SlotDuration = 30 * time.Minute

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// Active reports whether an appointment in this status occupies its slot.
// Cancelled and completed appointments free the instant for rebooking.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

type PatientType string

const (
	PatientNew      PatientType = "NEW"
	PatientExisting PatientType = "EXISTING"
)

type Appointment struct {
	ID          uuid.UUID
	StartAt     time.Time // absolute instant, stored in UTC
	Reason      string
	PatientType PatientType
	Status      AppointmentStatus
	Notes       *string
	PatientID   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Patient struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	OwnerID   uuid.UUID // staff user responsible for this patient
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StaffUser struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      string // e.g. "dentist", "assistant"
	CreatedAt time.Time
}

// Slot is a transient candidate appointment start. It exists only within a
// single availability resolution and is never persisted.
type Slot struct {
	StartAt  time.Time
	Duration time.Duration
}

// AvailabilityWindow is the caller-specified range to search for free slots.
type AvailabilityWindow struct {
	Start time.Time
	End   time.Time
	// RequestedAt is set when the window is narrow enough to mean "the caller
	// asked about one specific time"; free slots are then ranked by proximity
	// to it instead of grouped by day.
	RequestedAt *time.Time
}

// narrowWindow is the span at or under which a window is treated as a
// request for one specific time.
const narrowWindow = time.Hour

// Normalize orders the bounds and infers RequestedAt for narrow windows,
// using the window midpoint as the instant the caller asked about.
func (w AvailabilityWindow) Normalize() AvailabilityWindow {
	if w.End.Before(w.Start) {
		w.Start, w.End = w.End, w.Start
	}
	if w.RequestedAt == nil && w.End.Sub(w.Start) < narrowWindow {
		mid := w.Start.Add(w.End.Sub(w.Start) / 2)
		w.RequestedAt = &mid
	}
	return w
}

// DaySlots groups free slots belonging to one practice-local calendar day.
type DaySlots struct {
	Day   time.Time // midnight, practice-local
	Slots []Slot
}

// Availability is the resolver's result. Exactly one of Ranked or Days is
// populated when free slots exist; both empty means no availability.
type Availability struct {
	// RequestedAt echoes the instant proximity ranking was computed against.
	RequestedAt *time.Time
	// Ranked holds the nearest free slots to RequestedAt, closest first.
	Ranked []Slot
	// Days holds free slots grouped by practice-local day, earliest day first.
	Days []DaySlots
}

// Empty reports whether no free slot was found in the window.
func (a Availability) Empty() bool {
	return len(a.Ranked) == 0 && len(a.Days) == 0
}
