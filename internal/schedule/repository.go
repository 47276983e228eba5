package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrStaffNotFound       = errors.New("staff user not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned by CreateAppointment when an active
	// appointment already holds the start instant. The storage layer's
	// partial unique index is the source of truth for this.
	ErrSlotTaken = errors.New("slot already booked")
)

// Repository contains all persistence interactions needed by the scheduling
// core.
type Repository interface {
	// ListBookedStarts returns start instants of SCHEDULED or CONFIRMED
	// appointments with start in [from, to).
	ListBookedStarts(ctx context.Context, from, to time.Time) ([]time.Time, error)

	ListAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateAppointmentStatus transitions id from one of the given statuses
	// to the target; ErrAppointmentNotFound when no row matches.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	FindPatientByEmail(ctx context.Context, email string) (*Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
	ListPatients(ctx context.Context) ([]Patient, error)

	// FindStaffByRole returns the first (oldest) staff user in the role.
	FindStaffByRole(ctx context.Context, role string) (*StaffUser, error)
}
