package schedule

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Airo-DDS/laine-sub000/internal/config"
	redisclient "github.com/Airo-DDS/laine-sub000/internal/redis"
)

// DefaultOwnerRole is the staff role that owns patients created by the voice
// receptionist.
const DefaultOwnerRole = "dentist"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// BookingRequest is a caller's request to reserve one slot.
type BookingRequest struct {
	StartAt           time.Time
	Name              string
	Email             string
	SMSReminderNumber string
}

// BookingResult reports a completed reservation.
type BookingResult struct {
	Appointment *Appointment
	Patient     *Patient
	Message     string // spoken confirmation
}

// Service is the availability engine: it resolves free slots and executes
// booking transactions against the repository, serialized per slot by the
// locker.
type Service struct {
	repo      Repository
	locker    redisclient.Locker
	policy    Policy
	resolver  *Resolver
	formatter *Formatter
	dbTimeout time.Duration
	loc       *time.Location
	log       zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Service {
	policy := NewPolicy(cfg)
	return &Service{
		repo:      repo,
		locker:    locker,
		policy:    policy,
		resolver:  NewResolver(NewSlotGrid(policy, cfg.PracticeTZ), cfg.PracticeTZ),
		formatter: NewFormatter(cfg.PracticeTZ),
		dbTimeout: cfg.DBTimeout,
		loc:       cfg.PracticeTZ,
		log:       log,
		now:       time.Now,
	}
}

// Formatter exposes the speech formatter sharing this service's timezone.
func (s *Service) Formatter() *Formatter { return s.formatter }

// CheckAvailability resolves the free-slot set for a window.
func (s *Service) CheckAvailability(ctx context.Context, window AvailabilityWindow) (Availability, error) {
	window = window.Normalize()

	// The grid spans whole practice-local days, so fetch bookings for the
	// same normalized range.
	from := dayStart(window.Start.In(s.loc))
	to := dayStart(window.End.In(s.loc)).AddDate(0, 0, 1)

	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	booked, err := s.repo.ListBookedStarts(dbCtx, from, to)
	if err != nil {
		return Availability{}, NewDependencyUnavailable(fmt.Errorf("list booked starts: %w", err))
	}

	return s.resolver.Resolve(window, booked), nil
}

// Book atomically reserves a slot: policy check, input validation, conflict
// check, patient find-or-create, appointment insert. Concurrent attempts on
// the same instant are serialized by the slot lock; the storage layer's
// unique constraint backstops the conflict check either way.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if err := s.policy.CheckBookable(req.StartAt, s.now()); err != nil {
		return nil, err
	}
	if err := validateBooking(req); err != nil {
		return nil, err
	}

	var result *BookingResult

	err := s.locker.WithSlotLock(ctx, req.StartAt, func(lockCtx context.Context) error {
		booked, err := s.listBookedAt(lockCtx, req.StartAt)
		if err != nil {
			return err
		}
		if booked {
			return NewSlotConflict("that time was just taken, please pick another")
		}

		patient, created, err := s.findOrCreatePatient(lockCtx, req)
		if err != nil {
			return err
		}

		patientType := PatientExisting
		if created {
			patientType = PatientNew
		}

		appt, err := s.createAppointment(lockCtx, req, patient, patientType)
		if err != nil {
			if created {
				s.rollbackPatient(lockCtx, patient.ID, err)
			}
			return err
		}

		result = &BookingResult{
			Appointment: appt,
			Patient:     patient,
			Message:     s.formatter.SpeakConfirmation(req.Name, appt.StartAt),
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, NewSlotConflict("that time is currently being booked, please try again shortly")
		}
		return nil, err
	}

	return result, nil
}

func validateBooking(req BookingRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return NewValidationError("a name is required to book an appointment")
	}
	if !emailPattern.MatchString(req.Email) {
		return NewValidationError("%q does not look like a valid email address", req.Email)
	}
	return nil
}

func (s *Service) listBookedAt(ctx context.Context, startAt time.Time) (bool, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	starts, err := s.repo.ListBookedStarts(dbCtx, startAt, startAt.Add(SlotDuration))
	if err != nil {
		return false, NewDependencyUnavailable(fmt.Errorf("check slot conflict: %w", err))
	}
	for _, t := range starts {
		if t.Equal(startAt) {
			return true, nil
		}
	}
	return false, nil
}

// findOrCreatePatient looks the caller up by email and creates a record when
// absent, owned by the practice's configured default staff user.
func (s *Service) findOrCreatePatient(ctx context.Context, req BookingRequest) (*Patient, bool, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	existing, err := s.repo.FindPatientByEmail(dbCtx, req.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, false, NewDependencyUnavailable(fmt.Errorf("find patient: %w", err))
	}

	owner, err := s.repo.FindStaffByRole(dbCtx, DefaultOwnerRole)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			s.log.Error().Str("role", DefaultOwnerRole).
				Msg("no staff user available to own new patients; booking cannot proceed")
			return nil, false, NewConfigurationFault(fmt.Errorf("no staff user in role %q", DefaultOwnerRole))
		}
		return nil, false, NewDependencyUnavailable(fmt.Errorf("find staff owner: %w", err))
	}

	first, last := splitName(req.Name)
	p := Patient{
		FirstName: first,
		LastName:  last,
		Email:     &req.Email,
		OwnerID:   owner.ID,
	}
	if req.SMSReminderNumber != "" {
		p.Phone = &req.SMSReminderNumber
	}

	created, err := s.repo.CreatePatient(dbCtx, p)
	if err != nil {
		return nil, false, NewDependencyUnavailable(fmt.Errorf("create patient: %w", err))
	}
	return created, true, nil
}

func (s *Service) createAppointment(ctx context.Context, req BookingRequest, patient *Patient, patientType PatientType) (*Appointment, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	appt, err := s.repo.CreateAppointment(dbCtx, Appointment{
		StartAt:     req.StartAt.UTC(),
		Reason:      "Appointment booked via AI voice receptionist",
		PatientType: patientType,
		Status:      StatusScheduled,
		PatientID:   patient.ID,
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, NewSlotConflict("that time was just taken, please pick another")
		}
		return nil, NewDependencyUnavailable(fmt.Errorf("create appointment: %w", err))
	}
	return appt, nil
}

// rollbackPatient best-effort deletes a patient created earlier in a booking
// that then failed. A rollback failure is logged loudly and never masks the
// original error.
func (s *Service) rollbackPatient(ctx context.Context, patientID uuid.UUID, cause error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	if err := s.repo.DeletePatient(dbCtx, patientID); err != nil {
		s.log.Error().Err(err).
			Str("patient_id", patientID.String()).
			AnErr("booking_error", cause).
			Msg("failed to roll back patient created for failed booking")
		return
	}
	s.log.Warn().Str("patient_id", patientID.String()).
		Msg("rolled back patient created for failed booking")
}

// splitName splits a full name at the first whitespace boundary.
func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if i := strings.IndexAny(full, " \t"); i >= 0 {
		return full[:i], strings.TrimSpace(full[i+1:])
	}
	return full, "Unknown"
}

// Staff operations

func (s *Service) ListAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	appts, err := s.repo.ListAppointments(dbCtx, from, to)
	if err != nil {
		return nil, NewDependencyUnavailable(fmt.Errorf("list appointments: %w", err))
	}
	return appts, nil
}

// TransitionAppointment moves an appointment to the target lifecycle status.
// Allowed: SCHEDULED -> CONFIRMED; SCHEDULED|CONFIRMED -> CANCELLED|COMPLETED.
func (s *Service) TransitionAppointment(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	var from []AppointmentStatus
	switch to {
	case StatusConfirmed:
		from = []AppointmentStatus{StatusScheduled}
	case StatusCancelled, StatusCompleted:
		from = []AppointmentStatus{StatusScheduled, StatusConfirmed}
	default:
		return nil, NewValidationError("cannot transition an appointment to %s", to)
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	// Distinguish "no such appointment" from "wrong current status".
	current, err := s.repo.GetAppointment(dbCtx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, NewDependencyUnavailable(fmt.Errorf("load appointment: %w", err))
	}

	updated, err := s.repo.UpdateAppointmentStatus(dbCtx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, NewSlotConflict(fmt.Sprintf("appointment is %s and cannot become %s", current.Status, to))
		}
		return nil, NewDependencyUnavailable(fmt.Errorf("update appointment status: %w", err))
	}
	return updated, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	err := s.repo.DeleteAppointment(dbCtx, id)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return NewDependencyUnavailable(fmt.Errorf("delete appointment: %w", err))
	}
	return err
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	patients, err := s.repo.ListPatients(dbCtx)
	if err != nil {
		return nil, NewDependencyUnavailable(fmt.Errorf("list patients: %w", err))
	}
	return patients, nil
}

func (s *Service) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if strings.TrimSpace(p.FirstName) == "" {
		return nil, NewValidationError("first name is required")
	}
	if p.Email != nil && !emailPattern.MatchString(*p.Email) {
		return nil, NewValidationError("%q does not look like a valid email address", *p.Email)
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	if p.OwnerID == uuid.Nil {
		owner, err := s.repo.FindStaffByRole(dbCtx, DefaultOwnerRole)
		if err != nil {
			if errors.Is(err, ErrStaffNotFound) {
				return nil, NewConfigurationFault(fmt.Errorf("no staff user in role %q", DefaultOwnerRole))
			}
			return nil, NewDependencyUnavailable(fmt.Errorf("find staff owner: %w", err))
		}
		p.OwnerID = owner.ID
	}

	created, err := s.repo.CreatePatient(dbCtx, p)
	if err != nil {
		return nil, NewDependencyUnavailable(fmt.Errorf("create patient: %w", err))
	}
	return created, nil
}
