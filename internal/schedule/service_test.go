package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Airo-DDS/laine-sub000/internal/config"
)

// memRepository is an in-memory Repository for service tests. It enforces
// the same active-start uniqueness the Postgres partial index does.
type memRepository struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	patients     map[uuid.UUID]*Patient
	staff        []StaffUser

	failCreateAppointment error
	failDeletePatient     error
	failListBooked        error
}

func newMemRepository() *memRepository {
	return &memRepository{
		appointments: make(map[uuid.UUID]*Appointment),
		patients:     make(map[uuid.UUID]*Patient),
	}
}

func (r *memRepository) addDentist() StaffUser {
	u := StaffUser{ID: uuid.New(), Name: "Dr. Okafor", Email: "okafor@example.com", Role: DefaultOwnerRole}
	r.staff = append(r.staff, u)
	return u
}

func (r *memRepository) ListBookedStarts(_ context.Context, from, to time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failListBooked != nil {
		return nil, r.failListBooked
	}
	var starts []time.Time
	for _, a := range r.appointments {
		if a.Status.Active() && !a.StartAt.Before(from) && a.StartAt.Before(to) {
			starts = append(starts, a.StartAt)
		}
	}
	return starts, nil
}

func (r *memRepository) ListAppointments(_ context.Context, from, to time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Appointment
	for _, a := range r.appointments {
		if !a.StartAt.Before(from) && a.StartAt.Before(to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memRepository) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memRepository) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateAppointment != nil {
		return nil, r.failCreateAppointment
	}
	for _, existing := range r.appointments {
		if existing.Status.Active() && existing.StartAt.Equal(a.StartAt) {
			return nil, ErrSlotTaken
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.appointments[a.ID] = &a
	copied := a
	return &copied, nil
}

func (r *memRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	for _, f := range from {
		if a.Status == f {
			a.Status = to
			a.UpdatedAt = time.Now()
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *memRepository) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *memRepository) FindPatientByEmail(_ context.Context, email string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.Email != nil && strings.EqualFold(*p.Email, email) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *memRepository) CreatePatient(_ context.Context, p Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.patients[p.ID] = &p
	copied := p
	return &copied, nil
}

func (r *memRepository) DeletePatient(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDeletePatient != nil {
		return r.failDeletePatient
	}
	if _, ok := r.patients[id]; !ok {
		return ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *memRepository) ListPatients(_ context.Context) ([]Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Patient
	for _, p := range r.patients {
		result = append(result, *p)
	}
	return result, nil
}

func (r *memRepository) FindStaffByRole(_ context.Context, role string) (*StaffUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.staff {
		if u.Role == role {
			copied := u
			return &copied, nil
		}
	}
	return nil, ErrStaffNotFound
}

// memLocker serializes critical sections the way the Redis slot lock does.
type memLocker struct {
	mu sync.Mutex
}

func (l *memLocker) WithSlotLock(ctx context.Context, _ time.Time, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

func newTestService(repo *memRepository) *Service {
	svc := NewService(repo, &memLocker{}, testConfig(config.PolicyBusinessHours), zerolog.Nop())
	svc.now = func() time.Time { return monday }
	return svc
}

func validBooking() BookingRequest {
	return BookingRequest{
		StartAt: monday.Add(14 * time.Hour), // Monday 2:00 PM
		Name:    "John Daniel",
		Email:   "john.daniel@example.com",
	}
}

func TestBook_CreatesNewPatientAndAppointment(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	result, err := svc.Book(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if result.Appointment.Status != StatusScheduled {
		t.Errorf("status = %s, want SCHEDULED", result.Appointment.Status)
	}
	if result.Appointment.PatientType != PatientNew {
		t.Errorf("patient type = %s, want NEW", result.Appointment.PatientType)
	}
	if len(repo.patients) != 1 {
		t.Fatalf("want 1 patient, got %d", len(repo.patients))
	}
	if result.Patient.FirstName != "John" || result.Patient.LastName != "Daniel" {
		t.Errorf("patient name = %s %s, want John Daniel", result.Patient.FirstName, result.Patient.LastName)
	}
	if !strings.Contains(result.Message, "John Daniel") {
		t.Errorf("confirmation should name the caller, got %q", result.Message)
	}
	if !strings.Contains(result.Message, "2:00 PM") {
		t.Errorf("confirmation should speak the local time, got %q", result.Message)
	}
}

func TestBook_ExistingPatientNotDuplicated(t *testing.T) {
	repo := newMemRepository()
	dentist := repo.addDentist()
	email := "john.daniel@example.com"
	repo.CreatePatient(context.Background(), Patient{
		FirstName: "John", LastName: "Daniel", Email: &email, OwnerID: dentist.ID,
	})
	svc := newTestService(repo)

	result, err := svc.Book(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if result.Appointment.PatientType != PatientExisting {
		t.Errorf("patient type = %s, want EXISTING", result.Appointment.PatientType)
	}
	if len(repo.patients) != 1 {
		t.Errorf("existing patient duplicated: %d records", len(repo.patients))
	}
}

func TestBook_EmailMatchIsCaseInsensitive(t *testing.T) {
	repo := newMemRepository()
	dentist := repo.addDentist()
	email := "John.Daniel@Example.com"
	repo.CreatePatient(context.Background(), Patient{
		FirstName: "John", LastName: "Daniel", Email: &email, OwnerID: dentist.ID,
	})
	svc := newTestService(repo)

	result, err := svc.Book(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if result.Appointment.PatientType != PatientExisting {
		t.Errorf("patient type = %s, want EXISTING", result.Appointment.PatientType)
	}
}

func TestBook_ValidationErrors(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	req := validBooking()
	req.Name = "   "
	if _, err := svc.Book(context.Background(), req); KindOf(err) != KindValidation {
		t.Errorf("blank name: want validation error, got %v", err)
	}

	req = validBooking()
	req.Email = "not-an-email"
	if _, err := svc.Book(context.Background(), req); KindOf(err) != KindValidation {
		t.Errorf("bad email: want validation error, got %v", err)
	}
}

func TestBook_PolicyViolation(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	req := validBooking()
	req.StartAt = monday.AddDate(0, 0, 5).Add(10 * time.Hour) // Saturday
	_, err := svc.Book(context.Background(), req)
	if KindOf(err) != KindPolicy {
		t.Errorf("want policy violation, got %v", err)
	}
	if len(repo.patients) != 0 {
		t.Error("rejected booking must not create a patient")
	}
}

func TestBook_SlotConflict(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	if _, err := svc.Book(context.Background(), validBooking()); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	second := validBooking()
	second.Email = "other.caller@example.com"
	_, err := svc.Book(context.Background(), second)
	if KindOf(err) != KindConflict {
		t.Errorf("want conflict, got %v", err)
	}
}

func TestBook_CancelledSlotIsReusable(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	result, err := svc.Book(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.TransitionAppointment(context.Background(), result.Appointment.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second := validBooking()
	second.Email = "other.caller@example.com"
	if _, err := svc.Book(context.Background(), second); err != nil {
		t.Errorf("cancelled slot should be bookable again: %v", err)
	}
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i, email := range []string{"a@example.com", "b@example.com"} {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			req := validBooking()
			req.Email = email
			_, err := svc.Book(context.Background(), req)
			results <- err
		}(i, email)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case KindOf(err) == KindConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("want exactly one success and one conflict, got %d/%d", successes, conflicts)
	}
}

func TestBook_RollsBackNewPatientOnFailure(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	repo.failCreateAppointment = errors.New("insert blew up")
	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), validBooking())
	if KindOf(err) != KindUnavailable {
		t.Fatalf("want dependency-unavailable, got %v", err)
	}
	if len(repo.patients) != 0 {
		t.Errorf("patient not rolled back: %d records remain", len(repo.patients))
	}
}

func TestBook_RollbackFailureDoesNotMaskError(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	repo.failCreateAppointment = errors.New("insert blew up")
	repo.failDeletePatient = errors.New("delete also blew up")
	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), validBooking())
	if KindOf(err) != KindUnavailable {
		t.Fatalf("original error masked, got %v", err)
	}
	if len(repo.patients) != 1 {
		t.Errorf("want the orphaned patient left in place, got %d records", len(repo.patients))
	}
}

func TestBook_NoDentistConfigured(t *testing.T) {
	repo := newMemRepository() // no staff at all
	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), validBooking())
	if KindOf(err) != KindConfiguration {
		t.Errorf("want configuration fault, got %v", err)
	}
}

func TestBook_NameWithoutWhitespace(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	req := validBooking()
	req.Name = "Cher"
	result, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if result.Patient.FirstName != "Cher" || result.Patient.LastName != "Unknown" {
		t.Errorf("patient name = %s %s, want Cher Unknown", result.Patient.FirstName, result.Patient.LastName)
	}
}

func TestCheckAvailability_RoundTrip(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	window := AvailabilityWindow{Start: monday, End: monday.Add(23 * time.Hour)}

	before, err := svc.CheckAvailability(context.Background(), window)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	firstOffer := before.Days[0].Slots[0].StartAt
	if !firstOffer.Equal(monday.Add(9 * time.Hour)) {
		t.Fatalf("first offer = %s, want 09:00", firstOffer)
	}

	req := validBooking()
	req.StartAt = firstOffer
	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("book offered slot: %v", err)
	}

	after, err := svc.CheckAvailability(context.Background(), window)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	for _, d := range after.Days {
		for _, s := range d.Slots {
			if s.StartAt.Equal(firstOffer) {
				t.Fatal("booked slot still offered")
			}
		}
	}
}

func TestCheckAvailability_DependencyFailure(t *testing.T) {
	repo := newMemRepository()
	repo.failListBooked = errors.New("connection refused")
	svc := newTestService(repo)

	_, err := svc.CheckAvailability(context.Background(), AvailabilityWindow{Start: monday, End: monday.AddDate(0, 0, 1)})
	if KindOf(err) != KindUnavailable {
		t.Errorf("want dependency-unavailable, got %v", err)
	}
}

func TestTransitionAppointment(t *testing.T) {
	repo := newMemRepository()
	repo.addDentist()
	svc := newTestService(repo)

	result, err := svc.Book(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	id := result.Appointment.ID

	confirmed, err := svc.TransitionAppointment(context.Background(), id, StatusConfirmed)
	if err != nil || confirmed.Status != StatusConfirmed {
		t.Fatalf("confirm: %v (status %v)", err, confirmed)
	}

	completed, err := svc.TransitionAppointment(context.Background(), id, StatusCompleted)
	if err != nil || completed.Status != StatusCompleted {
		t.Fatalf("complete: %v", err)
	}

	// A completed appointment cannot be cancelled.
	_, err = svc.TransitionAppointment(context.Background(), id, StatusCancelled)
	if KindOf(err) != KindConflict {
		t.Errorf("cancel completed: want conflict, got %v", err)
	}

	_, err = svc.TransitionAppointment(context.Background(), uuid.New(), StatusCancelled)
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("unknown id: want not-found, got %v", err)
	}

	_, err = svc.TransitionAppointment(context.Background(), id, StatusScheduled)
	if KindOf(err) != KindValidation {
		t.Errorf("transition to SCHEDULED: want validation error, got %v", err)
	}
}
