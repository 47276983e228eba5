package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Airo-DDS/laine-sub000/internal/db"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS staff_users (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		email text NOT NULL UNIQUE,
		role text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id uuid PRIMARY KEY,
		first_name text NOT NULL,
		last_name text NOT NULL,
		email text,
		phone text,
		owner_id uuid NOT NULL REFERENCES staff_users(id),
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id uuid PRIMARY KEY,
		start_at timestamptz NOT NULL,
		reason text NOT NULL DEFAULT '',
		patient_type text NOT NULL,
		status text NOT NULL,
		notes text,
		patient_id uuid NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	// Source of truth for slot-collision prevention: only one active
	// appointment may hold a start instant.
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_active_start_uniq
		ON appointments (start_at)
		WHERE status IN ('SCHEDULED', 'CONFIRMED')`,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := applySchema(context.Background(), pool); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	dentistID, err := seedStaff(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	patientIDs, err := seedPatients(context.Background(), pool, dentistID, 200)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, patientIDs, 40); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	log.Println("schema applied")
	return nil
}

// seedStaff creates the dentist who owns receptionist-created patients, plus
// a couple of assistants.
func seedStaff(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	dentistID := uuid.New()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO staff_users (id, name, email, role, created_at)
		VALUES ($1, $2, $3, 'dentist', now())
	`, dentistID, "Dr. "+gofakeit.LastName(), gofakeit.Email())
	if err != nil {
		return uuid.Nil, err
	}

	for i := 0; i < 2; i++ {
		_, err = tx.Exec(ctx, `
			INSERT INTO staff_users (id, name, email, role, created_at)
			VALUES ($1, $2, $3, 'assistant', now())
		`, uuid.New(), gofakeit.Name(), gofakeit.Email())
		if err != nil {
			return uuid.Nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}

	log.Println("staff seeded")
	return dentistID, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, ownerID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	ids := make([]uuid.UUID, 0, count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, first_name, last_name, email, phone, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, id, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), gofakeit.Phone(), ownerID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("patients seeded")
	return ids, nil
}

// seedAppointments books weekday half-hour slots over the coming two weeks.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patientIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	reasons := []string{
		"Routine checkup and cleaning",
		"Tooth pain, upper left",
		"Crown fitting",
		"Follow-up after filling",
		"Whitening consultation",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	day := time.Now().AddDate(0, 0, 1)
	seeded := 0
	for seeded < count {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			day = day.AddDate(0, 0, 1)
			continue
		}

		hour := 9 + gofakeit.Number(0, 7)
		minute := 30 * gofakeit.Number(0, 1)
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, start_at, reason, patient_type, status, patient_id, created_at, updated_at)
			VALUES ($1, $2, $3, 'EXISTING', 'SCHEDULED', $4, now(), now())
			ON CONFLICT DO NOTHING
		`, uuid.New(), start, reasons[gofakeit.Number(0, len(reasons)-1)],
			patientIDs[gofakeit.Number(0, len(patientIDs)-1)])
		if err != nil {
			return err
		}

		seeded++
		if seeded%4 == 0 {
			day = day.AddDate(0, 0, 1)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}
