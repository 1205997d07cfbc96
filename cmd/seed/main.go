package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/frontdesk/internal/db"
)

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

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedUsers(context.Background(), pool); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedClinicHours(context.Background(), pool); err != nil {
		log.Fatalf("seed clinic hours: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	users := []struct {
		username string
		password string
		role     string
	}{
		{"reception", "reception123", "receptionist"},
		{"doctor", "doctor123", "doctor"},
		{"admin", "admin123", "admin"},
	}

	log.Printf("seeding %d users", len(users))

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO users (id, username, password_hash, role, created_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (username) DO NOTHING
		`, uuid.New(), u.username, string(hash), u.role)
		if err != nil {
			return err
		}
	}

	log.Println("users seeded")
	return nil
}

func seedClinicHours(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding clinic hours")

	// Friday (5) closed; every other day gets the default window.
	for day := 0; day <= 6; day++ {
		closed := day == 5

		_, err := pool.Exec(ctx, `
			INSERT INTO clinic_hours (day_of_week, open_time, close_time, slot_minutes, is_closed, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (day_of_week) DO NOTHING
		`, day, "09:00", "17:00", 20, closed)
		if err != nil {
			return err
		}
	}

	log.Println("clinic hours seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	genders := []string{"male", "female"}

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			nationalID := gofakeit.Numerify("##############")
			phone := gofakeit.Phone()
			email := gofakeit.Email()
			age := gofakeit.Number(1, 90)
			gender := genders[gofakeit.Number(0, len(genders)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, national_id, phone, email, age, gender, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			`, uuid.New(), gofakeit.Name(), nationalID, phone, email, age, gender)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
