package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/frontdesk/internal/db"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.NationalID,
		&p.Phone,
		&p.Email,
		&p.Age,
		&p.Gender,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p Patient) (*Patient, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO patients (id, name, national_id, phone, email, age, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, name, national_id, phone, email, age, gender, created_at, updated_at
	`, uuid.New(), p.Name, p.NationalID, p.Phone, p.Email, p.Age, p.Gender)
	return scanPatient(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, name, national_id, phone, email, age, gender, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := Detail{Patient: *p}

	rows, err := r.q.Query(ctx, `
		SELECT id, status, visit_type, diagnosis, visit_date
		FROM visits
		WHERE patient_id = $1
		ORDER BY visit_date DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v VisitSummary
		if err := rows.Scan(&v.ID, &v.Status, &v.VisitType, &v.Diagnosis, &v.VisitDate); err != nil {
			return nil, err
		}
		detail.Visits = append(detail.Visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.q.Query(ctx, `
		SELECT id, position, status, priority, queued_at
		FROM queue_entries
		WHERE patient_id = $1
		ORDER BY queued_at DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e QueueEntrySummary
		if err := rows.Scan(&e.ID, &e.Position, &e.Status, &e.Priority, &e.QueuedAt); err != nil {
			return nil, err
		}
		detail.QueueEntries = append(detail.QueueEntries, e)
	}

	return &detail, rows.Err()
}

func (r *PgRepository) List(ctx context.Context, limit, offset int) ([]Patient, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, national_id, phone, email, age, gender, created_at, updated_at
		FROM patients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM patients`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgRepository) Update(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*Patient, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE patients
		SET name        = COALESCE($2, name),
		    national_id = COALESCE($3, national_id),
		    phone       = COALESCE($4, phone),
		    email       = COALESCE($5, email),
		    age         = COALESCE($6, age),
		    gender      = COALESCE($7, gender),
		    updated_at  = now()
		WHERE id = $1
		RETURNING id, name, national_id, phone, email, age, gender, created_at, updated_at
	`, id, patch.Name, patch.NationalID, patch.Phone, patch.Email, patch.Age, patch.Gender)
	return scanPatient(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
