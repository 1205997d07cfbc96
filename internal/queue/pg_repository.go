package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/frontdesk/internal/db"
	"github.com/clinicdesk/frontdesk/internal/patient"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

type PgRepository struct {
	db db.DB      // nil when bound to a transaction
	q  db.Querier // pool or open transaction
}

func NewPgRepository(d db.DB) *PgRepository {
	return &PgRepository{db: d, q: d}
}

// InTx runs fn against a repository bound to one transaction. A nested call
// reuses the open transaction.
func (r *PgRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&PgRepository{q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const entryColumns = `q.id, q.patient_id, q.position, q.reason, q.priority, q.visit_type, q.status, q.queued_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID,
		&e.PatientID,
		&e.Position,
		&e.Reason,
		&e.Priority,
		&e.VisitType,
		&e.Status,
		&e.QueuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &e, nil
}

func scanEntryDetail(row pgx.Row) (*EntryDetail, error) {
	var d EntryDetail
	var p patient.Summary

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.Position,
		&d.Reason,
		&d.Priority,
		&d.VisitType,
		&d.Status,
		&d.QueuedAt,
		&p.ID,
		&p.Name,
		&p.NationalID,
		&p.Phone,
		&p.Age,
		&p.Gender,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	d.Patient = &p
	return &d, nil
}

func (r *PgRepository) MaxActivePosition(ctx context.Context, from, to time.Time) (int, error) {
	var max int
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(position), 0)
		FROM queue_entries
		WHERE status IN ('waiting', 'in_progress')
		  AND queued_at >= $1 AND queued_at < $2
	`, from, to).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *PgRepository) CreateEntry(ctx context.Context, e Entry) (*EntryDetail, error) {
	id := uuid.New()

	_, err := r.q.Exec(ctx, `
		INSERT INTO queue_entries (id, patient_id, position, reason, priority, visit_type, status, queued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, id, e.PatientID, e.Position, e.Reason, e.Priority, e.VisitType, e.Status)
	if err != nil {
		return nil, err
	}

	return r.GetEntryDetail(ctx, id)
}

func (r *PgRepository) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries q
		WHERE q.id = $1
	`, id)
	return scanEntry(row)
}

func (r *PgRepository) GetEntryDetail(ctx context.Context, id uuid.UUID) (*EntryDetail, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+entryColumns+`,
		       p.id, p.name, p.national_id, p.phone, p.age, p.gender
		FROM queue_entries q
		JOIN patients p ON p.id = q.patient_id
		WHERE q.id = $1
	`, id)
	return scanEntryDetail(row)
}

func (r *PgRepository) ListActive(ctx context.Context) ([]EntryDetail, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+entryColumns+`,
		       p.id, p.name, p.national_id, p.phone, p.age, p.gender
		FROM queue_entries q
		JOIN patients p ON p.id = q.patient_id
		WHERE q.status IN ('waiting', 'in_progress')
		ORDER BY CASE q.priority
		           WHEN 'urgent' THEN 3
		           WHEN 'high' THEN 2
		           ELSE 1
		         END DESC,
		         q.position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EntryDetail
	for rows.Next() {
		d, err := scanEntryDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateEntryStatus(ctx context.Context, id uuid.UUID, status Status) (*EntryDetail, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE queue_entries
		SET status = $2
		WHERE id = $1
	`, id, status)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrEntryNotFound
	}
	return r.GetEntryDetail(ctx, id)
}

func (r *PgRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *PgRepository) ActiveEntriesAfterPosition(ctx context.Context, from, to time.Time, position int) ([]Entry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries q
		WHERE q.status IN ('waiting', 'in_progress')
		  AND q.queued_at >= $1 AND q.queued_at < $2
		  AND q.position > $3
		ORDER BY q.position ASC
	`, from, to, position)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	return result, rows.Err()
}

func (r *PgRepository) SetEntryPosition(ctx context.Context, id uuid.UUID, position int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE queue_entries
		SET position = $2
		WHERE id = $1
	`, id, position)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *PgRepository) CountByStatusAndType(ctx context.Context, from, to time.Time) ([]StatRow, error) {
	rows, err := r.q.Query(ctx, `
		SELECT status, visit_type, count(*)
		FROM queue_entries
		WHERE queued_at >= $1 AND queued_at < $2
		  AND status IN ('waiting', 'in_progress', 'completed')
		GROUP BY status, visit_type
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatRow
	for rows.Next() {
		var s StatRow
		if err := rows.Scan(&s.Status, &s.VisitType, &s.Count); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	return result, rows.Err()
}

// Visit rows mutated inside queue transactions.

const visitColumns = `id, patient_id, doctor_username, status, chief_complaint, visit_type, diagnosis, notes, visit_date, created_at, updated_at`

func scanVisitRow(row pgx.Row) (*visit.Visit, error) {
	var v visit.Visit
	err := row.Scan(
		&v.ID,
		&v.PatientID,
		&v.DoctorUsername,
		&v.Status,
		&v.ChiefComplaint,
		&v.VisitType,
		&v.Diagnosis,
		&v.Notes,
		&v.VisitDate,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PgRepository) CreateVisit(ctx context.Context, v visit.Visit) (*visit.Visit, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO visits (id, patient_id, doctor_username, status, chief_complaint, visit_type, visit_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now(), now())
		RETURNING `+visitColumns+`
	`, uuid.New(), v.PatientID, v.DoctorUsername, v.Status, v.ChiefComplaint, v.VisitType)
	return scanVisitRow(row)
}

// LatestVisitByStatus returns the patient's most recent visit in one of the
// given states, or nil when none exists. Most-recent-pending is how queue
// entries and visits are linked for the single-doctor clinic.
func (r *PgRepository) LatestVisitByStatus(ctx context.Context, patientID uuid.UUID, statuses []visit.Status) (*visit.Visit, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE patient_id = $1
		  AND status = ANY($2)
		ORDER BY visit_date DESC
		LIMIT 1
	`, patientID, statuses)

	v, err := scanVisitRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (r *PgRepository) CompleteVisit(ctx context.Context, id uuid.UUID, visitType string) (*visit.Visit, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE visits
		SET status = 'completed',
		    visit_type = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+visitColumns+`
	`, id, visitType)
	return scanVisitRow(row)
}

func (r *PgRepository) CancelVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE visits
		SET status = 'cancelled',
		    updated_at = now()
		WHERE id = $1
		RETURNING `+visitColumns+`
	`, id)
	return scanVisitRow(row)
}

func (r *PgRepository) PrescriptionExists(ctx context.Context, visitID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM prescriptions WHERE visit_id = $1)
	`, visitID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) CreateEmptyPrescription(ctx context.Context, visitID uuid.UUID) (*visit.Prescription, error) {
	var p visit.Prescription
	err := r.q.QueryRow(ctx, `
		INSERT INTO prescriptions (id, visit_id, additional_notes, consultation_date, prescribed_at)
		VALUES ($1, $2, NULL, now(), now())
		RETURNING id, visit_id, additional_notes, consultation_date, prescribed_at
	`, uuid.New(), visitID).Scan(&p.ID, &p.VisitID, &p.AdditionalNotes, &p.ConsultationDate, &p.PrescribedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) DeletePrescriptionsByVisit(ctx context.Context, visitID uuid.UUID) error {
	_, err := r.q.Exec(ctx, `DELETE FROM prescriptions WHERE visit_id = $1`, visitID)
	return err
}

func (r *PgRepository) CompleteAppointmentsByVisit(ctx context.Context, visitID uuid.UUID) error {
	_, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed',
		    updated_at = now()
		WHERE visit_id = $1
	`, visitID)
	return err
}

func (r *PgRepository) StampAppointmentCheckedIn(ctx context.Context, appointmentID, queueID, visitID uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = 'checked_in',
		    queue_id = $2,
		    visit_id = $3,
		    updated_at = now()
		WHERE id = $1 AND queue_id IS NULL
	`, appointmentID, queueID, visitID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or a concurrent check-in already linked it;
		// both mean this transaction's entry and visit must not survive.
		return ErrAlreadyCheckedIn
	}
	return nil
}
