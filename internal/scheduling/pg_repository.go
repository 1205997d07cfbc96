package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/frontdesk/internal/db"
	"github.com/clinicdesk/frontdesk/internal/patient"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

// Clinic hours

func scanHours(row pgx.Row) (*ClinicHours, error) {
	var h ClinicHours
	err := row.Scan(
		&h.DayOfWeek,
		&h.OpenTime,
		&h.CloseTime,
		&h.SlotMinutes,
		&h.IsClosed,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHoursNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *PgRepository) GetHoursByDay(ctx context.Context, dayOfWeek int) (*ClinicHours, error) {
	row := r.q.QueryRow(ctx, `
		SELECT day_of_week, open_time, close_time, slot_minutes, is_closed, created_at, updated_at
		FROM clinic_hours
		WHERE day_of_week = $1
	`, dayOfWeek)
	return scanHours(row)
}

// UpsertHours inserts or updates one weekday row. Concurrent lazy
// provisioning of the same day resolves through the conflict clause.
func (r *PgRepository) UpsertHours(ctx context.Context, h ClinicHours) (*ClinicHours, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO clinic_hours (day_of_week, open_time, close_time, slot_minutes, is_closed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (day_of_week) DO UPDATE
		SET open_time = EXCLUDED.open_time,
		    close_time = EXCLUDED.close_time,
		    slot_minutes = EXCLUDED.slot_minutes,
		    is_closed = EXCLUDED.is_closed,
		    updated_at = now()
		RETURNING day_of_week, open_time, close_time, slot_minutes, is_closed, created_at, updated_at
	`, h.DayOfWeek, h.OpenTime, h.CloseTime, h.SlotMinutes, h.IsClosed)
	return scanHours(row)
}

func (r *PgRepository) ListHours(ctx context.Context) ([]ClinicHours, error) {
	rows, err := r.q.Query(ctx, `
		SELECT day_of_week, open_time, close_time, slot_minutes, is_closed, created_at, updated_at
		FROM clinic_hours
		ORDER BY day_of_week
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ClinicHours
	for rows.Next() {
		h, err := scanHours(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *h)
	}

	return result, rows.Err()
}

// Appointments

const appointmentColumns = `a.id, a.patient_id, a.scheduled_at, a.duration_minutes, a.visit_type,
	a.is_new_patient, a.notes, a.status, a.queue_id, a.visit_id, a.created_at, a.updated_at`

const appointmentColumnsBare = `id, patient_id, scheduled_at, duration_minutes, visit_type,
	is_new_patient, notes, status, queue_id, visit_id, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ScheduledAt,
		&a.DurationMinutes,
		&a.VisitType,
		&a.IsNewPatient,
		&a.Notes,
		&a.Status,
		&a.QueueID,
		&a.VisitID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var p patient.Summary

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.ScheduledAt,
		&d.DurationMinutes,
		&d.VisitType,
		&d.IsNewPatient,
		&d.Notes,
		&d.Status,
		&d.QueueID,
		&d.VisitID,
		&d.CreatedAt,
		&d.UpdatedAt,
		&p.ID,
		&p.Name,
		&p.NationalID,
		&p.Phone,
		&p.Age,
		&p.Gender,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	d.Patient = &p
	return &d, nil
}

const appointmentDetailSQL = `
	SELECT ` + appointmentColumns + `,
	       p.id, p.name, p.national_id, p.phone, p.age, p.gender
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id`

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*AppointmentDetail, error) {
	id := uuid.New()

	_, err := r.q.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, scheduled_at, duration_minutes, visit_type,
			is_new_patient, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	`, id, a.PatientID, a.ScheduledAt, a.DurationMinutes, a.VisitType, a.IsNewPatient, a.Notes, a.Status)
	if err != nil {
		return nil, err
	}

	return r.GetAppointmentDetail(ctx, id)
}

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.q.QueryRow(ctx, appointmentDetailSQL+` WHERE a.id = $1`, id)
	return scanAppointmentDetail(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	return r.listDetails(ctx, appointmentDetailSQL+` ORDER BY a.scheduled_at ASC`)
}

func (r *PgRepository) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	return r.listDetails(ctx, appointmentDetailSQL+`
		WHERE a.scheduled_at >= $1 AND a.scheduled_at < $2
		ORDER BY a.scheduled_at ASC
	`, from, to)
}

func (r *PgRepository) listDetails(ctx context.Context, sql string, args ...any) ([]AppointmentDetail, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListActiveBetween(ctx context.Context, from, to time.Time, exclude *uuid.UUID) ([]Appointment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.scheduled_at >= $1 AND a.scheduled_at < $2
		  AND a.status <> 'cancelled'
		  AND ($3::uuid IS NULL OR a.id <> $3)
	`, from, to, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*AppointmentDetail, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET scheduled_at     = COALESCE($2, scheduled_at),
		    duration_minutes = COALESCE($3, duration_minutes),
		    visit_type       = COALESCE($4, visit_type),
		    is_new_patient   = COALESCE($5, is_new_patient),
		    notes            = COALESCE($6, notes),
		    status           = COALESCE($7, status),
		    updated_at       = now()
		WHERE id = $1
	`, id, patch.ScheduledAt, patch.DurationMinutes, patch.VisitType, patch.IsNewPatient, patch.Notes, patch.Status)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAppointmentNotFound
	}
	return r.GetAppointmentDetail(ctx, id)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumnsBare+`
	`, id, status)
	return scanAppointment(row)
}
