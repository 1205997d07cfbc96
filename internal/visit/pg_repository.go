package visit

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

const visitColumns = `v.id, v.patient_id, v.doctor_username, v.status, v.chief_complaint,
	v.visit_type, v.diagnosis, v.notes, v.visit_date, v.created_at, v.updated_at`

func scanVisit(row pgx.Row, v *Visit) error {
	return row.Scan(
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
}

func scanVisitDetail(row pgx.Row) (*VisitDetail, error) {
	var d VisitDetail
	var p patient.Summary

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorUsername,
		&d.Status,
		&d.ChiefComplaint,
		&d.VisitType,
		&d.Diagnosis,
		&d.Notes,
		&d.VisitDate,
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
			return nil, ErrVisitNotFound
		}
		return nil, err
	}

	d.Patient = &p
	return &d, nil
}

func (r *PgRepository) ListVisits(ctx context.Context, limit, offset int) ([]VisitDetail, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+visitColumns+`,
		       p.id, p.name, p.national_id, p.phone, p.age, p.gender
		FROM visits v
		JOIN patients p ON p.id = v.patient_id
		ORDER BY v.visit_date DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []VisitDetail
	for rows.Next() {
		d, err := scanVisitDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) CountVisits(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM visits`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgRepository) GetVisit(ctx context.Context, id uuid.UUID) (*VisitDetail, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+visitColumns+`,
		       p.id, p.name, p.national_id, p.phone, p.age, p.gender
		FROM visits v
		JOIN patients p ON p.id = v.patient_id
		WHERE v.id = $1
	`, id)

	d, err := scanVisitDetail(row)
	if err != nil {
		return nil, err
	}

	prescriptions, err := r.prescriptionsForVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Prescriptions = prescriptions

	return d, nil
}

func (r *PgRepository) UpdateVisit(ctx context.Context, id uuid.UUID, patch VisitPatch) (*VisitDetail, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE visits v
		SET chief_complaint = COALESCE($2, chief_complaint),
		    diagnosis       = COALESCE($3, diagnosis),
		    notes           = COALESCE($4, notes),
		    status          = COALESCE($5, status),
		    visit_type      = COALESCE($6, visit_type),
		    visit_date      = COALESCE($7, visit_date),
		    updated_at      = now()
		WHERE v.id = $1
		RETURNING v.id
	`, id, patch.ChiefComplaint, patch.Diagnosis, patch.Notes, patch.Status, patch.VisitType, patch.VisitDate)

	var updatedID uuid.UUID
	if err := row.Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}

	return r.GetVisit(ctx, updatedID)
}

func (r *PgRepository) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

// Prescriptions

func (r *PgRepository) CreatePrescription(ctx context.Context, p Prescription) (*Prescription, error) {
	id := uuid.New()

	consultation := p.ConsultationDate
	if consultation.IsZero() {
		consultation = time.Now()
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO prescriptions (id, visit_id, additional_notes, consultation_date, prescribed_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, visit_id, additional_notes, consultation_date, prescribed_at
	`, id, p.VisitID, p.AdditionalNotes, consultation)

	created, err := scanPrescription(row)
	if err != nil {
		return nil, err
	}

	for _, med := range p.Medications {
		m, err := r.insertMedication(ctx, created.ID, med)
		if err != nil {
			return nil, err
		}
		created.Medications = append(created.Medications, *m)
	}

	return created, nil
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.VisitID, &p.AdditionalNotes, &p.ConsultationDate, &p.PrescribedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) insertMedication(ctx context.Context, prescriptionID uuid.UUID, m Medication) (*Medication, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO medications (id, prescription_id, name, dosage, frequency, duration, instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, prescription_id, name, dosage, frequency, duration, instructions
	`, uuid.New(), prescriptionID, m.Name, m.Dosage, m.Frequency, m.Duration, m.Instructions)

	var created Medication
	err := row.Scan(&created.ID, &created.PrescriptionID, &created.Name, &created.Dosage,
		&created.Frequency, &created.Duration, &created.Instructions)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PgRepository) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, visit_id, additional_notes, consultation_date, prescribed_at
		FROM prescriptions
		WHERE id = $1
	`, id)

	p, err := scanPrescription(row)
	if err != nil {
		return nil, err
	}

	meds, err := r.medicationsForPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Medications = meds

	return p, nil
}

func (r *PgRepository) medicationsForPrescription(ctx context.Context, prescriptionID uuid.UUID) ([]Medication, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, prescription_id, name, dosage, frequency, duration, instructions
		FROM medications
		WHERE prescription_id = $1
		ORDER BY name
	`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.PrescriptionID, &m.Name, &m.Dosage,
			&m.Frequency, &m.Duration, &m.Instructions); err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}

	return meds, rows.Err()
}

func (r *PgRepository) prescriptionsForVisit(ctx context.Context, visitID uuid.UUID) ([]Prescription, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, visit_id, additional_notes, consultation_date, prescribed_at
		FROM prescriptions
		WHERE visit_id = $1
		ORDER BY prescribed_at DESC
	`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		meds, err := r.medicationsForPrescription(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Medications = meds
	}

	return result, nil
}

const prescriptionSummarySQL = `
	SELECT pr.id, pr.consultation_date, p.name, v.doctor_username,
	       (SELECT count(*) FROM medications m WHERE m.prescription_id = pr.id),
	       pr.additional_notes
	FROM prescriptions pr
	JOIN visits v ON v.id = pr.visit_id
	JOIN patients p ON p.id = v.patient_id`

func scanPrescriptionSummary(rows pgx.Rows) (*PrescriptionSummary, error) {
	var s PrescriptionSummary
	err := rows.Scan(&s.ID, &s.ConsultationDate, &s.PatientName, &s.DoctorName,
		&s.MedicationCount, &s.AdditionalNotes)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) ListPrescriptions(ctx context.Context, limit, offset int) ([]PrescriptionSummary, error) {
	rows, err := r.q.Query(ctx, prescriptionSummarySQL+`
		ORDER BY pr.prescribed_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PrescriptionSummary
	for rows.Next() {
		s, err := scanPrescriptionSummary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) CountPrescriptions(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM prescriptions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgRepository) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]PrescriptionSummary, error) {
	rows, err := r.q.Query(ctx, prescriptionSummarySQL+`
		WHERE v.patient_id = $1
		ORDER BY pr.prescribed_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PrescriptionSummary
	for rows.Next() {
		s, err := scanPrescriptionSummary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdatePrescription(ctx context.Context, id uuid.UUID, notes *string, meds []Medication) (*Prescription, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE prescriptions
		SET additional_notes = COALESCE($2, additional_notes)
		WHERE id = $1
	`, id, notes)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrPrescriptionNotFound
	}

	if meds != nil {
		if _, err := r.q.Exec(ctx, `DELETE FROM medications WHERE prescription_id = $1`, id); err != nil {
			return nil, err
		}
		for _, med := range meds {
			if _, err := r.insertMedication(ctx, id, med); err != nil {
				return nil, err
			}
		}
	}

	return r.GetPrescription(ctx, id)
}

func (r *PgRepository) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}
