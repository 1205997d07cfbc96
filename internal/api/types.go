package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/patient"
	"github.com/clinicdesk/frontdesk/internal/queue"
	"github.com/clinicdesk/frontdesk/internal/reports"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

// ---- requests ----

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreatePatientRequest struct {
	Name       string  `json:"name"`
	NationalID *string `json:"national_id"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
}

type UpdatePatientRequest struct {
	Name       *string `json:"name"`
	NationalID *string `json:"national_id"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
}

type CreateAppointmentRequest struct {
	PatientID    string    `json:"patient_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	VisitType    string    `json:"visit_type"`
	IsNewPatient bool      `json:"is_new_patient"`
	Notes        *string   `json:"notes"`
}

type UpdateAppointmentRequest struct {
	ScheduledAt  *time.Time `json:"scheduled_at"`
	VisitType    *string    `json:"visit_type"`
	IsNewPatient *bool      `json:"is_new_patient"`
	Notes        *string    `json:"notes"`
	Status       *string    `json:"status"`
}

type UpdateHoursRequest struct {
	OpenTime    *string `json:"open_time"`
	CloseTime   *string `json:"close_time"`
	SlotMinutes *int    `json:"slot_minutes"`
	IsClosed    *bool   `json:"is_closed"`
}

type EnqueueRequest struct {
	PatientID string  `json:"patient_id"`
	Reason    *string `json:"reason"`
	Priority  string  `json:"priority"`
	VisitType string  `json:"visit_type"`
}

type UpdateVisitRequest struct {
	ChiefComplaint *string `json:"chief_complaint"`
	Diagnosis      *string `json:"diagnosis"`
	Notes          *string `json:"notes"`
	Status         *string `json:"status"`
	VisitType      *string `json:"visit_type"`
}

type MedicationRequest struct {
	Name         string  `json:"name"`
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	Duration     *string `json:"duration"`
	Instructions *string `json:"instructions"`
}

type CreatePrescriptionRequest struct {
	VisitID         string              `json:"visit_id"`
	AdditionalNotes *string             `json:"additional_notes"`
	Medications     []MedicationRequest `json:"medications"`
}

// UpdatePrescriptionRequest replaces the medication list when one is sent;
// a missing medications field leaves it untouched.
type UpdatePrescriptionRequest struct {
	AdditionalNotes *string             `json:"additional_notes"`
	Medications     []MedicationRequest `json:"medications"`
}

// ---- responses ----

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type PatientResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	NationalID *string   `json:"national_id,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Age        *int      `json:"age,omitempty"`
	Gender     *string   `json:"gender,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PatientDetailResponse struct {
	PatientResponse
	Visits       []PatientVisitResponse      `json:"visits"`
	QueueEntries []PatientQueueEntryResponse `json:"queue_entries"`
}

type PatientVisitResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	VisitType string    `json:"visit_type"`
	Diagnosis *string   `json:"diagnosis,omitempty"`
	VisitDate time.Time `json:"visit_date"`
}

type PatientQueueEntryResponse struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
	Status   string    `json:"status"`
	Priority string    `json:"priority"`
	QueuedAt time.Time `json:"queued_at"`
}

type PatientSummaryResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	NationalID *string   `json:"national_id,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Age        *int      `json:"age,omitempty"`
	Gender     *string   `json:"gender,omitempty"`
}

type PatientPageResponse struct {
	Data []PatientResponse `json:"data"`
	Meta PageMeta          `json:"meta"`
}

type ClinicHoursResponse struct {
	DayOfWeek   int    `json:"day_of_week"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
	SlotMinutes int    `json:"slot_minutes"`
	IsClosed    bool   `json:"is_closed"`
}

type AppointmentResponse struct {
	ID              uuid.UUID               `json:"id"`
	PatientID       uuid.UUID               `json:"patient_id"`
	ScheduledAt     time.Time               `json:"scheduled_at"`
	DurationMinutes int                     `json:"duration_minutes"`
	VisitType       string                  `json:"visit_type"`
	IsNewPatient    bool                    `json:"is_new_patient"`
	Notes           *string                 `json:"notes,omitempty"`
	Status          string                  `json:"status"`
	QueueID         *uuid.UUID              `json:"queue_id,omitempty"`
	VisitID         *uuid.UUID              `json:"visit_id,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	Patient         *PatientSummaryResponse `json:"patient,omitempty"`
}

type QueueEntryResponse struct {
	ID        uuid.UUID               `json:"id"`
	PatientID uuid.UUID               `json:"patient_id"`
	Position  int                     `json:"position"`
	Reason    *string                 `json:"reason,omitempty"`
	Priority  string                  `json:"priority"`
	VisitType string                  `json:"visit_type"`
	Status    string                  `json:"status"`
	QueuedAt  time.Time               `json:"queued_at"`
	Patient   *PatientSummaryResponse `json:"patient,omitempty"`
}

type QueueStatsResponse struct {
	Total                  int `json:"total"`
	Waiting                int `json:"waiting"`
	InProgress             int `json:"in_progress"`
	Completed              int `json:"completed"`
	ConsultationTotal      int `json:"consultation_total"`
	VisitTotal             int `json:"visit_total"`
	CompletedConsultations int `json:"completed_consultations"`
	CompletedVisits        int `json:"completed_visits"`
}

type VisitResponse struct {
	ID             uuid.UUID               `json:"id"`
	PatientID      uuid.UUID               `json:"patient_id"`
	DoctorName     string                  `json:"doctor_name"`
	Status         string                  `json:"status"`
	ChiefComplaint *string                 `json:"chief_complaint,omitempty"`
	VisitType      string                  `json:"visit_type"`
	Diagnosis      *string                 `json:"diagnosis,omitempty"`
	Notes          *string                 `json:"notes,omitempty"`
	VisitDate      time.Time               `json:"visit_date"`
	Patient        *PatientSummaryResponse `json:"patient,omitempty"`
	Prescriptions  []PrescriptionResponse  `json:"prescriptions,omitempty"`
}

type VisitPageResponse struct {
	Data []VisitResponse `json:"data"`
	Meta PageMeta        `json:"meta"`
}

type MedicationResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Dosage       *string   `json:"dosage,omitempty"`
	Frequency    *string   `json:"frequency,omitempty"`
	Duration     *string   `json:"duration,omitempty"`
	Instructions *string   `json:"instructions,omitempty"`
}

type PrescriptionResponse struct {
	ID               uuid.UUID            `json:"id"`
	VisitID          uuid.UUID            `json:"visit_id"`
	AdditionalNotes  *string              `json:"additional_notes,omitempty"`
	ConsultationDate time.Time            `json:"consultation_date"`
	PrescribedAt     time.Time            `json:"prescribed_at"`
	Medications      []MedicationResponse `json:"medications"`
}

type PrescriptionSummaryResponse struct {
	ID               uuid.UUID `json:"id"`
	ConsultationDate time.Time `json:"consultation_date"`
	PatientName      string    `json:"patient_name"`
	DoctorName       string    `json:"doctor_name"`
	MedicationCount  int       `json:"medication_count"`
	AdditionalNotes  *string   `json:"additional_notes,omitempty"`
}

type PrescriptionPageResponse struct {
	Data []PrescriptionSummaryResponse `json:"data"`
	Meta PageMeta                      `json:"meta"`
}

type CheckInResponse struct {
	Appointment      AppointmentResponse `json:"appointment"`
	Queue            *QueueEntryResponse `json:"queue,omitempty"`
	Visit            *VisitResponse      `json:"visit,omitempty"`
	AlreadyCheckedIn bool                `json:"already_checked_in"`
}

type EnqueueResponse struct {
	Entry QueueEntryResponse `json:"entry"`
	Visit *VisitResponse     `json:"visit,omitempty"`
}

type CompleteResponse struct {
	Entry        QueueEntryResponse    `json:"entry"`
	Visit        *VisitResponse        `json:"visit,omitempty"`
	Prescription *PrescriptionResponse `json:"prescription,omitempty"`
}

type RemoveResponse struct {
	Removed        bool           `json:"removed"`
	CancelledVisit *VisitResponse `json:"cancelled_visit,omitempty"`
}

type RevenueSummaryResponse struct {
	Start               time.Time `json:"start"`
	End                 time.Time `json:"end"`
	ConsultationCount   int       `json:"consultation_count"`
	ExaminationCount    int       `json:"examination_count"`
	ConsultationRevenue float64   `json:"consultation_revenue"`
	ExaminationRevenue  float64   `json:"examination_revenue"`
	TotalRevenue        float64   `json:"total_revenue"`
}

type RevenueReportResponse struct {
	Daily   RevenueSummaryResponse `json:"daily"`
	Weekly  RevenueSummaryResponse `json:"weekly"`
	Monthly RevenueSummaryResponse `json:"monthly"`
}

// ---- mappers ----

func toPatientResponse(p patient.Patient) PatientResponse {
	return PatientResponse{
		ID:         p.ID,
		Name:       p.Name,
		NationalID: p.NationalID,
		Phone:      p.Phone,
		Email:      p.Email,
		Age:        p.Age,
		Gender:     p.Gender,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPatientDetailResponse(d patient.Detail) PatientDetailResponse {
	resp := PatientDetailResponse{
		PatientResponse: toPatientResponse(d.Patient),
		Visits:          make([]PatientVisitResponse, 0, len(d.Visits)),
		QueueEntries:    make([]PatientQueueEntryResponse, 0, len(d.QueueEntries)),
	}
	for _, v := range d.Visits {
		resp.Visits = append(resp.Visits, PatientVisitResponse(v))
	}
	for _, e := range d.QueueEntries {
		resp.QueueEntries = append(resp.QueueEntries, PatientQueueEntryResponse(e))
	}
	return resp
}

func toPatientSummary(s *patient.Summary) *PatientSummaryResponse {
	if s == nil {
		return nil
	}
	return &PatientSummaryResponse{
		ID:         s.ID,
		Name:       s.Name,
		NationalID: s.NationalID,
		Phone:      s.Phone,
		Age:        s.Age,
		Gender:     s.Gender,
	}
}

func toClinicHoursResponse(h scheduling.ClinicHours) ClinicHoursResponse {
	return ClinicHoursResponse{
		DayOfWeek:   h.DayOfWeek,
		OpenTime:    h.OpenTime,
		CloseTime:   h.CloseTime,
		SlotMinutes: h.SlotMinutes,
		IsClosed:    h.IsClosed,
	}
}

func toAppointmentResponse(a scheduling.Appointment, summary *patient.Summary) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		ScheduledAt:     a.ScheduledAt,
		DurationMinutes: a.DurationMinutes,
		VisitType:       a.VisitType,
		IsNewPatient:    a.IsNewPatient,
		Notes:           a.Notes,
		Status:          string(a.Status),
		QueueID:         a.QueueID,
		VisitID:         a.VisitID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Patient:         toPatientSummary(summary),
	}
}

func toAppointmentDetailResponse(d scheduling.AppointmentDetail) AppointmentResponse {
	return toAppointmentResponse(d.Appointment, d.Patient)
}

func toQueueEntryResponse(e queue.Entry, summary *patient.Summary) QueueEntryResponse {
	return QueueEntryResponse{
		ID:        e.ID,
		PatientID: e.PatientID,
		Position:  e.Position,
		Reason:    e.Reason,
		Priority:  string(e.Priority),
		VisitType: e.VisitType,
		Status:    string(e.Status),
		QueuedAt:  e.QueuedAt,
		Patient:   toPatientSummary(summary),
	}
}

func toQueueEntryDetailResponse(d queue.EntryDetail) QueueEntryResponse {
	return toQueueEntryResponse(d.Entry, d.Patient)
}

func toVisitResponse(v visit.Visit) VisitResponse {
	return VisitResponse{
		ID:             v.ID,
		PatientID:      v.PatientID,
		DoctorName:     v.DoctorUsername,
		Status:         string(v.Status),
		ChiefComplaint: v.ChiefComplaint,
		VisitType:      v.VisitType,
		Diagnosis:      v.Diagnosis,
		Notes:          v.Notes,
		VisitDate:      v.VisitDate,
	}
}

func toVisitDetailResponse(d visit.VisitDetail) VisitResponse {
	resp := toVisitResponse(d.Visit)
	resp.Patient = toPatientSummary(d.Patient)
	for _, p := range d.Prescriptions {
		resp.Prescriptions = append(resp.Prescriptions, toPrescriptionResponse(p))
	}
	return resp
}

func toVisitResponsePtr(v *visit.Visit) *VisitResponse {
	if v == nil {
		return nil
	}
	resp := toVisitResponse(*v)
	return &resp
}

func toPrescriptionResponse(p visit.Prescription) PrescriptionResponse {
	resp := PrescriptionResponse{
		ID:               p.ID,
		VisitID:          p.VisitID,
		AdditionalNotes:  p.AdditionalNotes,
		ConsultationDate: p.ConsultationDate,
		PrescribedAt:     p.PrescribedAt,
		Medications:      []MedicationResponse{},
	}
	for _, m := range p.Medications {
		resp.Medications = append(resp.Medications, MedicationResponse{
			ID:           m.ID,
			Name:         m.Name,
			Dosage:       m.Dosage,
			Frequency:    m.Frequency,
			Duration:     m.Duration,
			Instructions: m.Instructions,
		})
	}
	return resp
}

func toPrescriptionResponsePtr(p *visit.Prescription) *PrescriptionResponse {
	if p == nil {
		return nil
	}
	resp := toPrescriptionResponse(*p)
	return &resp
}

func toPrescriptionSummaryResponse(s visit.PrescriptionSummary) PrescriptionSummaryResponse {
	return PrescriptionSummaryResponse{
		ID:               s.ID,
		ConsultationDate: s.ConsultationDate,
		PatientName:      s.PatientName,
		DoctorName:       s.DoctorName,
		MedicationCount:  s.MedicationCount,
		AdditionalNotes:  s.AdditionalNotes,
	}
}

func toQueueStatsResponse(s queue.Stats) QueueStatsResponse {
	return QueueStatsResponse(s)
}

func toRevenueSummaryResponse(s reports.Summary) RevenueSummaryResponse {
	return RevenueSummaryResponse{
		Start:               s.Start,
		End:                 s.End,
		ConsultationCount:   s.ConsultationCount,
		ExaminationCount:    s.ExaminationCount,
		ConsultationRevenue: s.ConsultationRevenue,
		ExaminationRevenue:  s.ExaminationRevenue,
		TotalRevenue:        s.TotalRevenue,
	}
}

func toMedications(reqs []MedicationRequest) []visit.Medication {
	if reqs == nil {
		return nil
	}
	meds := make([]visit.Medication, 0, len(reqs))
	for _, m := range reqs {
		meds = append(meds, visit.Medication{
			Name:         m.Name,
			Dosage:       m.Dosage,
			Frequency:    m.Frequency,
			Duration:     m.Duration,
			Instructions: m.Instructions,
		})
	}
	return meds
}
