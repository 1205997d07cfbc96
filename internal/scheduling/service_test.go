package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/queue"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

type fakeRepo struct {
	hours        map[int]ClinicHours
	appointments map[uuid.UUID]Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		hours:        make(map[int]ClinicHours),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

func (f *fakeRepo) GetHoursByDay(_ context.Context, dayOfWeek int) (*ClinicHours, error) {
	h, ok := f.hours[dayOfWeek]
	if !ok {
		return nil, ErrHoursNotFound
	}
	return &h, nil
}

func (f *fakeRepo) UpsertHours(_ context.Context, h ClinicHours) (*ClinicHours, error) {
	f.hours[h.DayOfWeek] = h
	return &h, nil
}

func (f *fakeRepo) ListHours(_ context.Context) ([]ClinicHours, error) {
	out := make([]ClinicHours, 0, len(f.hours))
	for day := 0; day <= 6; day++ {
		if h, ok := f.hours[day]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, a Appointment) (*AppointmentDetail, error) {
	a.ID = uuid.New()
	f.appointments[a.ID] = a
	return &AppointmentDetail{Appointment: a}, nil
}

func (f *fakeRepo) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeRepo) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	a, err := f.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetail{Appointment: *a}, nil
}

func (f *fakeRepo) ListAppointments(_ context.Context) ([]AppointmentDetail, error) {
	out := make([]AppointmentDetail, 0, len(f.appointments))
	for _, a := range f.appointments {
		out = append(out, AppointmentDetail{Appointment: a})
	}
	return out, nil
}

func (f *fakeRepo) ListAppointmentsBetween(_ context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for _, a := range f.appointments {
		if !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			out = append(out, AppointmentDetail{Appointment: a})
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActiveBetween(_ context.Context, from, to time.Time, exclude *uuid.UUID) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusCancelled {
			continue
		}
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateAppointment(_ context.Context, id uuid.UUID, patch UpdatePatch) (*AppointmentDetail, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if patch.ScheduledAt != nil {
		a.ScheduledAt = *patch.ScheduledAt
	}
	if patch.DurationMinutes != nil {
		a.DurationMinutes = *patch.DurationMinutes
	}
	if patch.VisitType != nil {
		a.VisitType = *patch.VisitType
	}
	if patch.IsNewPatient != nil {
		a.IsNewPatient = *patch.IsNewPatient
	}
	if patch.Notes != nil {
		a.Notes = patch.Notes
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	f.appointments[id] = a
	return &AppointmentDetail{Appointment: a}, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = status
	f.appointments[id] = a
	return &a, nil
}

type fakeIntake struct {
	checkIns  []queue.AppointmentCheckIn
	result    *queue.CheckInResult
	err       error
	entry     *queue.EntryDetail
	onCheckIn func()
}

func (f *fakeIntake) CheckIn(_ context.Context, in queue.AppointmentCheckIn) (*queue.CheckInResult, error) {
	f.checkIns = append(f.checkIns, in)
	if f.onCheckIn != nil {
		f.onCheckIn()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeIntake) Entry(_ context.Context, id uuid.UUID) (*queue.EntryDetail, error) {
	if f.entry == nil {
		return nil, queue.ErrEntryNotFound
	}
	return f.entry, nil
}

func newTestService(repo Repository, intake QueueIntake, now time.Time) *Service {
	svc := NewService(repo, intake, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateBooksAlignedSlot(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 09:40") // a Monday
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	created, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != StatusBooked {
		t.Errorf("status = %s, want %s", created.Status, StatusBooked)
	}
	if created.DurationMinutes != 20 {
		t.Errorf("duration = %d, want 20", created.DurationMinutes)
	}
	if created.VisitType != VisitConsultation {
		t.Errorf("visit type = %s, want default %s", created.VisitType, VisitConsultation)
	}
}

func TestCreateProvisionsDefaultHours(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 09:00")
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	if _, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		ScheduledAt: scheduledAt,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h, ok := repo.hours[int(scheduledAt.Weekday())]
	if !ok {
		t.Fatal("default hours were not provisioned")
	}
	if h.OpenTime != "09:00" || h.CloseTime != "17:00" || h.SlotMinutes != 20 {
		t.Errorf("unexpected default hours: %+v", h)
	}
}

func TestCreateRejectsMisalignedSlot(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 09:10")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	_, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if !errors.Is(err, ErrNotAligned) {
		t.Fatalf("expected ErrNotAligned, got %v", err)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	if _, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt}); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// An adjacent slot does not conflict: intervals are half-open.
	if _, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		ScheduledAt: scheduledAt.Add(20 * time.Minute),
	}); err != nil {
		t.Fatalf("adjacent Create: %v", err)
	}
}

func TestCreateIgnoresCancelledWhenCheckingOverlap(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	first, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), first.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt}); err != nil {
		t.Fatalf("rebooking a cancelled slot should work, got %v", err)
	}
}

func TestUpdateRevalidatesOnlyWhenRescheduling(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	appt, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Notes-only patch must not trip overlap validation against itself.
	notes := "bring previous labs"
	if _, err := svc.Update(context.Background(), appt.ID, UpdatePatch{Notes: &notes}); err != nil {
		t.Fatalf("notes-only Update: %v", err)
	}

	// Rescheduling onto its own slot is allowed: the overlap scan excludes
	// the appointment being moved.
	updated, err := svc.Update(context.Background(), appt.ID, UpdatePatch{ScheduledAt: &scheduledAt})
	if err != nil {
		t.Fatalf("reschedule onto own slot: %v", err)
	}
	if !updated.ScheduledAt.Equal(scheduledAt) {
		t.Errorf("scheduledAt = %v, want %v", updated.ScheduledAt, scheduledAt)
	}

	// Rescheduling onto another appointment's slot conflicts.
	otherAt := scheduledAt.Add(40 * time.Minute)
	if _, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: otherAt}); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if _, err := svc.Update(context.Background(), appt.ID, UpdatePatch{ScheduledAt: &otherAt}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestCheckInHandsAppointmentToQueue(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}

	patientID := uuid.New()
	entry := &queue.EntryDetail{Entry: queue.Entry{ID: uuid.New(), PatientID: patientID, Position: 1}}
	v := &visit.Visit{ID: uuid.New(), PatientID: patientID, Status: visit.StatusPending}
	intake := &fakeIntake{result: &queue.CheckInResult{Entry: entry, Visit: v}}

	svc := newTestService(repo, intake, scheduledAt)

	appt, err := svc.Create(context.Background(), CreateInput{PatientID: patientID, ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	outcome, err := svc.CheckIn(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if outcome.AlreadyCheckedIn {
		t.Error("first check-in reported as repeat")
	}
	if outcome.Queue == nil || outcome.Queue.Position != 1 {
		t.Errorf("queue entry = %+v, want position 1", outcome.Queue)
	}
	if outcome.Visit == nil || outcome.Visit.Status != visit.StatusPending {
		t.Errorf("visit = %+v, want pending", outcome.Visit)
	}
	if len(intake.checkIns) != 1 {
		t.Fatalf("intake called %d times, want 1", len(intake.checkIns))
	}
	if intake.checkIns[0].AppointmentID != appt.ID || intake.checkIns[0].PatientID != patientID {
		t.Errorf("intake got %+v", intake.checkIns[0])
	}
}

func TestCheckInIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}

	queueID := uuid.New()
	entry := &queue.EntryDetail{Entry: queue.Entry{ID: queueID, Position: 2}}
	intake := &fakeIntake{entry: entry}
	svc := newTestService(repo, intake, scheduledAt)

	appt, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Simulate an earlier check-in having stamped the linkage.
	stored := repo.appointments[appt.ID]
	stored.QueueID = &queueID
	stored.Status = StatusCheckedIn
	repo.appointments[appt.ID] = stored

	outcome, err := svc.CheckIn(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("repeat CheckIn: %v", err)
	}
	if !outcome.AlreadyCheckedIn {
		t.Error("repeat check-in not flagged")
	}
	if outcome.Queue == nil || outcome.Queue.ID != queueID {
		t.Errorf("queue = %+v, want existing entry %s", outcome.Queue, queueID)
	}
	if len(intake.checkIns) != 0 {
		t.Errorf("intake.CheckIn called %d times on a repeat, want 0", len(intake.checkIns))
	}
}

func TestCheckInReturnsWinnerLinkageWhenRaceLost(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}

	winnerQueueID := uuid.New()
	intake := &fakeIntake{
		err:   queue.ErrAlreadyCheckedIn,
		entry: &queue.EntryDetail{Entry: queue.Entry{ID: winnerQueueID, Position: 1}},
	}
	svc := newTestService(repo, intake, scheduledAt)

	appt, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A concurrent check-in commits its linkage while ours is in flight.
	intake.onCheckIn = func() {
		stored := repo.appointments[appt.ID]
		stored.QueueID = &winnerQueueID
		stored.Status = StatusCheckedIn
		repo.appointments[appt.ID] = stored
	}

	outcome, err := svc.CheckIn(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("losing CheckIn: %v", err)
	}
	if !outcome.AlreadyCheckedIn {
		t.Error("lost race not reported as a repeat check-in")
	}
	if outcome.Queue == nil || outcome.Queue.ID != winnerQueueID {
		t.Errorf("queue = %+v, want the winner's entry %s", outcome.Queue, winnerQueueID)
	}
	if outcome.Visit != nil {
		t.Errorf("losing check-in returned a visit of its own: %+v", outcome.Visit)
	}
}

func TestCheckInRejectsWrongDay(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	appt, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc.now = func() time.Time { return scheduledAt.AddDate(0, 0, 1) }

	if _, err := svc.CheckIn(context.Background(), appt.ID); !errors.Is(err, ErrWrongDay) {
		t.Fatalf("expected ErrWrongDay, got %v", err)
	}
}

func TestCheckInRejectsCancelled(t *testing.T) {
	repo := newFakeRepo()
	scheduledAt := mustTime(t, "2025-03-03 10:00")
	repo.hours[int(scheduledAt.Weekday())] = ClinicHours{
		DayOfWeek: int(scheduledAt.Weekday()), OpenTime: "09:00", CloseTime: "17:00", SlotMinutes: 20,
	}
	svc := newTestService(repo, &fakeIntake{}, scheduledAt)

	appt, err := svc.Create(context.Background(), CreateInput{PatientID: uuid.New(), ScheduledAt: scheduledAt})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := svc.CheckIn(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentCancelled) {
		t.Fatalf("expected ErrAppointmentCancelled, got %v", err)
	}
}

func TestListHoursProvisionsMissingDays(t *testing.T) {
	repo := newFakeRepo()
	repo.hours[1] = ClinicHours{DayOfWeek: 1, OpenTime: "08:00", CloseTime: "14:00", SlotMinutes: 30}
	svc := newTestService(repo, &fakeIntake{}, mustTime(t, "2025-03-03 09:00"))

	hours, err := svc.ListHours(context.Background())
	if err != nil {
		t.Fatalf("ListHours: %v", err)
	}
	if len(hours) != 7 {
		t.Fatalf("got %d days, want 7", len(hours))
	}
	for _, h := range hours {
		if h.DayOfWeek == 1 {
			if h.OpenTime != "08:00" {
				t.Errorf("configured day overwritten: %+v", h)
			}
		} else if h.OpenTime != "09:00" || h.SlotMinutes != 20 {
			t.Errorf("day %d not defaulted: %+v", h.DayOfWeek, h)
		}
	}
}

func TestUpdateHoursValidates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeIntake{}, mustTime(t, "2025-03-03 09:00"))

	bad := "25:00"
	if _, err := svc.UpdateHours(context.Background(), 1, HoursPatch{OpenTime: &bad}); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}

	zero := 0
	if _, err := svc.UpdateHours(context.Background(), 1, HoursPatch{SlotMinutes: &zero}); !errors.Is(err, ErrInvalidSlotMinutes) {
		t.Fatalf("expected ErrInvalidSlotMinutes, got %v", err)
	}

	if _, err := svc.UpdateHours(context.Background(), 7, HoursPatch{}); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}

	open := "10:00"
	updated, err := svc.UpdateHours(context.Background(), 2, HoursPatch{OpenTime: &open})
	if err != nil {
		t.Fatalf("UpdateHours: %v", err)
	}
	if updated.OpenTime != "10:00" || updated.CloseTime != "17:00" {
		t.Errorf("patch not merged over defaults: %+v", updated)
	}
}
