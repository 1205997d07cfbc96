package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/frontdesk/internal/auth"
	"github.com/clinicdesk/frontdesk/internal/patient"
	"github.com/clinicdesk/frontdesk/internal/queue"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

type memPatients struct {
	byID map[uuid.UUID]patient.Patient
}

func (m *memPatients) Create(_ context.Context, p patient.Patient) (*patient.Patient, error) {
	p.ID = uuid.New()
	m.byID[p.ID] = p
	return &p, nil
}

func (m *memPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return &p, nil
}

func (m *memPatients) GetDetail(_ context.Context, id uuid.UUID) (*patient.Detail, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return &patient.Detail{Patient: p}, nil
}

func (m *memPatients) List(_ context.Context, limit, offset int) ([]patient.Patient, error) {
	var out []patient.Patient
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPatients) Count(_ context.Context) (int, error) { return len(m.byID), nil }

func (m *memPatients) Update(_ context.Context, id uuid.UUID, patch patient.UpdatePatch) (*patient.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	m.byID[id] = p
	return &p, nil
}

func (m *memPatients) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return patient.ErrPatientNotFound
	}
	delete(m.byID, id)
	return nil
}

func patientRouter() (chi.Router, *memPatients) {
	repo := &memPatients{byID: make(map[uuid.UUID]patient.Patient)}
	svc := patient.NewService(repo)

	r := chi.NewRouter()
	r.Post("/patients", createPatientHandler(svc))
	r.Get("/patients/{id}", getPatientHandler(svc))
	r.Delete("/patients/{id}", deletePatientHandler(svc))
	return r, repo
}

func TestCreatePatientHandler(t *testing.T) {
	r, repo := patientRouter()

	body := `{"name": "Mona Hassan", "phone": "01001234567", "age": 34}`
	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var resp PatientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Name != "Mona Hassan" || resp.ID == uuid.Nil {
		t.Errorf("resp = %+v", resp)
	}
	if len(repo.byID) != 1 {
		t.Errorf("stored %d patients, want 1", len(repo.byID))
	}
}

func TestCreatePatientHandlerRejects(t *testing.T) {
	r, _ := patientRouter()

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"name": `, "invalid_request_body"},
		{"missing name", `{"phone": "0100"}`, "name_required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Error != tt.code {
				t.Errorf("error = %s, want %s", resp.Error, tt.code)
			}
		})
	}
}

func TestGetPatientHandler(t *testing.T) {
	r, repo := patientRouter()

	stored, _ := repo.Create(context.Background(), patient.Patient{Name: "Ali"})

	req := httptest.NewRequest(http.MethodGet, "/patients/"+stored.ID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("existing: status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/patients/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/patients/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

type memUsers struct {
	users map[string]auth.User
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) Create(_ context.Context, u auth.User) (*auth.User, error) {
	u.ID = uuid.New()
	m.users[u.Username] = u
	return &u, nil
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("swordfish"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := &memUsers{users: map[string]auth.User{
		"reception": {ID: uuid.New(), Username: "reception", PasswordHash: string(hash), Role: auth.RoleReceptionist},
	}}
	svc := auth.NewService(repo, "test-secret", 0)
	handler := loginHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username": "reception", "password": "swordfish"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" || resp.Role != auth.RoleReceptionist {
		t.Errorf("resp = %+v", resp)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username": "reception", "password": "wrong"}`))
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username": ""}`))
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing credentials: status = %d, want 400", rec.Code)
	}
}

func TestSchedulingErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{scheduling.ErrAppointmentNotFound, http.StatusNotFound},
		{scheduling.ErrNotAligned, http.StatusBadRequest},
		{scheduling.ErrOutsideHours, http.StatusBadRequest},
		{scheduling.ErrClinicClosed, http.StatusBadRequest},
		{scheduling.ErrSlotTaken, http.StatusConflict},
		{scheduling.ErrAppointmentCancelled, http.StatusBadRequest},
		{scheduling.ErrWrongDay, http.StatusBadRequest},
		{queue.ErrQueueBusy, http.StatusConflict},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleSchedulingError(rec, tt.err)
		if rec.Code != tt.code {
			t.Errorf("%v -> %d, want %d", tt.err, rec.Code, tt.code)
		}
	}
}

func TestQueueErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{queue.ErrEntryNotFound, http.StatusNotFound},
		{queue.ErrPatientRequired, http.StatusBadRequest},
		{queue.ErrInvalidPriority, http.StatusBadRequest},
		{queue.ErrQueueBusy, http.StatusConflict},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handleQueueError(rec, tt.err)
		if rec.Code != tt.code {
			t.Errorf("%v -> %d, want %d", tt.err, rec.Code, tt.code)
		}
	}
}

func TestVisitErrorMapping(t *testing.T) {
	rec := httptest.NewRecorder()
	handleVisitError(rec, visit.ErrVisitNotFound)
	if rec.Code != http.StatusNotFound {
		t.Errorf("visit not found -> %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	handlePrescriptionError(rec, visit.ErrPrescriptionNotFound)
	if rec.Code != http.StatusNotFound {
		t.Errorf("prescription not found -> %d, want 404", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("request id missing from context")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	// A caller-supplied id is preserved.
	req := httptest.NewRequest(http.MethodGet, "/queue", nil)
	req.Header.Set("X-Request-ID", "front-desk-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "front-desk-42" {
		t.Errorf("header = %q, want caller id", rec.Header().Get("X-Request-ID"))
	}
}
