package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/helio/telemed/internal/platform/auth"
)

func newTestHandler(t *testing.T) (*Handler, *Service, *mockDirectory) {
	t.Helper()
	svc, _, dir := newTestService(t)
	return NewHandler(svc), svc, dir
}

// authedContext builds an echo context carrying the claims a passing
// JWT middleware would have set.
func authedContext(t *testing.T, method, target, body string, accountID uuid.UUID, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	ctx := req.Context()
	ctx = context.WithValue(ctx, auth.AccountIDKey, accountID)
	ctx = context.WithValue(ctx, auth.RoleKey, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandlerAvailableSlots(t *testing.T) {
	h, _, dir := newTestHandler(t)
	acct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	target := "/api/appointments/slots?doctor_id=" + doctorID.String() + "&date=2026-09-01"
	c, rec := authedContext(t, http.MethodGet, target, "", acct, "patient")
	if err := h.AvailableSlots(c); err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Date  string       `json:"date"`
		Slots []SlotStatus `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Date != "2026-09-01" {
		t.Errorf("date = %q, want 2026-09-01", resp.Date)
	}
	if len(resp.Slots) != SlotCount {
		t.Errorf("got %d slots, want %d", len(resp.Slots), SlotCount)
	}
}

func TestHandlerAvailableSlots_NoTokenRequired(t *testing.T) {
	h, _, dir := newTestHandler(t)
	_, doctorID := dir.addDoctor()

	// No auth claims in the context; the grid is a public read.
	e := echo.New()
	target := "/api/appointments/slots?doctor_id=" + doctorID.String() + "&date=2026-09-01"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AvailableSlots(c); err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandlerAvailableSlots_BadParams(t *testing.T) {
	h, _, dir := newTestHandler(t)
	acct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	cases := []struct {
		name   string
		target string
	}{
		{"missing doctor_id", "/api/appointments/slots?date=2026-09-01"},
		{"bad doctor_id", "/api/appointments/slots?doctor_id=nope&date=2026-09-01"},
		{"missing date", "/api/appointments/slots?doctor_id=" + doctorID.String()},
		{"bad date", "/api/appointments/slots?doctor_id=" + doctorID.String() + "&date=Sep-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := authedContext(t, http.MethodGet, tc.target, "", acct, "patient")
			err := h.AvailableSlots(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusBadRequest {
				t.Errorf("AvailableSlots() = %v, want 400", err)
			}
		})
	}
}

func TestHandlerAvailableSlots_UnknownDoctor(t *testing.T) {
	h, _, dir := newTestHandler(t)
	acct, _ := dir.addPatient()

	target := "/api/appointments/slots?doctor_id=" + uuid.NewString() + "&date=2026-09-01"
	c, _ := authedContext(t, http.MethodGet, target, "", acct, "patient")
	err := h.AvailableSlots(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("AvailableSlots() = %v, want 404", err)
	}
}

func TestHandlerCreateAppointment(t *testing.T) {
	h, _, dir := newTestHandler(t)
	acct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	body := `{"doctor_id":"` + doctorID.String() + `","start_time":"2026-09-01T10:00:00Z","symptoms":"headache"}`
	c, rec := authedContext(t, http.MethodPost, "/api/appointments", body, acct, "patient")
	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("CreateAppointment() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", appt.Status)
	}
	if appt.Symptoms == nil || *appt.Symptoms != "headache" {
		t.Error("symptoms not carried through")
	}

	// Same slot again is a conflict.
	c, _ = authedContext(t, http.MethodPost, "/api/appointments", body, acct, "patient")
	err := h.CreateAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("duplicate slot = %v, want 409", err)
	}
}

func TestHandlerCreateAppointment_UnknownDoctor(t *testing.T) {
	h, _, dir := newTestHandler(t)
	acct, _ := dir.addPatient()

	body := `{"doctor_id":"` + uuid.NewString() + `","start_time":"2026-09-01T10:00:00Z"}`
	c, _ := authedContext(t, http.MethodPost, "/api/appointments", body, acct, "patient")
	err := h.CreateAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("CreateAppointment() = %v, want 404", err)
	}
}

func TestHandlerListAppointments_RoleScoping(t *testing.T) {
	h, svc, dir := newTestHandler(t)
	aliceAcct, _ := dir.addPatient()
	bobAcct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	ctx := context.Background()
	if _, err := svc.Create(ctx, aliceAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(9, 0)}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := svc.Create(ctx, bobAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(9, 30)}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	c, rec := authedContext(t, http.MethodGet, "/api/appointments", "", aliceAcct, "patient")
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("ListAppointments() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data  []*Appointment `json:"data"`
		Total int            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("patient sees %d/%d appointments, want 1", len(resp.Data), resp.Total)
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	h, svc, dir := newTestHandler(t)
	acct, _ := dir.addPatient()
	strangerAcct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	appt, err := svc.Create(context.Background(), acct, CreateInput{DoctorID: doctorID, StartTime: slotAt(9, 0)})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	c, _ := authedContext(t, http.MethodPut, "/api/appointments/x/status",
		`{"status":"cancelled"}`, strangerAcct, "patient")
	c.SetParamNames("id")
	c.SetParamValues(appt.ID.String())
	err = h.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("stranger update = %v, want 403", err)
	}

	c, rec := authedContext(t, http.MethodPut, "/api/appointments/x/status",
		`{"status":"cancelled"}`, acct, "patient")
	c.SetParamNames("id")
	c.SetParamValues(appt.ID.String())
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	c, _ = authedContext(t, http.MethodPut, "/api/appointments/x/status",
		`{"status":"cancelled"}`, acct, "patient")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	err = h.UpdateStatus(c)
	he, ok = err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("unknown appointment = %v, want 404", err)
	}
}
