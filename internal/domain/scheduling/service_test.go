package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/helio/telemed/internal/domain/identity"
)

// mockDirectory is a map-backed ProfileDirectory.
type mockDirectory struct {
	patients map[uuid.UUID]uuid.UUID // account -> patient profile
	doctors  map[uuid.UUID]uuid.UUID // account -> doctor profile
	known    map[uuid.UUID]bool      // doctor profile ids
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		patients: make(map[uuid.UUID]uuid.UUID),
		doctors:  make(map[uuid.UUID]uuid.UUID),
		known:    make(map[uuid.UUID]bool),
	}
}

func (d *mockDirectory) addPatient() (accountID, patientID uuid.UUID) {
	accountID, patientID = uuid.New(), uuid.New()
	d.patients[accountID] = patientID
	return
}

func (d *mockDirectory) addDoctor() (accountID, doctorID uuid.UUID) {
	accountID, doctorID = uuid.New(), uuid.New()
	d.doctors[accountID] = doctorID
	d.known[doctorID] = true
	return
}

func (d *mockDirectory) PatientIDForAccount(_ context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	id, ok := d.patients[accountID]
	if !ok {
		return uuid.Nil, identity.ErrProfileNotFound
	}
	return id, nil
}

func (d *mockDirectory) DoctorIDForAccount(_ context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	id, ok := d.doctors[accountID]
	if !ok {
		return uuid.Nil, identity.ErrProfileNotFound
	}
	return id, nil
}

func (d *mockDirectory) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d.known[id], nil
}

func newTestService(t *testing.T) (*Service, *MemAppointmentRepo, *mockDirectory) {
	t.Helper()
	repo := NewMemAppointmentRepo()
	dir := newMockDirectory()
	return NewService(repo, dir), repo, dir
}

func slotAt(hour, minute int) time.Time {
	return time.Date(2026, 9, 1, hour, minute, 0, 0, time.UTC)
}

func TestAvailableSlots(t *testing.T) {
	svc, repo, dir := newTestService(t)
	ctx := context.Background()
	patientAcct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	// Book 10:00 via the service path.
	if _, err := svc.Create(ctx, patientAcct, CreateInput{
		DoctorID:  doctorID,
		StartTime: slotAt(10, 0),
	}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	slots, err := svc.AvailableSlots(ctx, doctorID, slotAt(0, 0))
	if err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	if len(slots) != SlotCount {
		t.Fatalf("got %d slots, want %d", len(slots), SlotCount)
	}
	for _, s := range slots {
		want := s.Time != "10:00"
		if s.Available != want {
			t.Errorf("slot %s available = %v, want %v", s.Time, s.Available, want)
		}
	}

	// Cancelled appointments free the slot.
	items, _, err := repo.List(ctx, Filter{DoctorID: &doctorID}, 10, 0)
	if err != nil || len(items) != 1 {
		t.Fatalf("List() = %d items, err %v", len(items), err)
	}
	if err := repo.UpdateStatus(ctx, items[0].ID, StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	slots, err = svc.AvailableSlots(ctx, doctorID, slotAt(0, 0))
	if err != nil {
		t.Fatalf("AvailableSlots() error: %v", err)
	}
	for _, s := range slots {
		if !s.Available {
			t.Errorf("slot %s should be free after cancellation", s.Time)
		}
	}
}

func TestAvailableSlots_UnknownDoctor(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AvailableSlots(context.Background(), uuid.New(), slotAt(0, 0))
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("error = %v, want ErrDoctorNotFound", err)
	}
}

func TestCreateAppointment(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	patientAcct, patientID := dir.addPatient()
	_, doctorID := dir.addDoctor()

	appt, err := svc.Create(ctx, patientAcct, CreateInput{
		DoctorID:  doctorID,
		StartTime: slotAt(9, 30),
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if appt.PatientID != patientID {
		t.Errorf("PatientID = %s, want %s", appt.PatientID, patientID)
	}
	if appt.Status != StatusScheduled {
		t.Errorf("Status = %s, want scheduled", appt.Status)
	}
	if appt.DurationMinutes != 30 {
		t.Errorf("DurationMinutes = %d, want default 30", appt.DurationMinutes)
	}
	if appt.ConsultationType != ConsultationVideo {
		t.Errorf("ConsultationType = %s, want default video", appt.ConsultationType)
	}
}

func TestCreateAppointment_Conflict(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	firstAcct, _ := dir.addPatient()
	secondAcct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	if _, err := svc.Create(ctx, firstAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(11, 0)}); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}

	_, err := svc.Create(ctx, secondAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(11, 0)})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("error = %v, want ErrSlotTaken", err)
	}

	// Seconds do not create a distinct slot.
	_, err = svc.Create(ctx, secondAcct, CreateInput{
		DoctorID:  doctorID,
		StartTime: time.Date(2026, 9, 1, 11, 0, 45, 0, time.UTC),
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("seconds-only difference: error = %v, want ErrSlotTaken", err)
	}

	// A different doctor at the same time is fine.
	_, otherDoctor := dir.addDoctor()
	if _, err := svc.Create(ctx, secondAcct, CreateInput{DoctorID: otherDoctor, StartTime: slotAt(11, 0)}); err != nil {
		t.Errorf("other doctor same time: error = %v, want nil", err)
	}
}

func TestCreateAppointment_MissingPatientProfile(t *testing.T) {
	svc, _, dir := newTestService(t)
	_, doctorID := dir.addDoctor()

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		DoctorID:  doctorID,
		StartTime: slotAt(9, 0),
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("error = %v, want ErrPatientNotFound", err)
	}
}

func TestCreateAppointment_UnknownDoctor(t *testing.T) {
	svc, _, dir := newTestService(t)
	patientAcct, _ := dir.addPatient()

	_, err := svc.Create(context.Background(), patientAcct, CreateInput{
		DoctorID:  uuid.New(),
		StartTime: slotAt(9, 0),
	})
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("error = %v, want ErrDoctorNotFound", err)
	}
}

func TestCreateAppointment_InvalidConsultationType(t *testing.T) {
	svc, _, dir := newTestService(t)
	patientAcct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	_, err := svc.Create(context.Background(), patientAcct, CreateInput{
		DoctorID:         doctorID,
		StartTime:        slotAt(9, 0),
		ConsultationType: "telepathy",
	})
	if err == nil {
		t.Error("expected error for unknown consultation type")
	}
}

func TestListForAccount_PatientScoping(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	aliceAcct, alicePID := dir.addPatient()
	bobAcct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	if _, err := svc.Create(ctx, aliceAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(9, 0)}); err != nil {
		t.Fatalf("Create(alice) error: %v", err)
	}
	if _, err := svc.Create(ctx, bobAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(9, 30)}); err != nil {
		t.Fatalf("Create(bob) error: %v", err)
	}

	items, total, err := svc.ListForAccount(ctx, aliceAcct, identity.RolePatient, Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("ListForAccount() error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("got %d/%d appointments, want 1", len(items), total)
	}
	if items[0].PatientID != alicePID {
		t.Errorf("listed appointment belongs to %s, want %s", items[0].PatientID, alicePID)
	}
}

func TestListForAccount_PatientCannotEscapeScope(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	aliceAcct, _ := dir.addPatient()
	bobAcct, bobPID := dir.addPatient()
	_, doctorID := dir.addDoctor()

	if _, err := svc.Create(ctx, bobAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(10, 0)}); err != nil {
		t.Fatalf("Create(bob) error: %v", err)
	}

	// Alice injects Bob's patient ID into the filter; the scope must win.
	f := Filter{PatientID: &bobPID}
	items, total, err := svc.ListForAccount(ctx, aliceAcct, identity.RolePatient, f, 20, 0)
	if err != nil {
		t.Fatalf("ListForAccount() error: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("alice saw %d of bob's appointments", len(items))
	}
}

func TestListForAccount_DoctorScoping(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	patientAcct, _ := dir.addPatient()
	drAcct, drID := dir.addDoctor()
	_, otherDrID := dir.addDoctor()

	if _, err := svc.Create(ctx, patientAcct, CreateInput{DoctorID: drID, StartTime: slotAt(9, 0)}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := svc.Create(ctx, patientAcct, CreateInput{DoctorID: otherDrID, StartTime: slotAt(9, 0)}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	items, total, err := svc.ListForAccount(ctx, drAcct, identity.RoleDoctor, Filter{}, 20, 0)
	if err != nil {
		t.Fatalf("ListForAccount() error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("got %d/%d appointments, want 1", len(items), total)
	}
	if items[0].DoctorID != drID {
		t.Errorf("listed appointment for doctor %s, want %s", items[0].DoctorID, drID)
	}
}

func TestListForAccount_ConjunctiveFilters(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	patientAcct, _ := dir.addPatient()
	_, drA := dir.addDoctor()
	_, drB := dir.addDoctor()

	if _, err := svc.Create(ctx, patientAcct, CreateInput{DoctorID: drA, StartTime: slotAt(9, 0)}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := svc.Create(ctx, patientAcct, CreateInput{DoctorID: drB, StartTime: slotAt(10, 0)}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	f := Filter{DoctorID: &drA, Status: StatusScheduled}
	items, _, err := svc.ListForAccount(ctx, patientAcct, identity.RolePatient, f, 20, 0)
	if err != nil {
		t.Fatalf("ListForAccount() error: %v", err)
	}
	if len(items) != 1 || items[0].DoctorID != drA {
		t.Errorf("conjunctive filter returned %d items", len(items))
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	patientAcct, _ := dir.addPatient()
	strangerAcct, _ := dir.addPatient()
	_, doctorID := dir.addDoctor()

	appt, err := svc.Create(ctx, patientAcct, CreateInput{DoctorID: doctorID, StartTime: slotAt(9, 0)})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// A stranger cannot touch it.
	_, err = svc.UpdateStatus(ctx, strangerAcct, identity.RolePatient, appt.ID, StatusCancelled)
	if !errors.Is(err, ErrNotParticipant) {
		t.Errorf("stranger update error = %v, want ErrNotParticipant", err)
	}

	// The owning patient can cancel.
	updated, err := svc.UpdateStatus(ctx, patientAcct, identity.RolePatient, appt.ID, StatusCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Errorf("Status = %s, want cancelled", updated.Status)
	}

	// Unknown status is rejected.
	if _, err := svc.UpdateStatus(ctx, patientAcct, identity.RolePatient, appt.ID, "postponed"); err == nil {
		t.Error("expected error for unknown status")
	}
}
