package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helio/telemed/internal/domain/identity"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient profile not found")
	ErrSlotTaken           = errors.New("slot is already booked")
	ErrNotParticipant      = errors.New("appointment does not involve the caller")
)

// ProfileDirectory resolves role profiles for authenticated accounts.
// identity.Service satisfies it.
type ProfileDirectory interface {
	PatientIDForAccount(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
	DoctorIDForAccount(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	appointments AppointmentRepository
	profiles     ProfileDirectory
}

func NewService(appointments AppointmentRepository, profiles ProfileDirectory) *Service {
	return &Service{appointments: appointments, profiles: profiles}
}

// AvailableSlots returns the day grid for a doctor on the given date.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]SlotStatus, error) {
	ok, err := s.profiles.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}

	booked, err := s.appointments.BookedStartTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return DaySlots(booked), nil
}

// CreateInput carries a patient's booking request.
type CreateInput struct {
	DoctorID         uuid.UUID `json:"doctor_id"`
	StartTime        time.Time `json:"start_time"`
	DurationMinutes  int       `json:"duration_minutes"`
	ConsultationType string    `json:"consultation_type"`
	Symptoms         *string   `json:"symptoms"`
	Notes            *string   `json:"notes"`
}

// Create books an appointment for the calling patient. The caller's patient
// profile must exist; the slot must not already hold a non-cancelled
// appointment for the doctor.
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, in CreateInput) (*Appointment, error) {
	patientID, err := s.profiles.PatientIDForAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if in.StartTime.IsZero() {
		return nil, fmt.Errorf("start_time is required")
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = slotMinutes
	}
	if in.DurationMinutes < 0 {
		return nil, fmt.Errorf("duration_minutes must be positive")
	}
	if in.ConsultationType == "" {
		in.ConsultationType = ConsultationVideo
	}
	if !validConsultationTypes[in.ConsultationType] {
		return nil, fmt.Errorf("invalid consultation type: %s", in.ConsultationType)
	}

	ok, err := s.profiles.DoctorExists(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}

	taken, err := s.appointments.ExistsActiveAt(ctx, in.DoctorID, in.StartTime)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	appt := &Appointment{
		PatientID:        patientID,
		DoctorID:         in.DoctorID,
		StartTime:        in.StartTime,
		DurationMinutes:  in.DurationMinutes,
		Status:           StatusScheduled,
		ConsultationType: in.ConsultationType,
		Symptoms:         in.Symptoms,
		Notes:            in.Notes,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// ListForAccount lists appointments visible to the caller. Patients see
// only their own rows no matter what filters they pass; doctors see only
// appointments assigned to them.
func (s *Service) ListForAccount(ctx context.Context, accountID uuid.UUID, role identity.Role, f Filter, limit, offset int) ([]*Appointment, int, error) {
	switch role {
	case identity.RolePatient:
		patientID, err := s.profiles.PatientIDForAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, identity.ErrProfileNotFound) {
				return nil, 0, ErrPatientNotFound
			}
			return nil, 0, err
		}
		// Forced scoping; a patient-supplied patient filter is discarded.
		f.PatientID = &patientID
	case identity.RoleDoctor:
		doctorID, err := s.profiles.DoctorIDForAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, identity.ErrProfileNotFound) {
				return nil, 0, ErrDoctorNotFound
			}
			return nil, 0, err
		}
		f.DoctorID = &doctorID
	default:
		return nil, 0, fmt.Errorf("role %s cannot list appointments", role)
	}

	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, fmt.Errorf("invalid appointment status: %s", f.Status)
	}

	return s.appointments.List(ctx, f, limit, offset)
}

// UpdateStatus moves an appointment to a new status. Only the patient or
// the doctor on the appointment may change it.
func (s *Service) UpdateStatus(ctx context.Context, accountID uuid.UUID, role identity.Role, id uuid.UUID, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid appointment status: %s", status)
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch role {
	case identity.RolePatient:
		patientID, err := s.profiles.PatientIDForAccount(ctx, accountID)
		if err != nil || patientID != appt.PatientID {
			return nil, ErrNotParticipant
		}
	case identity.RoleDoctor:
		doctorID, err := s.profiles.DoctorIDForAccount(ctx, accountID)
		if err != nil || doctorID != appt.DoctorID {
			return nil, ErrNotParticipant
		}
	default:
		return nil, ErrNotParticipant
	}

	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	appt.Status = status
	return appt, nil
}
