package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/helio/telemed/internal/domain/identity"
)

var (
	ErrMedicineNotFound     = errors.New("medicine not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrRequestNotFound      = errors.New("medicine request not found")
	ErrAlreadyDispensed     = errors.New("prescription already dispensed")
	ErrPatientNotFound      = errors.New("patient profile not found")
	ErrDoctorNotFound       = errors.New("doctor profile not found")
)

// ProfileDirectory resolves role profiles for authenticated accounts.
// identity.Service satisfies it.
type ProfileDirectory interface {
	PatientIDForAccount(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
	DoctorIDForAccount(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	medicines     MedicineRepository
	prescriptions PrescriptionRepository
	requests      MedicineRequestRepository
	profiles      ProfileDirectory
}

func NewService(medicines MedicineRepository, prescriptions PrescriptionRepository, requests MedicineRequestRepository, profiles ProfileDirectory) *Service {
	return &Service{
		medicines:     medicines,
		prescriptions: prescriptions,
		requests:      requests,
		profiles:      profiles,
	}
}

// SearchMedicines is a public catalog read.
func (s *Service) SearchMedicines(ctx context.Context, f MedicineFilter, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.Search(ctx, f, limit, offset)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

// PrescriptionInput carries a doctor's prescription for a patient.
type PrescriptionInput struct {
	PatientID     uuid.UUID          `json:"patient_id"`
	AppointmentID *uuid.UUID         `json:"appointment_id"`
	Medicines     []PrescriptionItem `json:"medicines"`
	Diagnosis     string             `json:"diagnosis"`
	Instructions  string             `json:"instructions"`
}

func (in *PrescriptionInput) validate() error {
	if in.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(in.Medicines) == 0 {
		return fmt.Errorf("at least one medicine is required")
	}
	for i, item := range in.Medicines {
		if item.Name == "" {
			return fmt.Errorf("medicines[%d]: name is required", i)
		}
	}
	return nil
}

// CreatePrescription writes a prescription authored by the calling doctor.
func (s *Service) CreatePrescription(ctx context.Context, doctorAccountID uuid.UUID, in PrescriptionInput) (*Prescription, error) {
	doctorID, err := s.profiles.DoctorIDForAccount(ctx, doctorAccountID)
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &Prescription{
		PatientID:     in.PatientID,
		DoctorID:      doctorID,
		AppointmentID: in.AppointmentID,
		Medicines:     in.Medicines,
		Diagnosis:     in.Diagnosis,
		Instructions:  in.Instructions,
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPrescriptions scopes the listing by the caller's role. Patients and
// doctors see their own prescriptions; pharmacists see all of them so they
// can dispense.
func (s *Service) ListPrescriptions(ctx context.Context, accountID uuid.UUID, role identity.Role, limit, offset int) ([]*Prescription, int, error) {
	var f PrescriptionFilter
	switch role {
	case identity.RolePatient:
		patientID, err := s.profiles.PatientIDForAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, identity.ErrProfileNotFound) {
				return nil, 0, ErrPatientNotFound
			}
			return nil, 0, err
		}
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
	case identity.RolePharmacist:
		// Unscoped.
	default:
		return nil, 0, fmt.Errorf("role %s cannot list prescriptions", role)
	}

	return s.prescriptions.List(ctx, f, limit, offset)
}

// Dispense marks a prescription as handed out. It can happen once.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDispensed {
		return nil, ErrAlreadyDispensed
	}
	if err := s.prescriptions.MarkDispensed(ctx, id); err != nil {
		return nil, err
	}
	p.IsDispensed = true
	return p, nil
}

// RequestInput is a patient's ask for a medicine the catalog lacks.
type RequestInput struct {
	MedicineName string `json:"medicine_name"`
	Note         string `json:"note"`
}

func (s *Service) CreateRequest(ctx context.Context, patientAccountID uuid.UUID, in RequestInput) (*MedicineRequest, error) {
	patientID, err := s.profiles.PatientIDForAccount(ctx, patientAccountID)
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if in.MedicineName == "" {
		return nil, fmt.Errorf("medicine_name is required")
	}

	req := &MedicineRequest{
		PatientID:    patientID,
		MedicineName: in.MedicineName,
		Note:         in.Note,
		Status:       RequestPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests shows a patient their own requests and a pharmacist every
// request, optionally filtered by status.
func (s *Service) ListRequests(ctx context.Context, accountID uuid.UUID, role identity.Role, status string, limit, offset int) ([]*MedicineRequest, int, error) {
	if status != "" && !validRequestStatuses[status] {
		return nil, 0, fmt.Errorf("invalid request status: %s", status)
	}

	f := RequestFilter{Status: status}
	switch role {
	case identity.RolePatient:
		patientID, err := s.profiles.PatientIDForAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, identity.ErrProfileNotFound) {
				return nil, 0, ErrPatientNotFound
			}
			return nil, 0, err
		}
		f.PatientID = &patientID
	case identity.RolePharmacist:
		// Unscoped.
	default:
		return nil, 0, fmt.Errorf("role %s cannot list medicine requests", role)
	}

	return s.requests.List(ctx, f, limit, offset)
}

// UpdateRequestStatus moves a request along the review flow.
func (s *Service) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) (*MedicineRequest, error) {
	if !validRequestStatuses[status] {
		return nil, fmt.Errorf("invalid request status: %s", status)
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	req.Status = status
	return req, nil
}
