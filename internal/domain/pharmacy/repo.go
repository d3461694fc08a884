package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

// MedicineFilter narrows a catalog search. All set fields apply together.
type MedicineFilter struct {
	Search   string // substring over name and generic name, case-insensitive
	Category string
	LowStock bool // quantity below the low-stock threshold
}

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Search(ctx context.Context, f MedicineFilter, limit, offset int) ([]*Medicine, int, error)
}

// PrescriptionFilter scopes a prescription listing.
type PrescriptionFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	List(ctx context.Context, f PrescriptionFilter, limit, offset int) ([]*Prescription, int, error)
	MarkDispensed(ctx context.Context, id uuid.UUID) error
}

// RequestFilter scopes a medicine-request listing.
type RequestFilter struct {
	PatientID *uuid.UUID
	Status    string
}

type MedicineRequestRepository interface {
	Create(ctx context.Context, r *MedicineRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicineRequest, error)
	List(ctx context.Context, f RequestFilter, limit, offset int) ([]*MedicineRequest, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
