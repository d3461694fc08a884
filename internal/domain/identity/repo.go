package identity

import (
	"context"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	CreatePatient(ctx context.Context, p *PatientProfile) error
	GetPatientByAccount(ctx context.Context, accountID uuid.UUID) (*PatientProfile, error)

	CreateDoctor(ctx context.Context, d *DoctorProfile) error
	GetDoctorByAccount(ctx context.Context, accountID uuid.UUID) (*DoctorProfile, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error)
	SearchDoctors(ctx context.Context, params map[string]string, limit, offset int) ([]*DoctorProfile, int, error)

	CreatePharmacy(ctx context.Context, p *PharmacyProfile) error
	GetPharmacyByAccount(ctx context.Context, accountID uuid.UUID) (*PharmacyProfile, error)
}
