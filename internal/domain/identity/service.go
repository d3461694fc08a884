package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers unknown username, wrong password and
	// deactivated account alike. Callers never learn which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrDuplicateIdentifier = errors.New("username or email already registered")
	ErrAccountNotFound     = errors.New("account not found")
	ErrProfileNotFound     = errors.New("profile not found")
)

// TxRunner runs fn atomically. The PostgreSQL wiring backs it with a single
// transaction; tests substitute their own.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// NopTx runs fn directly with no transaction semantics.
func NopTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	accounts AccountRepository
	profiles ProfileRepository
	tx       TxRunner
	log      zerolog.Logger
}

func NewService(accounts AccountRepository, profiles ProfileRepository, tx TxRunner, log zerolog.Logger) *Service {
	if tx == nil {
		tx = NopTx
	}
	return &Service{accounts: accounts, profiles: profiles, tx: tx, log: log}
}

// RegisterInput carries everything needed to create an account and its
// role profile in one step.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`

	// Patient / doctor profile fields
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Doctor profile fields
	Specialization  string   `json:"specialization"`
	LicenseNumber   *string  `json:"license_number"`
	ExperienceYears *int     `json:"experience_years"`
	ConsultationFee *float64 `json:"consultation_fee"`
	Languages       []string `json:"languages"`

	// Pharmacist profile fields
	PharmacyName string  `json:"pharmacy_name"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
}

func (in *RegisterInput) validate() error {
	if in.Username == "" {
		return fmt.Errorf("username is required")
	}
	if in.Email == "" {
		return fmt.Errorf("email is required")
	}
	if len(in.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if !in.Role.Valid() {
		return fmt.Errorf("invalid role: %s", in.Role)
	}
	switch in.Role {
	case RolePatient, RoleDoctor:
		if in.FirstName == "" || in.LastName == "" {
			return fmt.Errorf("first_name and last_name are required")
		}
		if in.Role == RoleDoctor && in.Specialization == "" {
			return fmt.Errorf("specialization is required")
		}
	case RolePharmacist:
		if in.PharmacyName == "" {
			return fmt.Errorf("pharmacy_name is required")
		}
	}
	return nil
}

// Register creates the account and its role profile atomically. Either both
// rows exist afterwards or neither does.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Active:       true,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, account); err != nil {
			return err
		}
		switch in.Role {
		case RolePatient:
			return s.profiles.CreatePatient(ctx, &PatientProfile{
				AccountID: account.ID,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Phone:     in.Phone,
				Address:   in.Address,
			})
		case RoleDoctor:
			return s.profiles.CreateDoctor(ctx, &DoctorProfile{
				AccountID:          account.ID,
				FirstName:          in.FirstName,
				LastName:           in.LastName,
				Specialization:     in.Specialization,
				LicenseNumber:      in.LicenseNumber,
				ExperienceYears:    in.ExperienceYears,
				ConsultationFee:    in.ConsultationFee,
				AvailabilityStatus: AvailabilityAvailable,
				Languages:          in.Languages,
			})
		case RolePharmacist:
			return s.profiles.CreatePharmacy(ctx, &PharmacyProfile{
				AccountID:     account.ID,
				PharmacyName:  in.PharmacyName,
				LicenseNumber: in.LicenseNumber,
				Address:       in.Address,
				Phone:         in.Phone,
			})
		}
		return fmt.Errorf("invalid role: %s", in.Role)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Login verifies the credentials and records the login time. Verification
// failures of every kind return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Account, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.Active {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	// Best effort; a failed timestamp update must not block the login.
	if err := s.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID.String()).Msg("failed to record last login")
	}

	return account, nil
}

// Resolve returns the account and the one profile selected by its role.
// A missing profile row for the account's role is ErrProfileNotFound.
func (s *Service) Resolve(ctx context.Context, accountID uuid.UUID) (*Account, *Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}

	profile := &Profile{}
	switch account.Role {
	case RolePatient:
		profile.Patient, err = s.profiles.GetPatientByAccount(ctx, accountID)
	case RoleDoctor:
		profile.Doctor, err = s.profiles.GetDoctorByAccount(ctx, accountID)
	case RolePharmacist:
		profile.Pharmacy, err = s.profiles.GetPharmacyByAccount(ctx, accountID)
	default:
		return nil, nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	return account, profile, nil
}

// GetDoctor returns a doctor profile by its profile ID.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return s.profiles.GetDoctorByID(ctx, id)
}

// SearchDoctors lists the public doctor directory.
func (s *Service) SearchDoctors(ctx context.Context, params map[string]string, limit, offset int) ([]*DoctorProfile, int, error) {
	return s.profiles.SearchDoctors(ctx, params, limit, offset)
}

// PatientIDForAccount resolves the caller's patient profile ID.
func (s *Service) PatientIDForAccount(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	p, err := s.profiles.GetPatientByAccount(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// DoctorIDForAccount resolves the caller's doctor profile ID.
func (s *Service) DoctorIDForAccount(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	d, err := s.profiles.GetDoctorByAccount(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}

// DoctorExists reports whether a doctor profile with the given ID exists.
func (s *Service) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.profiles.GetDoctorByID(ctx, id)
	if errors.Is(err, ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
