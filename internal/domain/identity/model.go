package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. Every dispatch on Role is an
// exhaustive switch; there is no free-form role string anywhere else.
type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RolePharmacist Role = "pharmacist"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RolePharmacist:
		return true
	}
	return false
}

// Account maps to the accounts table. Accounts are deactivated, never
// deleted; PasswordHash is a bcrypt hash and never leaves the package.
type Account struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// PatientProfile maps to the patient_profiles table, 1:1 with an Account.
type PatientProfile struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	AccountID        uuid.UUID  `db:"account_id" json:"account_id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	DateOfBirth      *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           *string    `db:"gender" json:"gender,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	Address          *string    `db:"address" json:"address,omitempty"`
	EmergencyContact *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// Doctor availability statuses.
const (
	AvailabilityAvailable    = "available"
	AvailabilityNotAvailable = "not_available"
	AvailabilityOnCall       = "on_call"
	AvailabilityOffline      = "offline"
)

var validAvailabilityStatuses = map[string]bool{
	AvailabilityAvailable:    true,
	AvailabilityNotAvailable: true,
	AvailabilityOnCall:       true,
	AvailabilityOffline:      true,
}

// DoctorProfile maps to the doctor_profiles table, 1:1 with an Account.
type DoctorProfile struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	AccountID          uuid.UUID `db:"account_id" json:"account_id"`
	FirstName          string    `db:"first_name" json:"first_name"`
	LastName           string    `db:"last_name" json:"last_name"`
	Specialization     string    `db:"specialization" json:"specialization"`
	LicenseNumber      *string   `db:"license_number" json:"license_number,omitempty"`
	ExperienceYears    *int      `db:"experience_years" json:"experience_years,omitempty"`
	ConsultationFee    *float64  `db:"consultation_fee" json:"consultation_fee,omitempty"`
	AvailabilityStatus string    `db:"availability_status" json:"availability_status"`
	Languages          []string  `db:"languages" json:"languages,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// PharmacyProfile maps to the pharmacy_profiles table, 1:1 with an Account.
type PharmacyProfile struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AccountID     uuid.UUID `db:"account_id" json:"account_id"`
	PharmacyName  string    `db:"pharmacy_name" json:"pharmacy_name"`
	LicenseNumber *string   `db:"license_number" json:"license_number,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Profile is the resolved role-specific profile for an account. Exactly one
// of the pointers is set, matching the account role.
type Profile struct {
	Patient  *PatientProfile  `json:"patient,omitempty"`
	Doctor   *DoctorProfile   `json:"doctor,omitempty"`
	Pharmacy *PharmacyProfile `json:"pharmacy,omitempty"`
}
