package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helio/telemed/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// =========== Account Repository ===========

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

func (r *accountRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const accountCols = `id, username, email, password_hash, role, active, last_login, created_at`

func (r *accountRepoPG) scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &a.Active,
		&a.LastLogin, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	return &a, err
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.Active)
	if isUniqueViolation(err) {
		return ErrDuplicateIdentifier
	}
	return err
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = $1`, id))
}

func (r *accountRepoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE username = $1`, username))
}

func (r *accountRepoPG) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE accounts SET last_login = NOW() WHERE id = $1`, id)
	return err
}

func (r *accountRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE accounts SET active = FALSE WHERE id = $1`, id)
	return err
}

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository { return &profileRepoPG{pool: pool} }

func (r *profileRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, account_id, first_name, last_name, date_of_birth, gender,
	phone, address, emergency_contact, created_at`

func (r *profileRepoPG) scanPatient(row pgx.Row) (*PatientProfile, error) {
	var p PatientProfile
	err := row.Scan(&p.ID, &p.AccountID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.Phone, &p.Address, &p.EmergencyContact, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return &p, err
}

func (r *profileRepoPG) CreatePatient(ctx context.Context, p *PatientProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profiles (id, account_id, first_name, last_name, date_of_birth,
			gender, phone, address, emergency_contact)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.AccountID, p.FirstName, p.LastName, p.DateOfBirth,
		p.Gender, p.Phone, p.Address, p.EmergencyContact)
	return err
}

func (r *profileRepoPG) GetPatientByAccount(ctx context.Context, accountID uuid.UUID) (*PatientProfile, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient_profiles WHERE account_id = $1`, accountID))
}

const doctorCols = `id, account_id, first_name, last_name, specialization, license_number,
	experience_years, consultation_fee, availability_status, languages, created_at`

func (r *profileRepoPG) scanDoctor(row pgx.Row) (*DoctorProfile, error) {
	var d DoctorProfile
	err := row.Scan(&d.ID, &d.AccountID, &d.FirstName, &d.LastName, &d.Specialization,
		&d.LicenseNumber, &d.ExperienceYears, &d.ConsultationFee, &d.AvailabilityStatus,
		&d.Languages, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return &d, err
}

func (r *profileRepoPG) CreateDoctor(ctx context.Context, d *DoctorProfile) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profiles (id, account_id, first_name, last_name, specialization,
			license_number, experience_years, consultation_fee, availability_status, languages)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		d.ID, d.AccountID, d.FirstName, d.LastName, d.Specialization,
		d.LicenseNumber, d.ExperienceYears, d.ConsultationFee, d.AvailabilityStatus, d.Languages)
	return err
}

func (r *profileRepoPG) GetDoctorByAccount(ctx context.Context, accountID uuid.UUID) (*DoctorProfile, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor_profiles WHERE account_id = $1`, accountID))
}

func (r *profileRepoPG) GetDoctorByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor_profiles WHERE id = $1`, id))
}

func (r *profileRepoPG) SearchDoctors(ctx context.Context, params map[string]string, limit, offset int) ([]*DoctorProfile, int, error) {
	query := `SELECT ` + doctorCols + ` FROM doctor_profiles WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM doctor_profiles WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["search"]; ok && p != "" {
		clause := fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR specialization ILIKE $%d)`, idx, idx, idx)
		query += clause
		countQuery += clause
		args = append(args, "%"+p+"%")
		idx++
	}
	if p, ok := params["specialization"]; ok && p != "" {
		query += fmt.Sprintf(` AND specialization = $%d`, idx)
		countQuery += fmt.Sprintf(` AND specialization = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["availability_status"]; ok && p != "" {
		query += fmt.Sprintf(` AND availability_status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND availability_status = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DoctorProfile
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

const pharmacyCols = `id, account_id, pharmacy_name, license_number, address, phone, created_at`

func (r *profileRepoPG) scanPharmacy(row pgx.Row) (*PharmacyProfile, error) {
	var p PharmacyProfile
	err := row.Scan(&p.ID, &p.AccountID, &p.PharmacyName, &p.LicenseNumber, &p.Address,
		&p.Phone, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return &p, err
}

func (r *profileRepoPG) CreatePharmacy(ctx context.Context, p *PharmacyProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pharmacy_profiles (id, account_id, pharmacy_name, license_number, address, phone)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.AccountID, p.PharmacyName, p.LicenseNumber, p.Address, p.Phone)
	return err
}

func (r *profileRepoPG) GetPharmacyByAccount(ctx context.Context, accountID uuid.UUID) (*PharmacyProfile, error) {
	return r.scanPharmacy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacy_profiles WHERE account_id = $1`, accountID))
}
