package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemAccountRepo is a thread-safe, map-backed AccountRepository for
// testing and development.
type MemAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
}

func NewMemAccountRepo() *MemAccountRepo {
	return &MemAccountRepo{accounts: make(map[uuid.UUID]*Account)}
}

func (r *MemAccountRepo) Create(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Username == a.Username || existing.Email == a.Email {
			return ErrDuplicateIdentifier
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *MemAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemAccountRepo) GetByUsername(_ context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *MemAccountRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	now := time.Now().UTC()
	a.LastLogin = &now
	return nil
}

func (r *MemAccountRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.Active = false
	return nil
}

// Snapshot returns a copy of the current account set. Together with Restore
// it gives the in-memory setup transaction semantics; there is no
// PostgreSQL counterpart.
func (r *MemAccountRepo) Snapshot() map[uuid.UUID]*Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(map[uuid.UUID]*Account, len(r.accounts))
	for id, a := range r.accounts {
		cp := *a
		snap[id] = &cp
	}
	return snap
}

// Restore replaces the account set with a snapshot taken earlier.
func (r *MemAccountRepo) Restore(snap map[uuid.UUID]*Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = snap
}

// MemProfileRepo is a thread-safe, map-backed ProfileRepository for
// testing and development.
type MemProfileRepo struct {
	mu         sync.RWMutex
	patients   map[uuid.UUID]*PatientProfile
	doctors    map[uuid.UUID]*DoctorProfile
	pharmacies map[uuid.UUID]*PharmacyProfile

	// FailPatientCreate makes the next CreatePatient call fail. Used to
	// exercise registration rollback.
	FailPatientCreate error
}

func NewMemProfileRepo() *MemProfileRepo {
	return &MemProfileRepo{
		patients:   make(map[uuid.UUID]*PatientProfile),
		doctors:    make(map[uuid.UUID]*DoctorProfile),
		pharmacies: make(map[uuid.UUID]*PharmacyProfile),
	}
}

func (r *MemProfileRepo) CreatePatient(_ context.Context, p *PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailPatientCreate != nil {
		return r.FailPatientCreate
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *MemProfileRepo) GetPatientByAccount(_ context.Context, accountID uuid.UUID) (*PatientProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patients {
		if p.AccountID == accountID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (r *MemProfileRepo) CreateDoctor(_ context.Context, d *DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	r.doctors[d.ID] = &cp
	return nil
}

func (r *MemProfileRepo) GetDoctorByAccount(_ context.Context, accountID uuid.UUID) (*DoctorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.doctors {
		if d.AccountID == accountID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (r *MemProfileRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*DoctorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *MemProfileRepo) SearchDoctors(_ context.Context, params map[string]string, limit, offset int) ([]*DoctorProfile, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*DoctorProfile
	for _, d := range r.doctors {
		if !matchesDoctor(d, params) {
			continue
		}
		cp := *d
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].LastName != matched[j].LastName {
			return matched[i].LastName < matched[j].LastName
		}
		return matched[i].FirstName < matched[j].FirstName
	})

	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func matchesDoctor(d *DoctorProfile, params map[string]string) bool {
	if p := params["search"]; p != "" {
		needle := strings.ToLower(p)
		if !strings.Contains(strings.ToLower(d.FirstName), needle) &&
			!strings.Contains(strings.ToLower(d.LastName), needle) &&
			!strings.Contains(strings.ToLower(d.Specialization), needle) {
			return false
		}
	}
	if p := params["specialization"]; p != "" && d.Specialization != p {
		return false
	}
	if p := params["availability_status"]; p != "" && d.AvailabilityStatus != p {
		return false
	}
	return true
}

func (r *MemProfileRepo) CreatePharmacy(_ context.Context, p *PharmacyProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.pharmacies[p.ID] = &cp
	return nil
}

func (r *MemProfileRepo) GetPharmacyByAccount(_ context.Context, accountID uuid.UUID) (*PharmacyProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.pharmacies {
		if p.AccountID == accountID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}
