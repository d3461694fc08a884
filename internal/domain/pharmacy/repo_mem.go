package pharmacy

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemMedicineRepo is a thread-safe, map-backed MedicineRepository for
// testing and development.
type MemMedicineRepo struct {
	mu        sync.RWMutex
	medicines map[uuid.UUID]*Medicine
}

func NewMemMedicineRepo() *MemMedicineRepo {
	return &MemMedicineRepo{medicines: make(map[uuid.UUID]*Medicine)}
}

func (r *MemMedicineRepo) Create(_ context.Context, m *Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()
	cp := *m
	r.medicines[m.ID] = &cp
	return nil
}

func (r *MemMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.medicines[id]
	if !ok {
		return nil, ErrMedicineNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MemMedicineRepo) Search(_ context.Context, f MedicineFilter, limit, offset int) ([]*Medicine, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Medicine
	for _, m := range r.medicines {
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(m.Name), needle) &&
				!strings.Contains(strings.ToLower(m.GenericName), needle) {
				continue
			}
		}
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if f.LowStock && m.StockQuantity >= lowStockThreshold {
			continue
		}
		cp := *m
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return page(matched, limit, offset)
}

// MemPrescriptionRepo is a map-backed PrescriptionRepository.
type MemPrescriptionRepo struct {
	mu            sync.RWMutex
	prescriptions map[uuid.UUID]*Prescription
}

func NewMemPrescriptionRepo() *MemPrescriptionRepo {
	return &MemPrescriptionRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (r *MemPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	cp.Medicines = append([]PrescriptionItem(nil), p.Medicines...)
	r.prescriptions[p.ID] = &cp
	return nil
}

func (r *MemPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prescriptions[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	cp := *p
	cp.Medicines = append([]PrescriptionItem(nil), p.Medicines...)
	return &cp, nil
}

func (r *MemPrescriptionRepo) List(_ context.Context, f PrescriptionFilter, limit, offset int) ([]*Prescription, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Prescription
	for _, p := range r.prescriptions {
		if f.PatientID != nil && p.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && p.DoctorID != *f.DoctorID {
			continue
		}
		cp := *p
		cp.Medicines = append([]PrescriptionItem(nil), p.Medicines...)
		matched = append(matched, &cp)
	}

	// Newest first.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, limit, offset)
}

func (r *MemPrescriptionRepo) MarkDispensed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prescriptions[id]
	if !ok {
		return ErrPrescriptionNotFound
	}
	p.IsDispensed = true
	return nil
}

// MemMedicineRequestRepo serializes access to the shared request set with a
// mutex so concurrent submissions never lose updates.
type MemMedicineRequestRepo struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*MedicineRequest
}

func NewMemMedicineRequestRepo() *MemMedicineRequestRepo {
	return &MemMedicineRequestRepo{requests: make(map[uuid.UUID]*MedicineRequest)}
}

func (r *MemMedicineRequestRepo) Create(_ context.Context, req *MedicineRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *MemMedicineRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicineRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *MemMedicineRequestRepo) List(_ context.Context, f RequestFilter, limit, offset int) ([]*MedicineRequest, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*MedicineRequest
	for _, req := range r.requests {
		if f.PatientID != nil && req.PatientID != *f.PatientID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		cp := *req
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, limit, offset)
}

func (r *MemMedicineRequestRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	req.Status = status
	return nil
}

func page[T any](items []T, limit, offset int) ([]T, int, error) {
	total := len(items)
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end], total, nil
}
