package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemAppointmentRepo is a thread-safe, map-backed AppointmentRepository for
// testing and development.
type MemAppointmentRepo struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*Appointment
}

func NewMemAppointmentRepo() *MemAppointmentRepo {
	return &MemAppointmentRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (r *MemAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.appointments {
		if existing.DoctorID == a.DoctorID &&
			existing.Status != StatusCancelled &&
			sameMinute(existing.StartTime, a.StartTime) {
			return ErrSlotTaken
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *MemAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (r *MemAppointmentRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Appointment
	for _, a := range r.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Date != nil && !sameDate(a.StartTime, *f.Date) {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		cp := *a
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartTime.Before(matched[j].StartTime)
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

func (r *MemAppointmentRepo) BookedStartTimes(_ context.Context, doctorID uuid.UUID, date time.Time) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var times []time.Time
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Status != StatusCancelled && sameDate(a.StartTime, date) {
			times = append(times, a.StartTime)
		}
	}
	return times, nil
}

func (r *MemAppointmentRepo) ExistsActiveAt(_ context.Context, doctorID uuid.UUID, start time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Status != StatusCancelled && sameMinute(a.StartTime, start) {
			return true, nil
		}
	}
	return false, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// sameMinute compares down to the minute; seconds never matter for slots.
func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}
