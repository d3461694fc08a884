package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows appointment listings. Set fields combine conjunctively.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Date      *time.Time
	Status    string
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// BookedStartTimes returns start times of non-cancelled appointments
	// for the doctor on the given calendar date.
	BookedStartTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]time.Time, error)
	// ExistsActiveAt reports whether a non-cancelled appointment for the
	// doctor starts at exactly the given hour and minute.
	ExistsActiveAt(ctx context.Context, doctorID uuid.UUID, start time.Time) (bool, error)
}
