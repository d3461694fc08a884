package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Consultation types.
const (
	ConsultationVideo = "video"
	ConsultationPhone = "phone"
	ConsultationChat  = "chat"
)

var validConsultationTypes = map[string]bool{
	ConsultationVideo: true,
	ConsultationPhone: true,
	ConsultationChat:  true,
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctor_id"`
	StartTime        time.Time `db:"start_time" json:"start_time"`
	DurationMinutes  int       `db:"duration_minutes" json:"duration_minutes"`
	Status           string    `db:"status" json:"status"`
	ConsultationType string    `db:"consultation_type" json:"consultation_type"`
	Symptoms         *string   `db:"symptoms" json:"symptoms,omitempty"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Working day slot grid: half-hour slots from 09:00 to 16:30 inclusive.
const (
	dayStartHour = 9
	dayEndHour   = 17
	slotMinutes  = 30
)

// SlotCount is the number of bookable slots in a working day.
const SlotCount = (dayEndHour - dayStartHour) * 60 / slotMinutes

// SlotStatus is one entry of the day grid returned to callers.
type SlotStatus struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DaySlots enumerates the day's slot grid in ascending order. A slot is
// unavailable iff some booked start time lands on exactly that hour and
// minute; seconds are ignored, and an appointment longer than one slot
// still blocks only its starting slot.
func DaySlots(booked []time.Time) []SlotStatus {
	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b.Format("15:04")] = true
	}

	slots := make([]SlotStatus, 0, SlotCount)
	for hour := dayStartHour; hour < dayEndHour; hour++ {
		for _, minute := range []int{0, 30} {
			label := time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
			slots = append(slots, SlotStatus{
				Time:      label,
				Available: !taken[label],
			})
		}
	}
	return slots
}
