package pharmacy

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StockOut = "Out of Stock"
	StockLow = "Low Stock"
	StockIn  = "In Stock"

	lowStockThreshold = 10
)

// Medicine is a catalog entry. Stock status is derived from the quantity
// on every read and never persisted.
type Medicine struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	GenericName          string     `db:"generic_name" json:"generic_name"`
	Manufacturer         string     `db:"manufacturer" json:"manufacturer"`
	Price                float64    `db:"price" json:"price"`
	StockQuantity        int        `db:"stock_quantity" json:"stock_quantity"`
	ExpiryDate           *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	Category             string     `db:"category" json:"category"`
	RequiresPrescription bool       `db:"requires_prescription" json:"requires_prescription"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

// StockStatus buckets the quantity: 0 is out, below 10 is low, 10 and up
// is in stock.
func (m *Medicine) StockStatus() string {
	switch {
	case m.StockQuantity == 0:
		return StockOut
	case m.StockQuantity < lowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// MarshalJSON attaches the derived stock_status field.
func (m *Medicine) MarshalJSON() ([]byte, error) {
	type alias Medicine
	return json.Marshal(struct {
		*alias
		StockStatus string `json:"stock_status"`
	}{(*alias)(m), m.StockStatus()})
}

// PrescriptionItem is one line on a prescription.
type PrescriptionItem struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type Prescription struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	PatientID     uuid.UUID          `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID         `db:"appointment_id" json:"appointment_id,omitempty"`
	Medicines     []PrescriptionItem `db:"medicines" json:"medicines"`
	Diagnosis     string             `db:"diagnosis" json:"diagnosis"`
	Instructions  string             `db:"instructions" json:"instructions"`
	IsDispensed   bool               `db:"is_dispensed" json:"is_dispensed"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}

// Medicine request statuses.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestFulfilled = "fulfilled"
)

var validRequestStatuses = map[string]bool{
	RequestPending:   true,
	RequestApproved:  true,
	RequestRejected:  true,
	RequestFulfilled: true,
}

// MedicineRequest is a patient's ask for a medicine the catalog lacks.
type MedicineRequest struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicineName string    `db:"medicine_name" json:"medicine_name"`
	Note         string    `db:"note" json:"note"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
