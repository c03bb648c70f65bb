package patient

import (
	"time"

	"github.com/google/uuid"
)

// CreatePatientRequest is the body of POST /patients.
type CreatePatientRequest struct {
	Name        string  `json:"name"`
	DateOfBirth string  `json:"dateOfBirth"`
	Email       *string `json:"email"`
}

// UpdatePatientRequest is the body of PUT /patients/:id. All three fields
// are applied; an omitted email clears the stored one.
type UpdatePatientRequest struct {
	Name        string  `json:"name"`
	DateOfBirth string  `json:"dateOfBirth"`
	Email       *string `json:"email"`
}

// PatientFields holds validated, client-settable attributes.
type PatientFields struct {
	Name        string
	DateOfBirth time.Time
	Email       *string
}

// PatientResponse is the outward shape of a patient.
type PatientResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"dateOfBirth"`
	Email       *string   `json:"email"`
	Age         int       `json:"age"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
