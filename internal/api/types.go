package api

import (
	"time"

	"github.com/hackgods/consultation-scheduling/internal/appointment"
	"github.com/hackgods/consultation-scheduling/internal/participant"
)

// TimeLayout is accepted for timestamps without an offset, next to RFC 3339.
const (
	TimeLayout = "2006-01-02T15:04"
	DateLayout = "2006-01-02"
)

type CreateAppointmentRequest struct {
	PatientID   string `json:"patient_id"`
	ProviderID  string `json:"provider_id"`
	ScheduledAt string `json:"scheduled_at"`
	Notes       string `json:"notes,omitempty"`
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes,omitempty"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type AppointmentResponse struct {
	ID              string     `json:"id"`
	PatientID       string     `json:"patient_id"`
	ProviderID      string     `json:"provider_id"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CompletionNotes string     `json:"completion_notes,omitempty"`
	Upcoming        bool       `json:"upcoming"`
	Overdue         bool       `json:"overdue"`
}

type AppointmentListResponse struct {
	Items []AppointmentResponse `json:"items"`
	Count int                   `json:"count"`
}

type SlotResponse struct {
	ProviderID string    `json:"provider_id"`
	At         time.Time `json:"at"`
	Free       bool      `json:"free"`
}

type CreatePatientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type CreateProviderRequest struct {
	Name      string `json:"name"`
	License   string `json:"license"`
	Specialty string `json:"specialty,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type PatientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type ProviderResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	License        string    `json:"license"`
	Specialty      string    `json:"specialty"`
	SpecialtyLabel string    `json:"specialty_label"`
	Phone          string    `json:"phone,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

type AvailableProvidersResponse struct {
	At        time.Time          `json:"at"`
	Providers []ProviderResponse `json:"providers"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment, now time.Time, window time.Duration) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		ProviderID:      a.ProviderID,
		ScheduledAt:     a.ScheduledAt,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
		CancelledAt:     a.CancelledAt,
		CancelReason:    a.CancelReason,
		CompletedAt:     a.CompletedAt,
		CompletionNotes: a.CompletionNotes,
		Upcoming:        a.IsUpcoming(now, window),
		Overdue:         a.IsOverdue(now),
	}
}

func toPatientResponse(p participant.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
	}
}

func toProviderResponse(p participant.Provider) ProviderResponse {
	return ProviderResponse{
		ID:             p.ID,
		Name:           p.Name,
		License:        p.License,
		Specialty:      string(p.Specialty),
		SpecialtyLabel: p.Specialty.Label(),
		Phone:          p.Phone,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
	}
}
