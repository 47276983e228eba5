package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/Airo-DDS/laine-sub000/internal/schedule"
)

// ToolResponse is the outbound envelope for the voice platform; exactly one
// of Result/Error is populated per entry.
type ToolResponse struct {
	Results []ToolResult `json:"results"`
}

type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	StartAt     time.Time `json:"startAt"`
	Reason      string    `json:"reason"`
	PatientType string    `json:"patientType"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	PatientID   uuid.UUID `json:"patientId"`
}

func toAppointmentResponse(a schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		StartAt:     a.StartAt,
		Reason:      a.Reason,
		PatientType: string(a.PatientType),
		Status:      string(a.Status),
		Notes:       a.Notes,
		PatientID:   a.PatientID,
	}
}

type PatientResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
}

func toPatientResponse(p schedule.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
	}
}

type CreatePatientRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
