package entity

import "encoding/json"

type CreateSessionRequest struct {
	Filename string  `json:"filename" validate:"required"`
	FileURL  string  `json:"fileURL" validate:"required"`
	Type     *string `json:"type,omitempty"`
}

type CreateSessionResponse struct {
	FileID string `json:"fileId"`
}

type TranscribeRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
}

type TranscribeResponse struct {
	SessionID     string `json:"sessionId"`
	Transcription string `json:"transcription"`
	FromCache     bool   `json:"fromCache"`
}

type UpdateTranscriptionRequest struct {
	SessionID     string `json:"sessionId" validate:"required,uuid"`
	Transcription string `json:"transcription" validate:"required"`
}

type GenerateEntitiesRequest struct {
	SessionID     string `json:"sessionId" validate:"required,uuid"`
	Transcription string `json:"transcription" validate:"required"`
	SkipCache     bool   `json:"skipCache,omitempty"`
}

type GenerateEntitiesResponse struct {
	Summary      string          `json:"summary"`
	Prescription json.RawMessage `json:"prescription"`
	FromCache    bool            `json:"fromCache"`
}

type SaveEntitiesRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
	Entities  string `json:"entities" validate:"required"`
	Summary   string `json:"summary" validate:"required"`
}

type SaveEntitiesResponse struct {
	Entities json.RawMessage `json:"entities"`
	Summary  string          `json:"summary"`
}

type ReplacePrescriptionRequest struct {
	SessionID string             `json:"sessionId" validate:"required,uuid"`
	Items     []PrescriptionItem `json:"items" validate:"required,dive"`
}

type SavePatientRequest struct {
	SessionID   string  `json:"sessionId" validate:"required,uuid"`
	IsAnonymous bool    `json:"isAnonymous"`
	FirstName   string  `json:"firstName" validate:"required"`
	MiddleName  *string `json:"middleName,omitempty"`
	LastName    string  `json:"lastName" validate:"required"`
	DateOfBirth string  `json:"dateOfBirth" validate:"required"`
	Gender      Gender  `json:"gender" validate:"required,oneof=Male Female Other 'Prefer not to say'"`
	Phone       string  `json:"phone" validate:"required,min=10"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	VisitDate   string  `json:"visitDate" validate:"required"`
	VisitTime   string  `json:"visitTime" validate:"required"`
	DoctorName  string  `json:"doctorName" validate:"required"`
}

// PatientAction reports whether an upsert inserted or updated the record, so
// the client can word its confirmation without a separate existence check.
type PatientAction string

const (
	ActionCreated PatientAction = "created"
	ActionUpdated PatientAction = "updated"
)

type SavePatientResponse struct {
	Record *PatientRecord `json:"record"`
	Action PatientAction  `json:"action"`
}
