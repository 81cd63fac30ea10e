package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Session tracks one uploaded audio file through the workflow. Transcription,
// entities and summary start null and are filled in as stages complete;
// entities and summary are always written together.
type Session struct {
	ID            string         `json:"id" gorm:"type:uuid;primaryKey"`
	Filename      string         `json:"filename" gorm:"index;not null"`
	FileURL       string         `json:"fileURL" gorm:"column:file_url;uniqueIndex;not null"`
	Type          *string        `json:"type,omitempty"`
	Transcription *string        `json:"transcription"`
	Entities      datatypes.JSON `json:"entities,omitempty" gorm:"type:jsonb"`
	Summary       *string        `json:"summary"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) HasTranscription() bool {
	return s.Transcription != nil
}

func (s *Session) HasEntities() bool {
	return len(s.Entities) > 0
}

// Stage is how far a Session has progressed. Stages are strictly ordered but
// each one stays individually re-enterable.
type Stage string

const (
	StageCreated       Stage = "created"
	StageTranscribed   Stage = "transcribed"
	StageEntitiesSaved Stage = "entities_saved"
	StagePatientSaved  Stage = "patient_saved"
)

// Stage derives the frontier stage from persisted state. The patient record
// lives in its own table, so its existence is passed in.
func (s *Session) Stage(hasPatient bool) Stage {
	switch {
	case hasPatient:
		return StagePatientSaved
	case s.HasEntities():
		return StageEntitiesSaved
	case s.HasTranscription():
		return StageTranscribed
	default:
		return StageCreated
	}
}

// Page names one screen of the client workflow.
type Page string

const (
	PageUpload            Page = "upload"
	PageTranscription     Page = "transcription"
	PageEntities          Page = "entities"
	PagePatientInfo       Page = "patient-info"
	PageFinalPrescription Page = "final-prescription"
)

// AllowedPages returns the ordered allow-list of pages reachable at a stage.
// Unlike the browser-local visited-pages set this is derived from persisted
// state, so it survives reloads and can be enforced server-side.
func AllowedPages(stage Stage) []Page {
	pages := []Page{PageUpload, PageTranscription}
	switch stage {
	case StageTranscribed:
		pages = append(pages, PageEntities)
	case StageEntitiesSaved:
		pages = append(pages, PageEntities, PagePatientInfo)
	case StagePatientSaved:
		pages = append(pages, PageEntities, PagePatientInfo, PageFinalPrescription)
	}
	return pages
}

// WorkflowState is the server-side navigation guard view of a Session.
type WorkflowState struct {
	SessionID    string `json:"sessionId"`
	Stage        Stage  `json:"stage"`
	AllowedPages []Page `json:"allowedPages"`
}
