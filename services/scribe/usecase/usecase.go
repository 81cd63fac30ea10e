// Package usecase sequences the transcription-to-prescription workflow. Each
// operation is independently invocable and idempotent for a given session:
// Transcribe and GenerateEntities are cache-aware against the record store,
// edits always win over cached values, and generation results only become
// durable through an explicit save. Cached downstream data is never
// invalidated automatically when an upstream field changes; invalidation is
// the caller's explicit responsibility (skip-cache or direct overwrite).
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/medscribe/backend/pkg/errors"
	"github.com/medscribe/backend/pkg/logger"
	"github.com/medscribe/backend/services/scribe/clients/predict"
	"github.com/medscribe/backend/services/scribe/clients/speech"
	"github.com/medscribe/backend/services/scribe/entity"
	"github.com/medscribe/backend/services/scribe/render"
	"github.com/medscribe/backend/services/scribe/storage"
)

// SpeechClient is the transcription gateway.
type SpeechClient interface {
	Transcribe(ctx context.Context, audioURL string) (*speech.Result, error)
}

// PredictClient is the entity-extraction gateway.
type PredictClient interface {
	Predict(ctx context.Context, conversation string) (*predict.Response, error)
}

type Usecase interface {
	CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)
	Transcribe(ctx context.Context, req *entity.TranscribeRequest) (*entity.TranscribeResponse, error)
	UpdateTranscription(ctx context.Context, req *entity.UpdateTranscriptionRequest) error
	GenerateEntities(ctx context.Context, req *entity.GenerateEntitiesRequest) (*entity.GenerateEntitiesResponse, error)
	SaveEntities(ctx context.Context, req *entity.SaveEntitiesRequest) (*entity.SaveEntitiesResponse, error)
	ReplacePrescriptionItems(ctx context.Context, req *entity.ReplacePrescriptionRequest) (*entity.SaveEntitiesResponse, error)
	SavePatientDetails(ctx context.Context, req *entity.SavePatientRequest) (*entity.SavePatientResponse, error)
	GetPatient(ctx context.Context, sessionID string) (*entity.PatientRecord, error)
	WorkflowState(ctx context.Context, sessionID string) (*entity.WorkflowState, error)
	RenderDocument(ctx context.Context, sessionID string) ([]byte, error)
}

type usecase struct {
	storage storage.Storage
	speech  SpeechClient
	predict PredictClient
	now     func() time.Time
}

func New(storage storage.Storage, speech SpeechClient, predict PredictClient) Usecase {
	return &usecase{
		storage: storage,
		speech:  speech,
		predict: predict,
		now:     time.Now,
	}
}

// CreateSession registers an uploaded recording. A second session for the same
// file URL is rejected; the error carries the existing session's id so the
// caller can resume it instead of re-uploading.
func (u *usecase) CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error) {
	sess, err := u.storage.CreateSession(ctx, &entity.Session{
		Filename: req.Filename,
		FileURL:  req.FileURL,
		Type:     req.Type,
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeDuplicateResource {
			if existing, lookupErr := u.storage.GetSessionByFileURL(ctx, req.FileURL); lookupErr == nil {
				return nil, appErr.WithDetail("existingSessionId", existing.ID)
			}
		}
		return nil, err
	}

	return &entity.CreateSessionResponse{FileID: sess.ID}, nil
}

func (u *usecase) GetSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	return u.storage.GetSession(ctx, sessionID)
}

// Transcribe runs the transcription stage. A session whose transcription is
// already set answers from cache without touching the gateway; otherwise the
// gateway result is persisted before returning. A gateway failure persists
// nothing.
//
// Two concurrent calls on an untranscribed session may both reach the
// gateway; the store's last-writer-wins upsert makes the duplicate call
// harmless, so no lock is taken.
func (u *usecase) Transcribe(ctx context.Context, req *entity.TranscribeRequest) (*entity.TranscribeResponse, error) {
	log := logger.FromContext(ctx)

	sess, err := u.storage.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if sess.HasTranscription() {
		log.Info("transcription served from cache", "session_id", sess.ID)
		return &entity.TranscribeResponse{
			SessionID:     sess.ID,
			Transcription: *sess.Transcription,
			FromCache:     true,
		}, nil
	}

	result, err := u.speech.Transcribe(ctx, sess.FileURL)
	if err != nil {
		return nil, errors.Upstream("transcription", err)
	}

	if err := u.storage.UpdateTranscription(ctx, sess.ID, result.Text); err != nil {
		return nil, err
	}
	log.Info("transcription persisted", "session_id", sess.ID, "transcript_id", result.ID)

	return &entity.TranscribeResponse{
		SessionID:     sess.ID,
		Transcription: result.Text,
		FromCache:     false,
	}, nil
}

// UpdateTranscription unconditionally overwrites the stored transcription.
// A direct user edit always wins over any cached value.
func (u *usecase) UpdateTranscription(ctx context.Context, req *entity.UpdateTranscriptionRequest) error {
	return u.storage.UpdateTranscription(ctx, req.SessionID, req.Transcription)
}

// GenerateEntities runs the extraction stage. The cache path returns the
// persisted entities without calling the gateway, but still persists a
// differing transcription supplied by the caller: an edit made after
// entities were generated must be retained even when the cache answers.
// The gateway path returns the model output WITHOUT persisting it; only
// SaveEntities is durable, so a generation is always safe to discard.
func (u *usecase) GenerateEntities(ctx context.Context, req *entity.GenerateEntitiesRequest) (*entity.GenerateEntitiesResponse, error) {
	log := logger.FromContext(ctx)

	sess, err := u.storage.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if !req.SkipCache && sess.HasEntities() {
		if _, err := entity.ParseEntities(sess.Entities); err != nil {
			log.Error("stored entities payload is malformed", "error", err, "session_id", sess.ID)
			return nil, errors.Parse("entities payload", err)
		}

		if req.Transcription != "" && (sess.Transcription == nil || *sess.Transcription != req.Transcription) {
			if err := u.storage.UpdateTranscription(ctx, sess.ID, req.Transcription); err != nil {
				return nil, err
			}
			log.Info("reconciled edited transcription on cache hit", "session_id", sess.ID)
		}

		summary := ""
		if sess.Summary != nil {
			summary = *sess.Summary
		}
		log.Info("entities served from cache", "session_id", sess.ID)
		return &entity.GenerateEntitiesResponse{
			Summary:      summary,
			Prescription: json.RawMessage(sess.Entities),
			FromCache:    true,
		}, nil
	}

	resp, err := u.predict.Predict(ctx, req.Transcription)
	if err != nil {
		return nil, errors.Upstream("prediction", err)
	}
	log.Info("entities generated", "session_id", sess.ID, "skip_cache", req.SkipCache)

	return &entity.GenerateEntitiesResponse{
		Summary:      resp.Summary,
		Prescription: resp.Prescription,
		FromCache:    false,
	}, nil
}

// SaveEntities overwrites entities and summary atomically. This is the only
// durable step of the extraction stage; it is a full overwrite, never a
// partial patch.
func (u *usecase) SaveEntities(ctx context.Context, req *entity.SaveEntitiesRequest) (*entity.SaveEntitiesResponse, error) {
	if _, err := entity.ParseEntities([]byte(req.Entities)); err != nil {
		return nil, errors.Validation("entities must be a valid JSON object").WithCause(err)
	}

	sess, err := u.storage.UpdateEntities(ctx, req.SessionID, []byte(req.Entities), req.Summary)
	if err != nil {
		return nil, err
	}

	summary := ""
	if sess.Summary != nil {
		summary = *sess.Summary
	}
	return &entity.SaveEntitiesResponse{
		Entities: json.RawMessage(sess.Entities),
		Summary:  summary,
	}, nil
}

// ReplacePrescriptionItems swaps the medication table inside the otherwise
// opaque entities payload and writes the whole payload back through the same
// atomic save used by SaveEntities.
func (u *usecase) ReplacePrescriptionItems(ctx context.Context, req *entity.ReplacePrescriptionRequest) (*entity.SaveEntitiesResponse, error) {
	sess, err := u.storage.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	payload := entity.EntitiesPayload{}
	if sess.HasEntities() {
		payload, err = entity.ParseEntities(sess.Entities)
		if err != nil {
			return nil, errors.Parse("entities payload", err)
		}
	}

	if err := payload.ReplacePrescriptionItems(req.Items); err != nil {
		return nil, errors.Internal("failed to encode prescription items").WithCause(err)
	}

	raw, err := payload.Encode()
	if err != nil {
		return nil, errors.Internal("failed to encode entities payload").WithCause(err)
	}

	summary := ""
	if sess.Summary != nil {
		summary = *sess.Summary
	}

	updated, err := u.storage.UpdateEntities(ctx, sess.ID, raw, summary)
	if err != nil {
		return nil, err
	}

	outSummary := ""
	if updated.Summary != nil {
		outSummary = *updated.Summary
	}
	return &entity.SaveEntitiesResponse{
		Entities: json.RawMessage(updated.Entities),
		Summary:  outSummary,
	}, nil
}

// SavePatientDetails upserts the patient record keyed by session. The action
// in the response tells the caller whether a row was inserted or updated.
func (u *usecase) SavePatientDetails(ctx context.Context, req *entity.SavePatientRequest) (*entity.SavePatientResponse, error) {
	log := logger.FromContext(ctx)

	if _, err := u.storage.GetSession(ctx, req.SessionID); err != nil {
		return nil, err
	}

	rec := &entity.PatientRecord{
		SessionID:   req.SessionID,
		IsAnonymous: req.IsAnonymous,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Phone:       req.Phone,
		Email:       req.Email,
		VisitDate:   req.VisitDate,
		VisitTime:   req.VisitTime,
		DoctorName:  req.DoctorName,
	}

	_, err := u.storage.GetPatientBySession(ctx, req.SessionID)
	switch {
	case err == nil:
		updated, err := u.storage.UpdatePatient(ctx, rec)
		if err != nil {
			return nil, err
		}
		log.Info("patient record updated", "session_id", req.SessionID)
		return &entity.SavePatientResponse{Record: updated, Action: entity.ActionUpdated}, nil

	case errors.IsCode(err, errors.ErrCodeNotFound):
		created, err := u.storage.CreatePatient(ctx, rec)
		if errors.IsCode(err, errors.ErrCodeDuplicateResource) {
			// Lost an insert race; the row exists now, so update it.
			updated, err := u.storage.UpdatePatient(ctx, rec)
			if err != nil {
				return nil, err
			}
			return &entity.SavePatientResponse{Record: updated, Action: entity.ActionUpdated}, nil
		}
		if err != nil {
			return nil, err
		}
		log.Info("patient record created", "session_id", req.SessionID)
		return &entity.SavePatientResponse{Record: created, Action: entity.ActionCreated}, nil

	default:
		return nil, err
	}
}

func (u *usecase) GetPatient(ctx context.Context, sessionID string) (*entity.PatientRecord, error) {
	return u.storage.GetPatientBySession(ctx, sessionID)
}

// WorkflowState derives the navigation allow-list from persisted state.
func (u *usecase) WorkflowState(ctx context.Context, sessionID string) (*entity.WorkflowState, error) {
	sess, err := u.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	hasPatient := false
	if _, err := u.storage.GetPatientBySession(ctx, sessionID); err == nil {
		hasPatient = true
	} else if !errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	stage := sess.Stage(hasPatient)
	return &entity.WorkflowState{
		SessionID:    sess.ID,
		Stage:        stage,
		AllowedPages: entity.AllowedPages(stage),
	}, nil
}

// RenderDocument loads the saved session and patient record and renders the
// prescription PDF. It requires the save stages to have completed.
func (u *usecase) RenderDocument(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := u.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasEntities() {
		return nil, errors.Validation("entities must be saved before the document can be rendered")
	}

	patient, err := u.storage.GetPatientBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	payload, err := entity.ParseEntities(sess.Entities)
	if err != nil {
		return nil, errors.Parse("entities payload", err)
	}
	prescription, err := payload.Prescription()
	if err != nil {
		return nil, errors.Parse("entities payload", err)
	}
	items, err := prescription.Items()
	if err != nil {
		return nil, errors.Parse("prescription items", err)
	}

	summary := ""
	if sess.Summary != nil {
		summary = *sess.Summary
	}

	doc, err := render.Document(render.Input{
		Patient:      patient,
		Prescription: prescription,
		Items:        items,
		Summary:      summary,
		Now:          u.now(),
	})
	if err != nil {
		return nil, errors.Internal("failed to render document").WithCause(err)
	}

	return doc, nil
}
