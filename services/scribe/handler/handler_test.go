package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medscribe/backend/pkg/errors"
	"github.com/medscribe/backend/pkg/logger"
	"github.com/medscribe/backend/services/scribe/entity"
	"github.com/medscribe/backend/services/scribe/usecase"
)

const testSessionID = "5f6c2e1a-0c1d-4a8e-9f3b-2d4e6a8c0b1d"

var _ usecase.Usecase = (*MockUsecase)(nil)

type MockUsecase struct {
	CreateSessionFunc       func(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error)
	GetSessionFunc          func(ctx context.Context, sessionID string) (*entity.Session, error)
	TranscribeFunc          func(ctx context.Context, req *entity.TranscribeRequest) (*entity.TranscribeResponse, error)
	UpdateTranscriptionFunc func(ctx context.Context, req *entity.UpdateTranscriptionRequest) error
	GenerateEntitiesFunc    func(ctx context.Context, req *entity.GenerateEntitiesRequest) (*entity.GenerateEntitiesResponse, error)
	SaveEntitiesFunc        func(ctx context.Context, req *entity.SaveEntitiesRequest) (*entity.SaveEntitiesResponse, error)
	ReplaceItemsFunc        func(ctx context.Context, req *entity.ReplacePrescriptionRequest) (*entity.SaveEntitiesResponse, error)
	SavePatientFunc         func(ctx context.Context, req *entity.SavePatientRequest) (*entity.SavePatientResponse, error)
	GetPatientFunc          func(ctx context.Context, sessionID string) (*entity.PatientRecord, error)
	WorkflowStateFunc       func(ctx context.Context, sessionID string) (*entity.WorkflowState, error)
	RenderDocumentFunc      func(ctx context.Context, sessionID string) ([]byte, error)
}

func (m *MockUsecase) CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return nil, stderrors.New("CreateSessionFunc not implemented in mock")
}

func (m *MockUsecase) GetSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return nil, stderrors.New("GetSessionFunc not implemented in mock")
}

func (m *MockUsecase) Transcribe(ctx context.Context, req *entity.TranscribeRequest) (*entity.TranscribeResponse, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, req)
	}
	return nil, stderrors.New("TranscribeFunc not implemented in mock")
}

func (m *MockUsecase) UpdateTranscription(ctx context.Context, req *entity.UpdateTranscriptionRequest) error {
	if m.UpdateTranscriptionFunc != nil {
		return m.UpdateTranscriptionFunc(ctx, req)
	}
	return stderrors.New("UpdateTranscriptionFunc not implemented in mock")
}

func (m *MockUsecase) GenerateEntities(ctx context.Context, req *entity.GenerateEntitiesRequest) (*entity.GenerateEntitiesResponse, error) {
	if m.GenerateEntitiesFunc != nil {
		return m.GenerateEntitiesFunc(ctx, req)
	}
	return nil, stderrors.New("GenerateEntitiesFunc not implemented in mock")
}

func (m *MockUsecase) SaveEntities(ctx context.Context, req *entity.SaveEntitiesRequest) (*entity.SaveEntitiesResponse, error) {
	if m.SaveEntitiesFunc != nil {
		return m.SaveEntitiesFunc(ctx, req)
	}
	return nil, stderrors.New("SaveEntitiesFunc not implemented in mock")
}

func (m *MockUsecase) ReplacePrescriptionItems(ctx context.Context, req *entity.ReplacePrescriptionRequest) (*entity.SaveEntitiesResponse, error) {
	if m.ReplaceItemsFunc != nil {
		return m.ReplaceItemsFunc(ctx, req)
	}
	return nil, stderrors.New("ReplaceItemsFunc not implemented in mock")
}

func (m *MockUsecase) SavePatientDetails(ctx context.Context, req *entity.SavePatientRequest) (*entity.SavePatientResponse, error) {
	if m.SavePatientFunc != nil {
		return m.SavePatientFunc(ctx, req)
	}
	return nil, stderrors.New("SavePatientFunc not implemented in mock")
}

func (m *MockUsecase) GetPatient(ctx context.Context, sessionID string) (*entity.PatientRecord, error) {
	if m.GetPatientFunc != nil {
		return m.GetPatientFunc(ctx, sessionID)
	}
	return nil, stderrors.New("GetPatientFunc not implemented in mock")
}

func (m *MockUsecase) WorkflowState(ctx context.Context, sessionID string) (*entity.WorkflowState, error) {
	if m.WorkflowStateFunc != nil {
		return m.WorkflowStateFunc(ctx, sessionID)
	}
	return nil, stderrors.New("WorkflowStateFunc not implemented in mock")
}

func (m *MockUsecase) RenderDocument(ctx context.Context, sessionID string) ([]byte, error) {
	if m.RenderDocumentFunc != nil {
		return m.RenderDocumentFunc(ctx, sessionID)
	}
	return nil, stderrors.New("RenderDocumentFunc not implemented in mock")
}

func newTestRouter(usc usecase.Usecase) chi.Router {
	router := chi.NewRouter()
	h := New(usc, logger.Default())
	router.Route("/api/v1", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestCreateSession_Created(t *testing.T) {
	mock := &MockUsecase{
		CreateSessionFunc: func(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error) {
			assert.Equal(t, "a.mp3", req.Filename)
			return &entity.CreateSessionResponse{FileID: testSessionID}, nil
		},
	}
	router := newTestRouter(mock)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", map[string]string{
		"filename": "a.mp3",
		"fileURL":  "https://x/a.mp3",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp entity.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testSessionID, resp.FileID)
}

func TestCreateSession_MissingFields(t *testing.T) {
	router := newTestRouter(&MockUsecase{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", map[string]string{
		"filename": "a.mp3",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeValidation, decodeErrorCode(t, rec))
}

func TestCreateSession_DuplicateMapsToConflict(t *testing.T) {
	mock := &MockUsecase{
		CreateSessionFunc: func(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error) {
			return nil, errors.Duplicate("session", "fileURL")
		},
	}
	router := newTestRouter(mock)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", map[string]string{
		"filename": "a.mp3",
		"fileURL":  "https://x/a.mp3",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.ErrCodeDuplicateResource, decodeErrorCode(t, rec))
}

func TestTranscribe_NotFoundMapsTo404(t *testing.T) {
	mock := &MockUsecase{
		TranscribeFunc: func(ctx context.Context, req *entity.TranscribeRequest) (*entity.TranscribeResponse, error) {
			return nil, errors.NotFound("session", req.SessionID)
		},
	}
	router := newTestRouter(mock)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+testSessionID+"/transcription", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeNotFound, decodeErrorCode(t, rec))
}

func TestTranscribe_UpstreamMapsTo502WithRetryable(t *testing.T) {
	mock := &MockUsecase{
		TranscribeFunc: func(ctx context.Context, req *entity.TranscribeRequest) (*entity.TranscribeResponse, error) {
			return nil, errors.Upstream("transcription", stderrors.New("audio unreachable"))
		},
	}
	router := newTestRouter(mock)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+testSessionID+"/transcription", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrCodeUpstream, resp.Error.Code)
	assert.True(t, resp.Error.Retryable)
}

func TestGenerateEntities_PassesSkipCache(t *testing.T) {
	mock := &MockUsecase{
		GenerateEntitiesFunc: func(ctx context.Context, req *entity.GenerateEntitiesRequest) (*entity.GenerateEntitiesResponse, error) {
			assert.True(t, req.SkipCache)
			assert.Equal(t, testSessionID, req.SessionID)
			return &entity.GenerateEntitiesResponse{
				Summary:      "summary",
				Prescription: json.RawMessage(`{}`),
				FromCache:    false,
			}, nil
		},
	}
	router := newTestRouter(mock)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+testSessionID+"/entities/generate", map[string]any{
		"transcription": "patient has fever",
		"skipCache":     true,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSavePatient_ActionDrivesStatus(t *testing.T) {
	action := entity.ActionCreated
	mock := &MockUsecase{
		SavePatientFunc: func(ctx context.Context, req *entity.SavePatientRequest) (*entity.SavePatientResponse, error) {
			return &entity.SavePatientResponse{
				Record: &entity.PatientRecord{ID: "p1", SessionID: req.SessionID},
				Action: action,
			}, nil
		},
	}
	router := newTestRouter(mock)

	body := map[string]any{
		"isAnonymous": false,
		"firstName":   "Jane",
		"lastName":    "Doe",
		"dateOfBirth": "1990-04-12",
		"gender":      "Female",
		"phone":       "5551234567",
		"visitDate":   "2025-06-15",
		"visitTime":   "10:30",
		"doctorName":  "Dr. Quinzel",
	}

	rec := doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+testSessionID+"/patient", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	action = entity.ActionUpdated
	rec = doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+testSessionID+"/patient", body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSavePatient_InvalidGender(t *testing.T) {
	router := newTestRouter(&MockUsecase{})

	rec := doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+testSessionID+"/patient", map[string]any{
		"firstName":   "Jane",
		"lastName":    "Doe",
		"dateOfBirth": "1990-04-12",
		"gender":      "Unknown",
		"phone":       "5551234567",
		"visitDate":   "2025-06-15",
		"visitTime":   "10:30",
		"doctorName":  "Dr. Quinzel",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeValidation, decodeErrorCode(t, rec))
}

func TestDocument_ServesPDF(t *testing.T) {
	mock := &MockUsecase{
		RenderDocumentFunc: func(ctx context.Context, sessionID string) ([]byte, error) {
			return []byte("%PDF-1.3 fake"), nil
		},
	}
	router := newTestRouter(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+testSessionID+"/document", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestWorkflowState_Returned(t *testing.T) {
	mock := &MockUsecase{
		WorkflowStateFunc: func(ctx context.Context, sessionID string) (*entity.WorkflowState, error) {
			return &entity.WorkflowState{
				SessionID:    sessionID,
				Stage:        entity.StageTranscribed,
				AllowedPages: entity.AllowedPages(entity.StageTranscribed),
			}, nil
		},
	}
	router := newTestRouter(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+testSessionID+"/workflow", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var state entity.WorkflowState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, entity.StageTranscribed, state.Stage)
	assert.Contains(t, state.AllowedPages, entity.PageEntities)
}

func TestBadJSONBody(t *testing.T) {
	router := newTestRouter(&MockUsecase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString(`{broken`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeValidation, decodeErrorCode(t, rec))
}
