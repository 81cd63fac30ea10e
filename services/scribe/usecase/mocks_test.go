package usecase

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/medscribe/backend/services/scribe/clients/predict"
	"github.com/medscribe/backend/services/scribe/clients/speech"
	"github.com/medscribe/backend/services/scribe/entity"
	"github.com/medscribe/backend/services/scribe/storage"
)

var _ storage.Storage = (*MockStorage)(nil)

// MockStorage is a function-field mock of the record store.
type MockStorage struct {
	CreateSessionFunc       func(ctx context.Context, sess *entity.Session) (*entity.Session, error)
	GetSessionFunc          func(ctx context.Context, id string) (*entity.Session, error)
	GetSessionByFileURLFunc func(ctx context.Context, fileURL string) (*entity.Session, error)
	UpdateTranscriptionFunc func(ctx context.Context, id, text string) error
	UpdateEntitiesFunc      func(ctx context.Context, id string, entities []byte, summary string) (*entity.Session, error)
	GetPatientBySessionFunc func(ctx context.Context, sessionID string) (*entity.PatientRecord, error)
	CreatePatientFunc       func(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error)
	UpdatePatientFunc       func(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error)

	UpdateTranscriptionCalls int32
	UpdateEntitiesCalls      int32
	CreatePatientCalls       int32
	UpdatePatientCalls       int32
}

func (m *MockStorage) CreateSession(ctx context.Context, sess *entity.Session) (*entity.Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, sess)
	}
	return nil, errors.New("CreateSessionFunc not implemented in mock")
}

func (m *MockStorage) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, id)
	}
	return nil, errors.New("GetSessionFunc not implemented in mock")
}

func (m *MockStorage) GetSessionByFileURL(ctx context.Context, fileURL string) (*entity.Session, error) {
	if m.GetSessionByFileURLFunc != nil {
		return m.GetSessionByFileURLFunc(ctx, fileURL)
	}
	return nil, errors.New("GetSessionByFileURLFunc not implemented in mock")
}

func (m *MockStorage) UpdateTranscription(ctx context.Context, id, text string) error {
	atomic.AddInt32(&m.UpdateTranscriptionCalls, 1)
	if m.UpdateTranscriptionFunc != nil {
		return m.UpdateTranscriptionFunc(ctx, id, text)
	}
	return nil
}

func (m *MockStorage) UpdateEntities(ctx context.Context, id string, entities []byte, summary string) (*entity.Session, error) {
	atomic.AddInt32(&m.UpdateEntitiesCalls, 1)
	if m.UpdateEntitiesFunc != nil {
		return m.UpdateEntitiesFunc(ctx, id, entities, summary)
	}
	return nil, errors.New("UpdateEntitiesFunc not implemented in mock")
}

func (m *MockStorage) GetPatientBySession(ctx context.Context, sessionID string) (*entity.PatientRecord, error) {
	if m.GetPatientBySessionFunc != nil {
		return m.GetPatientBySessionFunc(ctx, sessionID)
	}
	return nil, errors.New("GetPatientBySessionFunc not implemented in mock")
}

func (m *MockStorage) CreatePatient(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error) {
	atomic.AddInt32(&m.CreatePatientCalls, 1)
	if m.CreatePatientFunc != nil {
		return m.CreatePatientFunc(ctx, rec)
	}
	return rec, nil
}

func (m *MockStorage) UpdatePatient(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error) {
	atomic.AddInt32(&m.UpdatePatientCalls, 1)
	if m.UpdatePatientFunc != nil {
		return m.UpdatePatientFunc(ctx, rec)
	}
	return rec, nil
}

var _ SpeechClient = (*MockSpeech)(nil)

type MockSpeech struct {
	TranscribeFunc  func(ctx context.Context, audioURL string) (*speech.Result, error)
	TranscribeCalls int32
}

func (m *MockSpeech) Transcribe(ctx context.Context, audioURL string) (*speech.Result, error) {
	atomic.AddInt32(&m.TranscribeCalls, 1)
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioURL)
	}
	return &speech.Result{ID: "tr_1", Text: "mock transcript"}, nil
}

var _ PredictClient = (*MockPredict)(nil)

type MockPredict struct {
	PredictFunc  func(ctx context.Context, conversation string) (*predict.Response, error)
	PredictCalls int32
}

func (m *MockPredict) Predict(ctx context.Context, conversation string) (*predict.Response, error) {
	atomic.AddInt32(&m.PredictCalls, 1)
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, conversation)
	}
	return &predict.Response{Summary: "mock summary", Prescription: []byte(`{}`)}, nil
}
