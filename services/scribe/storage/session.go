package storage

import (
	"context"
	stderrors "errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/medscribe/backend/pkg/errors"
	"github.com/medscribe/backend/pkg/logger"
	"github.com/medscribe/backend/services/scribe/entity"
)

// Postgres unique_violation, surfaced when two sessions share a file URL.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *storage) CreateSession(ctx context.Context, sess *entity.Session) (*entity.Session, error) {
	log := logger.FromContext(ctx)

	if sess.ID == "" {
		sess.ID = s.newID.Next().String()
	}

	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate file URL on session create", "file_url", sess.FileURL)
			return nil, errors.Duplicate("session", "fileURL").WithCause(err)
		}
		log.Error("failed to create session", "error", err)
		return nil, errors.Database("create session", err)
	}
	log.Debug("created session", "session_id", sess.ID)

	return sess, nil
}

func (s *storage) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	log := logger.FromContext(ctx)

	var sess entity.Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("session", id)
		}
		log.Error("failed to get session", "error", err, "session_id", id)
		return nil, errors.Database("get session", err)
	}

	return &sess, nil
}

func (s *storage) GetSessionByFileURL(ctx context.Context, fileURL string) (*entity.Session, error) {
	log := logger.FromContext(ctx)

	var sess entity.Session
	err := s.db.WithContext(ctx).Where("file_url = ?", fileURL).First(&sess).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("session", "")
		}
		log.Error("failed to get session by file URL", "error", err)
		return nil, errors.Database("get session by file URL", err)
	}

	return &sess, nil
}

func (s *storage) UpdateTranscription(ctx context.Context, id, text string) error {
	log := logger.FromContext(ctx)

	res := s.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("id = ?", id).
		Update("transcription", text)
	if res.Error != nil {
		log.Error("failed to update transcription", "error", res.Error, "session_id", id)
		return errors.Database("update transcription", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("session", id)
	}
	log.Debug("updated transcription", "session_id", id)

	return nil
}

// UpdateEntities writes entities and summary in one statement so the pair is
// never observed half-set.
func (s *storage) UpdateEntities(ctx context.Context, id string, entities []byte, summary string) (*entity.Session, error) {
	log := logger.FromContext(ctx)

	res := s.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"entities": entities,
			"summary":  summary,
		})
	if res.Error != nil {
		log.Error("failed to update entities", "error", res.Error, "session_id", id)
		return nil, errors.Database("update entities", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFound("session", id)
	}
	log.Debug("updated entities", "session_id", id)

	return s.GetSession(ctx, id)
}
