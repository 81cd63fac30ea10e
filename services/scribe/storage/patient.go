package storage

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/medscribe/backend/pkg/errors"
	"github.com/medscribe/backend/pkg/logger"
	"github.com/medscribe/backend/services/scribe/entity"
)

func (s *storage) GetPatientBySession(ctx context.Context, sessionID string) (*entity.PatientRecord, error) {
	log := logger.FromContext(ctx)

	var rec entity.PatientRecord
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("patient record", sessionID)
		}
		log.Error("failed to get patient record", "error", err, "session_id", sessionID)
		return nil, errors.Database("get patient record", err)
	}

	return &rec, nil
}

func (s *storage) CreatePatient(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error) {
	log := logger.FromContext(ctx)

	if rec.ID == "" {
		rec.ID = s.newID.Next().String()
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			// A concurrent insert won for this session; the caller's upsert
			// path treats this as update-next-time.
			return nil, errors.Duplicate("patient record", "sessionId").WithCause(err)
		}
		log.Error("failed to create patient record", "error", err, "session_id", rec.SessionID)
		return nil, errors.Database("create patient record", err)
	}
	log.Debug("created patient record", "patient_id", rec.ID, "session_id", rec.SessionID)

	return rec, nil
}

// UpdatePatient overwrites all mutable fields of the record keyed by session.
func (s *storage) UpdatePatient(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error) {
	log := logger.FromContext(ctx)

	res := s.db.WithContext(ctx).
		Model(&entity.PatientRecord{}).
		Where("session_id = ?", rec.SessionID).
		Updates(map[string]any{
			"is_anonymous":  rec.IsAnonymous,
			"first_name":    rec.FirstName,
			"middle_name":   rec.MiddleName,
			"last_name":     rec.LastName,
			"date_of_birth": rec.DateOfBirth,
			"gender":        rec.Gender,
			"phone":         rec.Phone,
			"email":         rec.Email,
			"visit_date":    rec.VisitDate,
			"visit_time":    rec.VisitTime,
			"doctor_name":   rec.DoctorName,
		})
	if res.Error != nil {
		log.Error("failed to update patient record", "error", res.Error, "session_id", rec.SessionID)
		return nil, errors.Database("update patient record", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFound("patient record", rec.SessionID)
	}
	log.Debug("updated patient record", "session_id", rec.SessionID)

	return s.GetPatientBySession(ctx, rec.SessionID)
}
