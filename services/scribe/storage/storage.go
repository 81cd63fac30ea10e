package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	config "github.com/medscribe/backend/config/scribe"
	"github.com/medscribe/backend/pkg/gen"
	"github.com/medscribe/backend/services/scribe/entity"
)

// Storage is the record store for the workflow. All operations are
// single-row; concurrent writers on the same row resolve last-writer-wins.
type Storage interface {
	CreateSession(ctx context.Context, sess *entity.Session) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	GetSessionByFileURL(ctx context.Context, fileURL string) (*entity.Session, error)
	UpdateTranscription(ctx context.Context, id, text string) error
	UpdateEntities(ctx context.Context, id string, entities []byte, summary string) (*entity.Session, error)

	GetPatientBySession(ctx context.Context, sessionID string) (*entity.PatientRecord, error)
	CreatePatient(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error)
	UpdatePatient(ctx context.Context, rec *entity.PatientRecord) (*entity.PatientRecord, error)
}

type storage struct {
	db    *gorm.DB
	newID gen.UUIDGenerator
}

func New(db *gorm.DB) Storage {
	return &storage{
		db:    db,
		newID: gen.UUID(),
	}
}

// Open connects to Postgres through lib/pq and hands the connection to gorm.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Name,
		cfg.Password,
		cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the two workflow tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Session{}, &entity.PatientRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
