package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fasahat78/startege-sub004/internal/cache"
	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPageSize = 50

// RepositoryManager wires the postgres repositories around one *gorm.DB
type RepositoryManager struct {
	db       *gorm.DB
	exam     repositories.ExamRepository
	question repositories.QuestionRepository
	attempt  repositories.AttemptRepository
	answer   repositories.AnswerRepository
	user     repositories.UserRepository
}

func NewRepositoryManager(db *gorm.DB, c cache.CacheService, logger *zap.Logger, cacheTTL time.Duration) *RepositoryManager {
	if c == nil {
		c = cache.NewNoopCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepositoryManager{
		db:       db,
		exam:     NewExamPostgreSQL(db, c, logger, cacheTTL),
		question: NewQuestionPostgreSQL(db, c, logger, cacheTTL),
		attempt:  NewAttemptPostgreSQL(db),
		answer:   NewAnswerPostgreSQL(db),
		user:     NewUserPostgreSQL(db),
	}
}

func (m *RepositoryManager) Exam() repositories.ExamRepository         { return m.exam }
func (m *RepositoryManager) Question() repositories.QuestionRepository { return m.question }
func (m *RepositoryManager) Attempt() repositories.AttemptRepository   { return m.attempt }
func (m *RepositoryManager) Answer() repositories.AnswerRepository     { return m.answer }
func (m *RepositoryManager) User() repositories.UserRepository         { return m.user }

func (m *RepositoryManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

func (m *RepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates the schema. The partial index keeps at most one
// open attempt per (user, exam) even under concurrent starts.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Exam{},
		&models.Question{},
		&models.ExamAttempt{},
		&models.AttemptAnswer{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempt_one_open
		ON exam_attempts (user_id, exam_id)
		WHERE status IN ('in_progress', 'paused')`).Error; err != nil {
		return fmt.Errorf("failed to create open-attempt index: %w", err)
	}
	return nil
}

func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

var _ repositories.Repository = (*RepositoryManager)(nil)
