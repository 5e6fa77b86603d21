package repositories

import (
	"context"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for exam attempt operations
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)
	// GetByIDForUpdate locks the row until tx ends; tx must be non-nil
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error

	// GetOpenAttempt returns nil, nil when the user has no in-progress or paused attempt
	GetOpenAttempt(ctx context.Context, tx *gorm.DB, userID string, examID uint) (*models.ExamAttempt, error)
	GetNextAttemptNumber(ctx context.Context, tx *gorm.DB, userID string, examID uint) (int, error)
	// ListByUserAndExam returns attempts oldest first
	ListByUserAndExam(ctx context.Context, tx *gorm.DB, userID string, examID uint) ([]*models.ExamAttempt, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.ExamAttempt, int64, error)

	// ListOverdue returns timed in-progress attempts whose clock ran out before now
	ListOverdue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]*models.ExamAttempt, error)
}

// AnswerRepository interface for per-question answer rows
type AnswerRepository interface {
	// CreateIfAbsent inserts the row unless (attempt, question) already exists and
	// returns whichever row is stored. The stored shuffle mapping always wins.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) (*models.AttemptAnswer, error)
	GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error)
	ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error)

	// UpdateSelection writes only selection, flag, and timing columns
	UpdateSelection(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) error
	UpdateCorrectness(ctx context.Context, tx *gorm.DB, answerID uint, isCorrect bool) error
}
