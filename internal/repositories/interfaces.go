package repositories

import (
	"context"
	"errors"

	"github.com/fasahat78/startege-sub004/internal/models"
	"gorm.io/gorm"
)

// Repository groups the per-aggregate repositories. Every method takes an optional
// tx; nil means the base connection.
type Repository interface {
	Exam() ExamRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	User() UserRepository

	// WithTransaction runs fn in one database transaction, rolling back on error
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
}

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	Category      *models.ExamCategory `json:"category"`
	PublishedOnly bool                 `json:"published_only"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
}

type AttemptFilters struct {
	ExamID   *uint                  `json:"exam_id"`
	UserID   *string                `json:"user_id"`
	Statuses []models.AttemptStatus `json:"statuses"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// ===== ERROR HELPERS =====

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation matches a Postgres unique_violation (SQLSTATE 23505) surfaced
// through gorm's error translation.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
