package repositories

import (
	"context"

	"github.com/fasahat78/startege-sub004/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for exam questions
type QuestionRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByExamAndOrder(ctx context.Context, tx *gorm.DB, examID uint, order int) (*models.Question, error)
	// ListByExam returns questions ordered by position
	ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error)
	CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int, error)
	// InvalidateCache drops the cached question list; call it after the writing tx commits
	InvalidateCache(ctx context.Context, examID uint)
}
