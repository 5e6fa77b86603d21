package repositories

import (
	"context"

	"github.com/fasahat78/startege-sub004/internal/models"
	"gorm.io/gorm"
)

// ExamRepository interface for exam definitions. Exams are reference data and
// reads may be served from cache.
type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	// Update leaves the cache alone; callers invalidate once their tx has committed
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	InvalidateCache(ctx context.Context, id uint)
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
}
