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

type ExamPostgreSQL struct {
	db     *gorm.DB
	cache  cache.CacheService
	logger *zap.Logger
	ttl    time.Duration
}

func NewExamPostgreSQL(db *gorm.DB, c cache.CacheService, logger *zap.Logger, ttl time.Duration) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:     db,
		cache:  c,
		logger: logger,
		ttl:    ttl,
	}
}

func examCacheKey(id uint) string {
	return fmt.Sprintf("exam:%d", id)
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	return db.WithContext(ctx).Omit("Questions").Create(exam).Error
}

// GetByID serves from cache outside transactions; inside one it always reads the row
func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if tx != nil {
		return e.load(ctx, tx, id)
	}
	return cache.CacheOrExecute(ctx, e.cache, e.logger, examCacheKey(id), e.ttl, func() (*models.Exam, error) {
		return e.load(ctx, e.db, id)
	})
}

func (e *ExamPostgreSQL) load(ctx context.Context, db *gorm.DB, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	return db.WithContext(ctx).Omit("Questions").Save(exam).Error
}

func (e *ExamPostgreSQL) InvalidateCache(ctx context.Context, id uint) {
	if err := e.cache.Delete(ctx, examCacheKey(id)); err != nil {
		e.logger.Warn("failed to invalidate exam cache", zap.Uint("exam_id", id), zap.Error(err))
	}
}

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	var exams []*models.Exam
	var total int64

	query := db.WithContext(ctx).Model(&models.Exam{})
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query.Order("id ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}
