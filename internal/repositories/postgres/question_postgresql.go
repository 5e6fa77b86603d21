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

type QuestionPostgreSQL struct {
	db     *gorm.DB
	cache  cache.CacheService
	logger *zap.Logger
	ttl    time.Duration
}

func NewQuestionPostgreSQL(db *gorm.DB, c cache.CacheService, logger *zap.Logger, ttl time.Duration) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:     db,
		cache:  c,
		logger: logger,
		ttl:    ttl,
	}
}

func examQuestionsCacheKey(examID uint) string {
	return fmt.Sprintf("exam:%d:questions", examID)
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	return db.WithContext(ctx).CreateInBatches(questions, 100).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByExamAndOrder(ctx context.Context, tx *gorm.DB, examID uint, order int) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Where("exam_id = ? AND position = ?", examID, order).
		First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error) {
	if tx != nil {
		return q.list(ctx, tx, examID)
	}
	return cache.CacheOrExecute(ctx, q.cache, q.logger, examQuestionsCacheKey(examID), q.ttl, func() ([]*models.Question, error) {
		return q.list(ctx, q.db, examID)
	})
}

func (q *QuestionPostgreSQL) list(ctx context.Context, db *gorm.DB, examID uint) ([]*models.Question, error) {
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("position ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int, error) {
	db := q.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (q *QuestionPostgreSQL) InvalidateCache(ctx context.Context, examID uint) {
	if err := q.cache.Delete(ctx, examQuestionsCacheKey(examID)); err != nil {
		q.logger.Warn("failed to invalidate question cache", zap.Uint("exam_id", examID), zap.Error(err))
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
