package postgres

import (
	"context"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) CreateIfAbsent(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) (*models.AttemptAnswer, error) {
	db := a.getDB(tx)
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoNothing: true,
		}).
		Create(answer)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 1 {
		return answer, nil
	}

	// lost the race: someone else pinned a mapping first
	return a.GetByAttemptAndQuestion(ctx, tx, answer.AttemptID, answer.QuestionID)
}

func (a *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	db := a.getDB(tx)
	var answer models.AttemptAnswer
	if err := db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.AttemptAnswer
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) UpdateSelection(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.AttemptAnswer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]interface{}{
			"selected_answer": answer.SelectedAnswer,
			"is_flagged":      answer.IsFlagged,
			"time_spent_sec":  answer.TimeSpentSec,
			"answered_at":     answer.AnsweredAt,
			"updated_at":      time.Now(),
		}).Error
}

func (a *AnswerPostgreSQL) UpdateCorrectness(ctx context.Context, tx *gorm.DB, answerID uint, isCorrect bool) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.AttemptAnswer{}).
		Where("id = ?", answerID).
		Update("is_correct", isCorrect).Error
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
