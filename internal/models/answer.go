package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AttemptAnswer is the single persisted shape of a caller's interaction with one
// question inside one attempt. The row is created on first view, which pins the
// shuffle mapping; later writes only touch the selection columns.
type AttemptAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question,priority:1"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question,priority:2"`

	ShuffleMapping datatypes.JSONType[ShuffleMapping] `json:"-" gorm:"type:jsonb;not null"`

	// SelectedAnswer is a presented key, never a canonical one
	SelectedAnswer *OptionKey `json:"selected_answer" gorm:"type:char(1)"`
	IsFlagged      bool       `json:"is_flagged" gorm:"not null"`
	TimeSpentSec   int        `json:"time_spent_sec" gorm:"not null"`
	AnsweredAt     *time.Time `json:"answered_at"`
	IsCorrect      *bool      `json:"is_correct,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// Mapping returns the pinned mapping after checking it is a bijection over A..D.
func (a *AttemptAnswer) Mapping() (ShuffleMapping, error) {
	m := a.ShuffleMapping.Data()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("answer %d: %w", a.ID, err)
	}
	return m, nil
}
