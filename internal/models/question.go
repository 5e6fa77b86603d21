package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// OptionKey labels one of the four answer options. Canonical keys are assigned at
// authoring time; presented keys are the labels a caller sees after shuffling.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// OptionKeys lists every key in presentation order.
var OptionKeys = []OptionKey{OptionA, OptionB, OptionC, OptionD}

var ErrInvalidOptionKey = errors.New("option key must be one of A, B, C, D")

func (k OptionKey) IsValid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// ParseOptionKey accepts a key in either case.
func ParseOptionKey(s string) (OptionKey, error) {
	k := OptionKey(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: got %q", ErrInvalidOptionKey, s)
	}
	return k, nil
}

type QuestionOption struct {
	Key  OptionKey `json:"key"`
	Text string    `json:"text"`
}

// QuestionOptions is always exactly four options keyed A..D once each.
type QuestionOptions []QuestionOption

func (o QuestionOptions) Validate() error {
	if len(o) != len(OptionKeys) {
		return fmt.Errorf("expected %d options, got %d", len(OptionKeys), len(o))
	}
	seen := make(map[OptionKey]bool, len(o))
	for _, opt := range o {
		if !opt.Key.IsValid() {
			return fmt.Errorf("%w: got %q", ErrInvalidOptionKey, opt.Key)
		}
		if seen[opt.Key] {
			return fmt.Errorf("duplicate option key %s", opt.Key)
		}
		if strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("option %s has empty text", opt.Key)
		}
		seen[opt.Key] = true
	}
	return nil
}

// Text returns the text stored under a canonical key.
func (o QuestionOptions) Text(key OptionKey) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

func (d DifficultyLevel) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type Question struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	ExamID uint `json:"exam_id" gorm:"not null;uniqueIndex:idx_question_exam_position,priority:1"`
	// 1-based position inside the exam
	Order int `json:"order" gorm:"column:position;not null;uniqueIndex:idx_question_exam_position,priority:2"`

	Prompt      string                              `json:"prompt" gorm:"type:text;not null"`
	Options     datatypes.JSONType[QuestionOptions] `json:"options" gorm:"type:jsonb;not null"`
	CorrectKey  OptionKey                           `json:"correct_key" gorm:"type:char(1);not null"`
	Explanation *string                             `json:"explanation" gorm:"type:text"`

	Domain       string          `json:"domain" gorm:"size:100;index"`
	Topic        string          `json:"topic" gorm:"size:100"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"type:varchar(10)"`
	Jurisdiction string          `json:"jurisdiction" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// CanonicalOptions unwraps the stored option list.
func (q *Question) CanonicalOptions() QuestionOptions {
	return q.Options.Data()
}

// Validate checks the authoring invariants: four options A..D and a correct key among them.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.New("prompt is required")
	}
	if q.Order < 1 {
		return fmt.Errorf("order must be >= 1, got %d", q.Order)
	}
	if err := q.CanonicalOptions().Validate(); err != nil {
		return err
	}
	if !q.CorrectKey.IsValid() {
		return fmt.Errorf("correct key: %w", ErrInvalidOptionKey)
	}
	if q.Difficulty != "" && !q.Difficulty.IsValid() {
		return fmt.Errorf("invalid difficulty %q", q.Difficulty)
	}
	return nil
}
