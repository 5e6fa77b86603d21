package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptPaused     AttemptStatus = "paused"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptEvaluated  AttemptStatus = "evaluated"
)

// IsOpen reports whether the attempt still blocks a new start for the same exam.
func (s AttemptStatus) IsOpen() bool {
	return s == AttemptInProgress || s == AttemptPaused
}

var attemptTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptInProgress: {AttemptPaused, AttemptSubmitted},
	AttemptPaused:     {AttemptInProgress, AttemptSubmitted},
	AttemptSubmitted:  {AttemptEvaluated},
}

// CanTransition reports whether from -> to is an edge of the attempt lifecycle.
func CanTransition(from, to AttemptStatus) bool {
	for _, next := range attemptTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type EndReason string

const (
	EndReasonSubmitted   EndReason = "submitted"
	EndReasonTimeExpired EndReason = "time_expired"
)

type DimensionScore struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ScoreBreakdown holds per-dimension tallies. Map keys are tag values, e.g. a domain name.
type ScoreBreakdown struct {
	ByDomain       map[string]DimensionScore `json:"by_domain"`
	ByTopic        map[string]DimensionScore `json:"by_topic"`
	ByDifficulty   map[string]DimensionScore `json:"by_difficulty"`
	ByJurisdiction map[string]DimensionScore `json:"by_jurisdiction"`
}

type ExamAttempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	UserID        string        `json:"user_id" gorm:"not null;size:128;uniqueIndex:idx_attempt_user_exam_number,priority:1"`
	ExamID        uint          `json:"exam_id" gorm:"not null;index;uniqueIndex:idx_attempt_user_exam_number,priority:2"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_user_exam_number,priority:3"`
	Status        AttemptStatus `json:"status" gorm:"type:varchar(20);not null;index"`

	// Timing. TimeRemainingSec is the budget left at the clock anchor
	// (ResumedAt if set, else StartedAt); while paused it is frozen.
	IsTimed          bool       `json:"is_timed" gorm:"not null"`
	TimeLimitSec     int        `json:"time_limit_sec" gorm:"not null"`
	TimeRemainingSec int        `json:"time_remaining_sec" gorm:"not null"`
	StartedAt        time.Time  `json:"started_at" gorm:"not null"`
	PausedAt         *time.Time `json:"paused_at"`
	ResumedAt        *time.Time `json:"resumed_at"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	EvaluatedAt      *time.Time `json:"evaluated_at"`
	EndReason        *EndReason `json:"end_reason" gorm:"type:varchar(20)"`

	// Results, set on evaluation
	TotalQuestions int                                 `json:"total_questions" gorm:"not null"`
	CorrectCount   *int                                `json:"correct_count"`
	Percentage     *float64                            `json:"percentage"`
	Passed         *bool                               `json:"passed"`
	Breakdown      *datatypes.JSONType[ScoreBreakdown] `json:"breakdown,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Exam *Exam `json:"-" gorm:"foreignKey:ExamID"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

func (a *ExamAttempt) clockAnchor() time.Time {
	if a.ResumedAt != nil {
		return *a.ResumedAt
	}
	return a.StartedAt
}

// RemainingAt returns the seconds left on the clock at now. Untimed attempts return -1.
func (a *ExamAttempt) RemainingAt(now time.Time) int {
	if !a.IsTimed {
		return -1
	}
	if a.Status != AttemptInProgress {
		return a.TimeRemainingSec
	}
	remaining := a.TimeRemainingSec - int(now.Sub(a.clockAnchor())/time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DeadlineAt is the instant the running clock hits zero; nil when no clock is running.
func (a *ExamAttempt) DeadlineAt() *time.Time {
	if !a.IsTimed || a.Status != AttemptInProgress {
		return nil
	}
	deadline := a.clockAnchor().Add(time.Duration(a.TimeRemainingSec) * time.Second)
	return &deadline
}

func (a *ExamAttempt) ExpiredAt(now time.Time) bool {
	deadline := a.DeadlineAt()
	return deadline != nil && !now.Before(*deadline)
}

// FinishedAt is the submission instant of a terminal attempt.
func (a *ExamAttempt) FinishedAt() time.Time {
	if a.SubmittedAt != nil {
		return *a.SubmittedAt
	}
	if a.EvaluatedAt != nil {
		return *a.EvaluatedAt
	}
	return a.UpdatedAt
}
