package services

import (
	"strings"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
)

// Identity is the authenticated caller as established by the auth middleware
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   models.UserRole
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// ===== ATTEMPT DTOs =====

type StartAttemptRequest struct {
	IsTimed      *bool `json:"is_timed"`
	TimeLimitSec *int  `json:"time_limit_sec" validate:"omitempty,min=60,max=86400"`
}

type StartAttemptResponse struct {
	AttemptID      uint      `json:"attempt_id"`
	AttemptNumber  int       `json:"attempt_number"`
	TotalQuestions int       `json:"total_questions"`
	TimeLimitSec   int       `json:"time_limit_sec"`
	IsTimed        bool      `json:"is_timed"`
	StartedAt      time.Time `json:"started_at"`
}

// QuestionResponse is a question as presented inside one attempt. It never
// carries the correct key or the mapping.
type QuestionResponse struct {
	AttemptID        uint                    `json:"attempt_id"`
	QuestionID       uint                    `json:"question_id"`
	Order            int                     `json:"order"`
	TotalQuestions   int                     `json:"total_questions"`
	Prompt           string                  `json:"prompt"`
	Options          []models.QuestionOption `json:"options"`
	Domain           string                  `json:"domain,omitempty"`
	Difficulty       models.DifficultyLevel  `json:"difficulty,omitempty"`
	SelectedAnswer   *models.OptionKey       `json:"selected_answer"`
	IsFlagged        bool                    `json:"is_flagged"`
	TimeSpentSec     int                     `json:"time_spent_sec"`
	TimeRemainingSec *int                    `json:"time_remaining_sec"`
}

type SubmitAnswerRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
	// SelectedAnswer is a presented key; null clears the selection
	SelectedAnswer *string `json:"selected_answer" validate:"omitempty,answer_key"`
	TimeSpentSec   *int    `json:"time_spent_sec" validate:"omitempty,min=0,max=86400"`
	IsFlagged      *bool   `json:"is_flagged"`
}

// Normalize upper-cases the selected key so "b" and "B" are the same answer
func (r *SubmitAnswerRequest) Normalize() {
	if r.SelectedAnswer == nil {
		return
	}
	key := strings.ToUpper(strings.TrimSpace(*r.SelectedAnswer))
	r.SelectedAnswer = &key
}

type AnswerResponse struct {
	QuestionID     uint              `json:"question_id"`
	SelectedAnswer *models.OptionKey `json:"selected_answer"`
	IsFlagged      bool              `json:"is_flagged"`
	TimeSpentSec   int               `json:"time_spent_sec"`
	AnsweredAt     *time.Time        `json:"answered_at"`
}

type SubmitAnswerResponse struct {
	Success bool           `json:"success"`
	Answer  AnswerResponse `json:"answer"`
}

type PauseAttemptRequest struct {
	// TimeRemainingSec is the client's view of the clock; the server keeps the smaller value
	TimeRemainingSec *int `json:"time_remaining_sec" validate:"omitempty,min=0"`
}

type PauseAttemptResponse struct {
	Success          bool      `json:"success"`
	PausedAt         time.Time `json:"paused_at"`
	TimeRemainingSec *int      `json:"time_remaining_sec"`
}

type AttemptStatusResponse struct {
	AttemptID        uint                 `json:"attempt_id"`
	ExamID           uint                 `json:"exam_id"`
	AttemptNumber    int                  `json:"attempt_number"`
	Status           models.AttemptStatus `json:"status"`
	IsTimed          bool                 `json:"is_timed"`
	TimeLimitSec     int                  `json:"time_limit_sec"`
	TimeRemainingSec *int                 `json:"time_remaining_sec"`
	DeadlineAt       *time.Time           `json:"deadline_at,omitempty"`
	StartedAt        time.Time            `json:"started_at"`
	PausedAt         *time.Time           `json:"paused_at,omitempty"`
	ResumedAt        *time.Time           `json:"resumed_at,omitempty"`
	SubmittedAt      *time.Time           `json:"submitted_at,omitempty"`
	EvaluatedAt      *time.Time           `json:"evaluated_at,omitempty"`
	EndReason        *models.EndReason    `json:"end_reason,omitempty"`
	TotalQuestions   int                  `json:"total_questions"`
	CorrectCount     *int                 `json:"correct_count,omitempty"`
	Percentage       *float64             `json:"percentage,omitempty"`
	Passed           *bool                `json:"passed,omitempty"`
}

type SubmitAttemptResponse struct {
	AttemptID      uint                 `json:"attempt_id"`
	Status         models.AttemptStatus `json:"status"`
	EndReason      models.EndReason     `json:"end_reason"`
	CorrectCount   int                  `json:"correct_count"`
	TotalQuestions int                  `json:"total_questions"`
	Percentage     float64              `json:"percentage"`
	Passed         bool                 `json:"passed"`
}

// Eligibility reasons beyond the ones carried by EligibilityError
const (
	ReasonNotEntitled         = "not_entitled"
	ReasonInsufficientCredits = "insufficient_credits"
)

type EligibilityResponse struct {
	ExamID              uint       `json:"exam_id"`
	Eligible            bool       `json:"eligible"`
	Reason              string     `json:"reason,omitempty"`
	NextEligibleAt      *time.Time `json:"next_eligible_at"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	OpenAttemptID       *uint      `json:"open_attempt_id,omitempty"`
}

// ===== EXAM DTOs =====

type ExamListFilters struct {
	Category models.ExamCategory `form:"category" validate:"omitempty,exam_category"`
	Limit    int                 `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int                 `form:"offset" validate:"omitempty,min=0"`
}

type ExamResponse struct {
	ID             uint                    `json:"id"`
	Title          string                  `json:"title"`
	Description    *string                 `json:"description,omitempty"`
	Category       models.ExamCategory     `json:"category"`
	TimeLimitSec   int                     `json:"time_limit_sec"`
	PassingScore   int                     `json:"passing_score"`
	ShuffleOptions bool                    `json:"shuffle_options"`
	RequiredTier   models.SubscriptionTier `json:"required_tier"`
	ConsumesCredit bool                    `json:"consumes_credit"`
	IsPublished    bool                    `json:"is_published"`
	QuestionCount  int                     `json:"question_count"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

type ExamListResponse struct {
	Exams  []*ExamResponse `json:"exams"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type CreateExamRequest struct {
	Title          string                  `json:"title" validate:"required,min=1,max=200"`
	Description    *string                 `json:"description" validate:"omitempty,max=2000"`
	Category       models.ExamCategory     `json:"category" validate:"required,exam_category"`
	TimeLimitSec   int                     `json:"time_limit_sec" validate:"required,min=60,max=86400"`
	PassingScore   int                     `json:"passing_score" validate:"min=0,max=100"`
	ShuffleOptions *bool                   `json:"shuffle_options"`
	RequiredTier   models.SubscriptionTier `json:"required_tier" validate:"omitempty,subscription_tier"`
	ConsumesCredit *bool                   `json:"consumes_credit"`
}
