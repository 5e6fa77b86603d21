package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ===== LOOKUP HELPERS =====

func (s *attemptService) getExam(ctx context.Context, examID uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

// getPublishedExam hides drafts from callers entirely
func (s *attemptService) getPublishedExam(ctx context.Context, examID uint) (*models.Exam, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsPublished {
		return nil, ErrExamNotFound
	}
	return exam, nil
}

func (s *attemptService) questionAt(ctx context.Context, tx *gorm.DB, examID uint, order int) (*models.Question, error) {
	question, err := s.repo.Question().GetByExamAndOrder(ctx, tx, examID, order)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question %d: %w", order, err)
	}
	return question, nil
}

// lockOwnedAttempt reads the attempt FOR UPDATE and checks the caller owns it
func (s *attemptService) lockOwnedAttempt(ctx context.Context, tx *gorm.DB, attemptID uint, userID string) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to lock attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, s.foreignAttempt(ctx, attemptID, userID)
	}
	return attempt, nil
}

// foreignAttempt logs the denied access and answers as if the attempt did not exist
func (s *attemptService) foreignAttempt(ctx context.Context, attemptID uint, userID string) error {
	s.opLog.LogPermissionDenied(ctx, "access_attempt",
		NewPermissionError(userID, attemptID, "attempt", "access", "not the attempt owner"))
	return ErrAttemptNotFound
}

func (s *attemptService) loadOwnedAttempt(ctx context.Context, attemptID uint, userID string) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, s.foreignAttempt(ctx, attemptID, userID)
	}
	return attempt, nil
}

// ===== EVALUATION =====

// finalize moves a live attempt through submitted to evaluated inside tx.
// Time-expired attempts are stamped with their deadline, not the instant the
// expiry was noticed.
func (s *attemptService) finalize(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt, exam *models.Exam, reason models.EndReason, now time.Time) (*Review, error) {
	if !models.CanTransition(attempt.Status, models.AttemptSubmitted) {
		return nil, newStateError(attempt, "submit")
	}

	submittedAt := now
	if deadline := attempt.DeadlineAt(); reason == models.EndReasonTimeExpired && deadline != nil && deadline.Before(now) {
		submittedAt = *deadline
	}
	if attempt.IsTimed {
		attempt.TimeRemainingSec = attempt.RemainingAt(submittedAt)
	}

	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &submittedAt
	attempt.EndReason = &reason

	questions, err := s.repo.Question().ListByExam(ctx, tx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	answers, err := s.repo.Answer().ListByAttempt(ctx, tx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	review, grades, err := AssembleReview(exam, questions, answers)
	if err != nil {
		return nil, fmt.Errorf("failed to score attempt %d: %w", attempt.ID, err)
	}
	for _, g := range grades {
		if err := s.repo.Answer().UpdateCorrectness(ctx, tx, g.AnswerID, g.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to grade answer %d: %w", g.AnswerID, err)
		}
	}

	correct := review.CorrectCount
	pct := review.Percentage
	passed := review.Passed
	breakdown := datatypes.NewJSONType(review.Breakdown)

	attempt.Status = models.AttemptEvaluated
	attempt.EvaluatedAt = &now
	attempt.TotalQuestions = review.TotalQuestions
	attempt.CorrectCount = &correct
	attempt.Percentage = &pct
	attempt.Passed = &passed
	attempt.Breakdown = &breakdown

	if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}

	review.AttemptID = attempt.ID
	review.AttemptNumber = attempt.AttemptNumber
	review.EndReason = attempt.EndReason
	review.SubmittedAt = attempt.SubmittedAt
	return review, nil
}

// ===== TIMING =====

// resolveTiming applies the caller's timing choice. Only practice exams accept
// untimed mode or a custom limit; graded exams run on the configured clock.
func resolveTiming(exam *models.Exam, req *StartAttemptRequest) (bool, int, error) {
	isTimed := true
	limit := exam.TimeLimitSec
	var errs ValidationErrors

	if req.IsTimed != nil {
		if !*req.IsTimed && !exam.AllowsCustomTiming() {
			errs = append(errs, *NewValidationError("is_timed", "untimed mode is only available for practice exams", *req.IsTimed))
		}
		isTimed = *req.IsTimed
	}
	if req.TimeLimitSec != nil {
		if *req.TimeLimitSec != exam.TimeLimitSec && !exam.AllowsCustomTiming() {
			errs = append(errs, *NewValidationError("time_limit_sec", "custom time limits are only available for practice exams", *req.TimeLimitSec))
		}
		limit = *req.TimeLimitSec
	}
	if len(errs) > 0 {
		return false, 0, errs
	}

	if !isTimed {
		return false, 0, nil
	}
	return true, limit, nil
}

func remainingPtr(attempt *models.ExamAttempt, now time.Time) *int {
	if !attempt.IsTimed {
		return nil
	}
	remaining := attempt.RemainingAt(now)
	return &remaining
}

// ===== RESPONSE BUILDERS =====

func toStatusResponse(attempt *models.ExamAttempt, now time.Time) *AttemptStatusResponse {
	return &AttemptStatusResponse{
		AttemptID:        attempt.ID,
		ExamID:           attempt.ExamID,
		AttemptNumber:    attempt.AttemptNumber,
		Status:           attempt.Status,
		IsTimed:          attempt.IsTimed,
		TimeLimitSec:     attempt.TimeLimitSec,
		TimeRemainingSec: remainingPtr(attempt, now),
		DeadlineAt:       attempt.DeadlineAt(),
		StartedAt:        attempt.StartedAt,
		PausedAt:         attempt.PausedAt,
		ResumedAt:        attempt.ResumedAt,
		SubmittedAt:      attempt.SubmittedAt,
		EvaluatedAt:      attempt.EvaluatedAt,
		EndReason:        attempt.EndReason,
		TotalQuestions:   attempt.TotalQuestions,
		CorrectCount:     attempt.CorrectCount,
		Percentage:       attempt.Percentage,
		Passed:           attempt.Passed,
	}
}

func toSubmitResponse(attempt *models.ExamAttempt) *SubmitAttemptResponse {
	resp := &SubmitAttemptResponse{
		AttemptID:      attempt.ID,
		Status:         attempt.Status,
		TotalQuestions: attempt.TotalQuestions,
	}
	if attempt.EndReason != nil {
		resp.EndReason = *attempt.EndReason
	}
	if attempt.CorrectCount != nil {
		resp.CorrectCount = *attempt.CorrectCount
	}
	if attempt.Percentage != nil {
		resp.Percentage = *attempt.Percentage
	}
	if attempt.Passed != nil {
		resp.Passed = *attempt.Passed
	}
	return resp
}
