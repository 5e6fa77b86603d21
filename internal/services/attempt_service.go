package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fasahat78/startege-sub004/internal/cooldown"
	"github.com/fasahat78/startege-sub004/internal/metrics"
	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"github.com/fasahat78/startege-sub004/internal/shuffle"
	"github.com/fasahat78/startege-sub004/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const expirySweepBatch = 100

type attemptService struct {
	repo      repositories.Repository
	policy    *cooldown.Policy
	shuffler  *shuffle.Shuffler
	events    EventService
	metrics   *metrics.Metrics
	validator *validator.Validator
	logger    *slog.Logger
	opLog     *ServiceLogger
	now       func() time.Time
}

type AttemptServiceOption func(*attemptService)

// WithClock replaces time.Now, e.g. to move a test past a cooldown
func WithClock(now func() time.Time) AttemptServiceOption {
	return func(s *attemptService) {
		s.now = now
	}
}

func WithShuffler(shuffler *shuffle.Shuffler) AttemptServiceOption {
	return func(s *attemptService) {
		s.shuffler = shuffler
	}
}

func NewAttemptService(
	repo repositories.Repository,
	policy *cooldown.Policy,
	eventService EventService,
	m *metrics.Metrics,
	validator *validator.Validator,
	logger *slog.Logger,
	opts ...AttemptServiceOption,
) AttemptService {
	s := &attemptService{
		repo:      repo,
		policy:    policy,
		shuffler:  shuffle.New(),
		events:    eventService,
		metrics:   m,
		validator: validator,
		logger:    logger,
		opLog:     NewServiceLogger(logger, LogConfig{Service: "exam-attempt-service", Component: "attempts"}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, examID uint, req *StartAttemptRequest, caller Identity) (resp *StartAttemptResponse, err error) {
	op := s.opLog.WithOperation(ctx, "start_attempt", caller.UserID)
	defer func() { op.LogResult(examID, "exam", err) }()

	if req == nil {
		req = &StartAttemptRequest{}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.getPublishedExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	isTimed, timeLimit, err := resolveTiming(exam, req)
	if err != nil {
		return nil, err
	}

	totalQuestions, err := s.repo.Question().CountByExam(ctx, nil, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if totalQuestions == 0 {
		return nil, ErrExamHasNoQuestions
	}

	now := s.now().UTC()

	// a forgotten timed attempt closes itself before it can block a new one
	stale, err := s.repo.Attempt().GetOpenAttempt(ctx, nil, caller.UserID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open attempts: %w", err)
	}
	if stale != nil && stale.ExpiredAt(now) {
		if _, err := s.expire(ctx, stale.ID, now); err != nil {
			return nil, err
		}
	}

	var attempt *models.ExamAttempt
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		user, err := s.lockUser(ctx, tx, caller)
		if err != nil {
			return err
		}

		if !user.SubscriptionTier.Covers(exam.RequiredTier) {
			s.metrics.StartRejected(ReasonNotEntitled)
			return ErrNotEntitled
		}

		open, err := s.repo.Attempt().GetOpenAttempt(ctx, tx, caller.UserID, examID)
		if err != nil {
			return fmt.Errorf("failed to check open attempts: %w", err)
		}
		if open != nil {
			s.metrics.StartRejected(ReasonOpenAttempt)
			openID := open.ID
			return &EligibilityError{Reason: ReasonOpenAttempt, OpenAttemptID: &openID}
		}

		history, err := s.repo.Attempt().ListByUserAndExam(ctx, tx, caller.UserID, examID)
		if err != nil {
			return fmt.Errorf("failed to load attempt history: %w", err)
		}
		decision := s.policy.Evaluate(exam.Category, cooldown.OutcomesFromAttempts(history), now)
		if !decision.Eligible {
			s.metrics.StartRejected(ReasonCooldown)
			return &EligibilityError{
				Reason:              ReasonCooldown,
				NextEligibleAt:      decision.NextEligibleAt,
				ConsecutiveFailures: decision.ConsecutiveFailures,
			}
		}

		if exam.ConsumesCredit {
			ok, err := s.repo.User().DecrementCredits(ctx, tx, caller.UserID)
			if err != nil {
				return fmt.Errorf("failed to consume exam credit: %w", err)
			}
			if !ok {
				s.metrics.StartRejected(ReasonInsufficientCredits)
				return ErrInsufficientCredits
			}
		}

		number, err := s.repo.Attempt().GetNextAttemptNumber(ctx, tx, caller.UserID, examID)
		if err != nil {
			return fmt.Errorf("failed to allocate attempt number: %w", err)
		}

		attempt = &models.ExamAttempt{
			UserID:           caller.UserID,
			ExamID:           examID,
			AttemptNumber:    number,
			Status:           models.AttemptInProgress,
			IsTimed:          isTimed,
			TimeLimitSec:     timeLimit,
			TimeRemainingSec: timeLimit,
			StartedAt:        now,
			TotalQuestions:   totalQuestions,
		}
		if err := s.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			if repositories.IsUniqueViolation(err) {
				// lost a race with a concurrent start for the same exam
				return &EligibilityError{Reason: ReasonOpenAttempt}
			}
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AttemptStarted(string(exam.Category))
	s.events.AttemptStarted(ctx, attempt, exam)
	s.logger.Info("Exam attempt started",
		"attempt_id", attempt.ID,
		"exam_id", examID,
		"user_id", caller.UserID,
		"attempt_number", attempt.AttemptNumber,
		"is_timed", attempt.IsTimed)

	return &StartAttemptResponse{
		AttemptID:      attempt.ID,
		AttemptNumber:  attempt.AttemptNumber,
		TotalQuestions: attempt.TotalQuestions,
		TimeLimitSec:   attempt.TimeLimitSec,
		IsTimed:        attempt.IsTimed,
		StartedAt:      attempt.StartedAt,
	}, nil
}

func (s *attemptService) GetQuestion(ctx context.Context, attemptID uint, order int, userID string) (*QuestionResponse, error) {
	if order < 1 {
		return nil, ValidationErrors{*NewValidationError("order", "must be at least 1", order)}
	}

	now := s.now().UTC()
	var resp *QuestionResponse

	err := s.mutateOpenAttempt(ctx, attemptID, userID, "view question", now, func(tx *gorm.DB, attempt *models.ExamAttempt, exam *models.Exam) error {
		question, err := s.questionAt(ctx, tx, attempt.ExamID, order)
		if err != nil {
			return err
		}

		answer, err := s.repo.Answer().GetByAttemptAndQuestion(ctx, tx, attempt.ID, question.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to load answer: %w", err)
		}
		if answer == nil {
			// first view: pin a mapping; a concurrent first view may win the insert
			answer, err = s.pinMapping(ctx, tx, attempt, exam, question)
			if err != nil {
				return err
			}
		}

		mapping, err := answer.Mapping()
		if err != nil {
			return err
		}
		presented, err := shuffle.Reconstruct(question.CanonicalOptions(), mapping)
		if err != nil {
			return fmt.Errorf("failed to rebuild options for question %d: %w", question.ID, err)
		}

		resp = &QuestionResponse{
			AttemptID:        attempt.ID,
			QuestionID:       question.ID,
			Order:            question.Order,
			TotalQuestions:   attempt.TotalQuestions,
			Prompt:           question.Prompt,
			Options:          presented,
			Domain:           question.Domain,
			Difficulty:       question.Difficulty,
			SelectedAnswer:   answer.SelectedAnswer,
			IsFlagged:        answer.IsFlagged,
			TimeSpentSec:     answer.TimeSpentSec,
			TimeRemainingSec: remainingPtr(attempt, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, userID string) (resp *SubmitAnswerResponse, err error) {
	op := s.opLog.WithOperation(ctx, "submit_answer", userID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if req == nil {
		return nil, ValidationErrors{*NewValidationError("body", "is required", nil)}
	}
	req.Normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	err = s.mutateOpenAttempt(ctx, attemptID, userID, "answer", now, func(tx *gorm.DB, attempt *models.ExamAttempt, _ *models.Exam) error {
		question, err := s.repo.Question().GetByID(ctx, tx, req.QuestionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to load question: %w", err)
		}
		if question.ExamID != attempt.ExamID {
			return ErrQuestionNotFound
		}

		answer, err := s.repo.Answer().GetByAttemptAndQuestion(ctx, tx, attempt.ID, question.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotPresented
			}
			return fmt.Errorf("failed to load answer: %w", err)
		}
		if _, err := answer.Mapping(); err != nil {
			return err
		}

		if req.SelectedAnswer != nil {
			key := models.OptionKey(*req.SelectedAnswer)
			answer.SelectedAnswer = &key
			answer.AnsweredAt = &now
		} else {
			answer.SelectedAnswer = nil
			answer.AnsweredAt = nil
		}
		if req.IsFlagged != nil {
			answer.IsFlagged = *req.IsFlagged
		}
		if req.TimeSpentSec != nil {
			answer.TimeSpentSec = *req.TimeSpentSec
		}

		if err := s.repo.Answer().UpdateSelection(ctx, tx, answer); err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}

		resp = &SubmitAnswerResponse{
			Success: true,
			Answer: AnswerResponse{
				QuestionID:     answer.QuestionID,
				SelectedAnswer: answer.SelectedAnswer,
				IsFlagged:      answer.IsFlagged,
				TimeSpentSec:   answer.TimeSpentSec,
				AnsweredAt:     answer.AnsweredAt,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *attemptService) Pause(ctx context.Context, attemptID uint, req *PauseAttemptRequest, userID string) (resp *PauseAttemptResponse, err error) {
	op := s.opLog.WithOperation(ctx, "pause_attempt", userID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if req == nil {
		req = &PauseAttemptRequest{}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var paused *models.ExamAttempt

	err = s.mutateOpenAttempt(ctx, attemptID, userID, "pause", now, func(tx *gorm.DB, attempt *models.ExamAttempt, _ *models.Exam) error {
		if attempt.IsTimed {
			// the client cannot buy time: keep whichever clock has less left
			remaining := attempt.RemainingAt(now)
			if req.TimeRemainingSec != nil && *req.TimeRemainingSec < remaining {
				remaining = *req.TimeRemainingSec
			}
			attempt.TimeRemainingSec = remaining
		}
		attempt.Status = models.AttemptPaused
		attempt.PausedAt = &now

		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to pause attempt: %w", err)
		}
		paused = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.AttemptPaused(ctx, paused)
	return &PauseAttemptResponse{
		Success:          true,
		PausedAt:         now,
		TimeRemainingSec: remainingPtr(paused, now),
	}, nil
}

func (s *attemptService) Resume(ctx context.Context, attemptID uint, userID string) (resp *AttemptStatusResponse, err error) {
	op := s.opLog.WithOperation(ctx, "resume_attempt", userID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	now := s.now().UTC()
	var resumed *models.ExamAttempt

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.lockOwnedAttempt(ctx, tx, attemptID, userID)
		if err != nil {
			return err
		}
		if !models.CanTransition(attempt.Status, models.AttemptInProgress) {
			return newStateError(attempt, "resume")
		}

		// the clock restarts from the remaining time stored at pause
		attempt.Status = models.AttemptInProgress
		attempt.ResumedAt = &now
		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to resume attempt: %w", err)
		}
		resumed = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.AttemptResumed(ctx, resumed)
	return toStatusResponse(resumed, now), nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uint, userID string) (resp *SubmitAttemptResponse, err error) {
	op := s.opLog.WithOperation(ctx, "submit_attempt", userID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	now := s.now().UTC()
	var evaluated *models.ExamAttempt
	var exam *models.Exam

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.lockOwnedAttempt(ctx, tx, attemptID, userID)
		if err != nil {
			return err
		}
		if !models.CanTransition(attempt.Status, models.AttemptSubmitted) {
			return newStateError(attempt, "submit")
		}

		exam, err = s.getExam(ctx, attempt.ExamID)
		if err != nil {
			return err
		}

		reason := models.EndReasonSubmitted
		if attempt.ExpiredAt(now) {
			reason = models.EndReasonTimeExpired
		}
		if _, err := s.finalize(ctx, tx, attempt, exam, reason, now); err != nil {
			return err
		}
		evaluated = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterEvaluated(ctx, evaluated, exam)
	return toSubmitResponse(evaluated), nil
}

// ===== READ OPERATIONS =====

func (s *attemptService) GetStatus(ctx context.Context, attemptID uint, userID string) (*AttemptStatusResponse, error) {
	attempt, err := s.loadOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if attempt.ExpiredAt(now) {
		if attempt, err = s.expire(ctx, attempt.ID, now); err != nil {
			return nil, err
		}
	}
	return toStatusResponse(attempt, now), nil
}

func (s *attemptService) GetReview(ctx context.Context, attemptID uint, userID string) (*Review, error) {
	attempt, err := s.loadOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	if now := s.now().UTC(); attempt.ExpiredAt(now) {
		if attempt, err = s.expire(ctx, attempt.ID, now); err != nil {
			return nil, err
		}
	}
	if attempt.Status != models.AttemptEvaluated {
		return nil, ErrReviewNotReady
	}

	exam, err := s.getExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.Question().ListByExam(ctx, nil, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	answers, err := s.repo.Answer().ListByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	review, _, err := AssembleReview(exam, questions, answers)
	if err != nil {
		return nil, err
	}
	review.AttemptID = attempt.ID
	review.AttemptNumber = attempt.AttemptNumber
	review.EndReason = attempt.EndReason
	review.SubmittedAt = attempt.SubmittedAt
	return review, nil
}

func (s *attemptService) GetEligibility(ctx context.Context, examID uint, userID string) (*EligibilityResponse, error) {
	exam, err := s.getPublishedExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	resp := &EligibilityResponse{ExamID: examID, Eligible: true}

	open, err := s.repo.Attempt().GetOpenAttempt(ctx, nil, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open attempts: %w", err)
	}
	if open != nil && !open.ExpiredAt(now) {
		openID := open.ID
		resp.Eligible = false
		resp.Reason = ReasonOpenAttempt
		resp.OpenAttemptID = &openID
		return resp, nil
	}

	history, err := s.repo.Attempt().ListByUserAndExam(ctx, nil, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}
	decision := s.policy.Evaluate(exam.Category, cooldown.OutcomesFromAttempts(history), now)
	resp.ConsecutiveFailures = decision.ConsecutiveFailures
	if !decision.Eligible {
		resp.Eligible = false
		resp.Reason = ReasonCooldown
		resp.NextEligibleAt = decision.NextEligibleAt
		return resp, nil
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	tier, credits := models.TierFree, 0
	if user != nil {
		tier, credits = user.SubscriptionTier, user.ExamCredits
	}
	switch {
	case !tier.Covers(exam.RequiredTier):
		resp.Eligible = false
		resp.Reason = ReasonNotEntitled
	case exam.ConsumesCredit && credits <= 0:
		resp.Eligible = false
		resp.Reason = ReasonInsufficientCredits
	}
	return resp, nil
}

func (s *attemptService) ListAttempts(ctx context.Context, examID uint, userID string) ([]*AttemptStatusResponse, error) {
	if _, err := s.getExam(ctx, examID); err != nil {
		return nil, err
	}

	attempts, err := s.repo.Attempt().ListByUserAndExam(ctx, nil, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	now := s.now().UTC()
	out := make([]*AttemptStatusResponse, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, toStatusResponse(attempt, now))
	}
	return out, nil
}

// ===== BACKGROUND =====

func (s *attemptService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	overdue, err := s.repo.Attempt().ListOverdue(ctx, nil, now, expirySweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue attempts: %w", err)
	}

	closed := 0
	for _, attempt := range overdue {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.expire(ctx, attempt.ID, now); err != nil {
			s.logger.Error("Failed to expire attempt", "attempt_id", attempt.ID, "error", err)
			continue
		}
		closed++
	}

	s.metrics.AttemptsExpired(closed)
	if closed > 0 {
		s.logger.Info("Expired overdue attempts", "count", closed)
	}
	return closed, nil
}

// expire finalizes one attempt as time_expired if, under lock, it is still overdue.
// It returns the attempt as stored afterwards.
func (s *attemptService) expire(ctx context.Context, attemptID uint, now time.Time) (*models.ExamAttempt, error) {
	var result *models.ExamAttempt
	var exam *models.Exam
	finalized := false

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to lock attempt: %w", err)
		}
		result = attempt
		if !attempt.ExpiredAt(now) {
			return nil
		}

		exam, err = s.getExam(ctx, attempt.ExamID)
		if err != nil {
			return err
		}
		if _, err := s.finalize(ctx, tx, attempt, exam, models.EndReasonTimeExpired, now); err != nil {
			return err
		}
		finalized = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finalized {
		s.afterEvaluated(ctx, result, exam)
	}
	return result, nil
}

// mutateOpenAttempt runs fn under a row lock on an in-progress attempt the caller owns.
// An attempt whose clock already ran out is finalized and ErrAttemptTimeExpired returned.
func (s *attemptService) mutateOpenAttempt(
	ctx context.Context,
	attemptID uint,
	userID string,
	operation string,
	now time.Time,
	fn func(tx *gorm.DB, attempt *models.ExamAttempt, exam *models.Exam) error,
) error {
	var expired *models.ExamAttempt
	var exam *models.Exam

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.lockOwnedAttempt(ctx, tx, attemptID, userID)
		if err != nil {
			return err
		}
		if attempt.Status != models.AttemptInProgress {
			return newStateError(attempt, operation)
		}

		exam, err = s.getExam(ctx, attempt.ExamID)
		if err != nil {
			return err
		}

		if attempt.ExpiredAt(now) {
			if _, err := s.finalize(ctx, tx, attempt, exam, models.EndReasonTimeExpired, now); err != nil {
				return err
			}
			// commit the finalization; the caller still sees the expiry
			expired = attempt
			return nil
		}
		return fn(tx, attempt, exam)
	})
	if err != nil {
		return err
	}
	if expired != nil {
		s.afterEvaluated(ctx, expired, exam)
		return ErrAttemptTimeExpired
	}
	return nil
}

// pinMapping shuffles (or not) and stores the mapping exactly once per (attempt, question)
func (s *attemptService) pinMapping(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt, exam *models.Exam, question *models.Question) (*models.AttemptAnswer, error) {
	var result *shuffle.Result
	var err error
	if exam.ShuffleOptions {
		result, err = s.shuffler.Shuffle(question.CanonicalOptions(), question.CorrectKey)
	} else {
		result, err = shuffle.Identity(question.CanonicalOptions(), question.CorrectKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to shuffle question %d: %w", question.ID, err)
	}

	stored, err := s.repo.Answer().CreateIfAbsent(ctx, tx, &models.AttemptAnswer{
		AttemptID:      attempt.ID,
		QuestionID:     question.ID,
		ShuffleMapping: datatypes.NewJSONType(result.Mapping),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store shuffle mapping: %w", err)
	}
	return stored, nil
}

func (s *attemptService) lockUser(ctx context.Context, tx *gorm.DB, caller Identity) (*models.User, error) {
	role := caller.Role
	if !role.IsValid() {
		role = models.RoleStudent
	}
	if _, err := s.repo.User().EnsureExists(ctx, tx, &models.User{
		ID:               caller.UserID,
		Email:            caller.Email,
		FullName:         caller.Name,
		Role:             role,
		SubscriptionTier: models.TierFree,
	}); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	user, err := s.repo.User().GetByIDForUpdate(ctx, tx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return user, nil
}

func (s *attemptService) afterEvaluated(ctx context.Context, attempt *models.ExamAttempt, exam *models.Exam) {
	passed := attempt.Passed != nil && *attempt.Passed
	reason := ""
	if attempt.EndReason != nil {
		reason = string(*attempt.EndReason)
	}
	s.metrics.AttemptEvaluated(string(exam.Category), passed, reason)
	s.events.AttemptEvaluated(ctx, attempt, exam)
	s.logger.Info("Exam attempt evaluated",
		"attempt_id", attempt.ID,
		"exam_id", attempt.ExamID,
		"user_id", attempt.UserID,
		"end_reason", reason,
		"passed", passed)
}
