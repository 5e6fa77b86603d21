package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"github.com/fasahat78/startege-sub004/internal/validator"
	"gorm.io/gorm"
)

const defaultExamPageSize = 20

type examService struct {
	repo      repositories.Repository
	events    EventService
	validator *validator.Validator
	logger    *slog.Logger
	opLog     *ServiceLogger
}

func NewExamService(repo repositories.Repository, eventService EventService, validator *validator.Validator, logger *slog.Logger) ExamService {
	return &examService{
		repo:      repo,
		events:    eventService,
		validator: validator,
		logger:    logger,
		opLog:     NewServiceLogger(logger, LogConfig{Service: "exam-attempt-service", Component: "exams"}),
	}
}

// List returns published exams only
func (s *examService) List(ctx context.Context, filters *ExamListFilters) (*ExamListResponse, error) {
	if filters == nil {
		filters = &ExamListFilters{}
	}
	if err := s.validator.Validate(filters); err != nil {
		return nil, err
	}
	if filters.Limit == 0 {
		filters.Limit = defaultExamPageSize
	}

	repoFilters := repositories.ExamFilters{
		PublishedOnly: true,
		Limit:         filters.Limit,
		Offset:        filters.Offset,
	}
	if filters.Category != "" {
		category := filters.Category
		repoFilters.Category = &category
	}

	exams, total, err := s.repo.Exam().List(ctx, nil, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	out := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		count, err := s.repo.Question().CountByExam(ctx, nil, exam.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions for exam %d: %w", exam.ID, err)
		}
		out = append(out, toExamResponse(exam, count))
	}

	return &ExamListResponse{
		Exams:  out,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

func (s *examService) Get(ctx context.Context, examID uint) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !exam.IsPublished {
		return nil, ErrExamNotFound
	}

	count, err := s.repo.Question().CountByExam(ctx, nil, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	return toExamResponse(exam, count), nil
}

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, adminID string) (resp *ExamResponse, err error) {
	op := s.opLog.WithOperation(ctx, "create_exam", adminID)
	defer func() {
		var id uint
		if resp != nil {
			id = resp.ID
		}
		op.LogResult(id, "exam", err)
	}()

	if req == nil {
		return nil, ValidationErrors{*NewValidationError("body", "is required", nil)}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		TimeLimitSec:   req.TimeLimitSec,
		PassingScore:   req.PassingScore,
		ShuffleOptions: true,
		RequiredTier:   req.RequiredTier,
		CreatedBy:      adminID,
	}
	if req.ShuffleOptions != nil {
		exam.ShuffleOptions = *req.ShuffleOptions
	}
	if exam.RequiredTier == "" {
		exam.RequiredTier = models.TierFree
	}
	if req.ConsumesCredit != nil {
		exam.ConsumesCredit = *req.ConsumesCredit
	} else {
		// certifications are paid attempts unless stated otherwise
		exam.ConsumesCredit = exam.Category == models.CategoryCertification
	}

	if err := s.validator.Validate(exam); err != nil {
		return nil, err
	}
	if err := s.repo.Exam().Create(ctx, nil, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	return toExamResponse(exam, 0), nil
}

// Publish makes an exam visible once its questions form a contiguous 1..n sequence
func (s *examService) Publish(ctx context.Context, examID uint, adminID string) (resp *ExamResponse, err error) {
	op := s.opLog.WithOperation(ctx, "publish_exam", adminID)
	defer func() { op.LogResult(examID, "exam", err) }()

	var published *models.Exam
	var count int
	changed := false

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		exam, err := s.repo.Exam().GetByID(ctx, tx, examID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to get exam: %w", err)
		}

		questions, err := s.repo.Question().ListByExam(ctx, tx, examID)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}
		if len(questions) == 0 {
			return ErrExamHasNoQuestions
		}
		if err := s.validator.Question().ValidatePositions(questions); err != nil {
			return ValidationErrors{*NewValidationError("questions", err.Error(), len(questions))}
		}

		if exam.IsPublished {
			published, count = exam, len(questions)
			return nil
		}
		exam.IsPublished = true
		if err := s.repo.Exam().Update(ctx, tx, exam); err != nil {
			return fmt.Errorf("failed to publish exam: %w", err)
		}
		published, count, changed = exam, len(questions), true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.repo.Exam().InvalidateCache(ctx, examID)
		s.events.ExamPublished(ctx, published, count, adminID)
	}
	return toExamResponse(published, count), nil
}

func toExamResponse(exam *models.Exam, questionCount int) *ExamResponse {
	return &ExamResponse{
		ID:             exam.ID,
		Title:          exam.Title,
		Description:    exam.Description,
		Category:       exam.Category,
		TimeLimitSec:   exam.TimeLimitSec,
		PassingScore:   exam.PassingScore,
		ShuffleOptions: exam.ShuffleOptions,
		RequiredTier:   exam.RequiredTier,
		ConsumesCredit: exam.ConsumesCredit,
		IsPublished:    exam.IsPublished,
		QuestionCount:  questionCount,
		CreatedAt:      exam.CreatedAt,
		UpdatedAt:      exam.UpdatedAt,
	}
}
