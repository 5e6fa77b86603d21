package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fasahat78/startege-sub004/internal/events"
	"github.com/fasahat78/startege-sub004/internal/models"
)

const publishTimeout = 5 * time.Second

type eventService struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewEventService(publisher events.EventPublisher, logger *slog.Logger) EventService {
	return &eventService{
		publisher: publisher,
		logger:    logger,
	}
}

func attemptPartitionKey(attempt *models.ExamAttempt) string {
	return fmt.Sprintf("%s:%d", attempt.UserID, attempt.ExamID)
}

func examPartitionKey(examID uint) string {
	return fmt.Sprintf("exam:%d", examID)
}

// ===== ATTEMPT EVENTS =====

func (s *eventService) AttemptStarted(ctx context.Context, attempt *models.ExamAttempt, exam *models.Exam) {
	s.publish(ctx, events.NewEvent(events.EventAttemptStarted, attemptPartitionKey(attempt), events.AttemptStartedEvent{
		AttemptID:     attempt.ID,
		ExamID:        attempt.ExamID,
		ExamTitle:     exam.Title,
		Category:      string(exam.Category),
		UserID:        attempt.UserID,
		AttemptNumber: attempt.AttemptNumber,
		StartedAt:     attempt.StartedAt,
		IsTimed:       attempt.IsTimed,
		TimeLimitSec:  attempt.TimeLimitSec,
	}))
}

func (s *eventService) AttemptPaused(ctx context.Context, attempt *models.ExamAttempt) {
	var pausedAt time.Time
	if attempt.PausedAt != nil {
		pausedAt = *attempt.PausedAt
	}
	s.publish(ctx, events.NewEvent(events.EventAttemptPaused, attemptPartitionKey(attempt), events.AttemptPausedEvent{
		AttemptID:        attempt.ID,
		ExamID:           attempt.ExamID,
		UserID:           attempt.UserID,
		PausedAt:         pausedAt,
		TimeRemainingSec: attempt.TimeRemainingSec,
	}))
}

func (s *eventService) AttemptResumed(ctx context.Context, attempt *models.ExamAttempt) {
	var resumedAt time.Time
	if attempt.ResumedAt != nil {
		resumedAt = *attempt.ResumedAt
	}
	s.publish(ctx, events.NewEvent(events.EventAttemptResumed, attemptPartitionKey(attempt), events.AttemptResumedEvent{
		AttemptID: attempt.ID,
		ExamID:    attempt.ExamID,
		UserID:    attempt.UserID,
		ResumedAt: resumedAt,
	}))
}

func (s *eventService) AttemptEvaluated(ctx context.Context, attempt *models.ExamAttempt, exam *models.Exam) {
	payload := events.AttemptEvaluatedEvent{
		AttemptID:      attempt.ID,
		ExamID:         attempt.ExamID,
		ExamTitle:      exam.Title,
		Category:       string(exam.Category),
		UserID:         attempt.UserID,
		AttemptNumber:  attempt.AttemptNumber,
		TotalQuestions: attempt.TotalQuestions,
	}
	if attempt.EndReason != nil {
		payload.EndReason = string(*attempt.EndReason)
	}
	if attempt.EvaluatedAt != nil {
		payload.EvaluatedAt = *attempt.EvaluatedAt
	}
	if attempt.CorrectCount != nil {
		payload.CorrectCount = *attempt.CorrectCount
	}
	if attempt.Percentage != nil {
		payload.Percentage = *attempt.Percentage
	}
	if attempt.Passed != nil {
		payload.Passed = *attempt.Passed
	}
	s.publish(ctx, events.NewEvent(events.EventAttemptEvaluated, attemptPartitionKey(attempt), payload))
}

// ===== CONTENT EVENTS =====

func (s *eventService) ExamPublished(ctx context.Context, exam *models.Exam, questionCount int, publishedBy string) {
	s.publish(ctx, events.NewEvent(events.EventExamPublished, examPartitionKey(exam.ID), events.ExamPublishedEvent{
		ExamID:        exam.ID,
		ExamTitle:     exam.Title,
		Category:      string(exam.Category),
		QuestionCount: questionCount,
		PublishedBy:   publishedBy,
	}))
}

func (s *eventService) QuestionsImported(ctx context.Context, summary *models.ImportSummary, importedBy string) {
	s.publish(ctx, events.NewEvent(events.EventQuestionsImported, examPartitionKey(summary.ExamID), events.QuestionsImportedEvent{
		ExamID:       summary.ExamID,
		FileType:     summary.FileType,
		SuccessCount: summary.SuccessCount,
		ErrorCount:   summary.ErrorCount,
		ImportedBy:   importedBy,
	}))
}

// publish detaches from the request context so a client disconnect does not
// drop an event for a change that already committed
func (s *eventService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"partition_key", event.PartitionKey,
			"error", err)
		return
	}
	s.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type)
}
