package services

import (
	"context"
	"io"

	"github.com/fasahat78/startege-sub004/internal/models"
)

// AttemptService drives one user's exam attempts through their lifecycle.
// Every attempt-scoped call checks that userID owns the attempt.
type AttemptService interface {
	Start(ctx context.Context, examID uint, req *StartAttemptRequest, caller Identity) (*StartAttemptResponse, error)
	GetQuestion(ctx context.Context, attemptID uint, order int, userID string) (*QuestionResponse, error)
	SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, userID string) (*SubmitAnswerResponse, error)
	Pause(ctx context.Context, attemptID uint, req *PauseAttemptRequest, userID string) (*PauseAttemptResponse, error)
	Resume(ctx context.Context, attemptID uint, userID string) (*AttemptStatusResponse, error)
	Submit(ctx context.Context, attemptID uint, userID string) (*SubmitAttemptResponse, error)

	GetStatus(ctx context.Context, attemptID uint, userID string) (*AttemptStatusResponse, error)
	GetReview(ctx context.Context, attemptID uint, userID string) (*Review, error)
	GetEligibility(ctx context.Context, examID uint, userID string) (*EligibilityResponse, error)
	ListAttempts(ctx context.Context, examID uint, userID string) ([]*AttemptStatusResponse, error)

	// ExpireOverdue finalizes timed attempts whose clock ran out and returns how many it closed
	ExpireOverdue(ctx context.Context) (int, error)
}

// ExamService exposes the exam catalog and admin curation
type ExamService interface {
	List(ctx context.Context, filters *ExamListFilters) (*ExamListResponse, error)
	Get(ctx context.Context, examID uint) (*ExamResponse, error)
	Create(ctx context.Context, req *CreateExamRequest, adminID string) (*ExamResponse, error)
	Publish(ctx context.Context, examID uint, adminID string) (*ExamResponse, error)
}

// ImportExportService moves question content in and results out as spreadsheets
type ImportExportService interface {
	ImportQuestions(ctx context.Context, examID uint, file io.Reader, filename string, adminID string) (*models.ImportSummary, error)
	ExportQuestionTemplate(ctx context.Context) ([]byte, error)
	ExportResults(ctx context.Context, examID uint) ([]byte, string, error)
}

// EventService publishes domain events; failures are logged, never returned
type EventService interface {
	AttemptStarted(ctx context.Context, attempt *models.ExamAttempt, exam *models.Exam)
	AttemptPaused(ctx context.Context, attempt *models.ExamAttempt)
	AttemptResumed(ctx context.Context, attempt *models.ExamAttempt)
	AttemptEvaluated(ctx context.Context, attempt *models.ExamAttempt, exam *models.Exam)
	ExamPublished(ctx context.Context, exam *models.Exam, questionCount int, publishedBy string)
	QuestionsImported(ctx context.Context, summary *models.ImportSummary, importedBy string)
}
