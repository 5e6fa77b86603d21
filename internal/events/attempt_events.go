package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "exam-attempt-service"
	eventVersion = "1.0"
)

// EventType names a domain event on the attempts topic
type EventType string

const (
	// Attempt lifecycle events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptPaused    EventType = "attempt.paused"
	EventAttemptResumed   EventType = "attempt.resumed"
	EventAttemptEvaluated EventType = "attempt.evaluated"

	// Content events
	EventExamPublished     EventType = "exam.published"
	EventQuestionsImported EventType = "exam.questions_imported"
)

// Event is the envelope for everything published by this service
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`

	// PartitionKey keeps events of one aggregate in order on the topic
	PartitionKey string `json:"-"`
}

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	ExamID        uint      `json:"exam_id"`
	ExamTitle     string    `json:"exam_title"`
	Category      string    `json:"category"`
	UserID        string    `json:"user_id"`
	AttemptNumber int       `json:"attempt_number"`
	StartedAt     time.Time `json:"started_at"`
	IsTimed       bool      `json:"is_timed"`
	TimeLimitSec  int       `json:"time_limit_sec"`
}

type AttemptPausedEvent struct {
	AttemptID        uint      `json:"attempt_id"`
	ExamID           uint      `json:"exam_id"`
	UserID           string    `json:"user_id"`
	PausedAt         time.Time `json:"paused_at"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
}

type AttemptResumedEvent struct {
	AttemptID uint      `json:"attempt_id"`
	ExamID    uint      `json:"exam_id"`
	UserID    string    `json:"user_id"`
	ResumedAt time.Time `json:"resumed_at"`
}

type AttemptEvaluatedEvent struct {
	AttemptID      uint      `json:"attempt_id"`
	ExamID         uint      `json:"exam_id"`
	ExamTitle      string    `json:"exam_title"`
	Category       string    `json:"category"`
	UserID         string    `json:"user_id"`
	AttemptNumber  int       `json:"attempt_number"`
	EndReason      string    `json:"end_reason"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	Passed         bool      `json:"passed"`
}

// Content event payloads

type ExamPublishedEvent struct {
	ExamID        uint   `json:"exam_id"`
	ExamTitle     string `json:"exam_title"`
	Category      string `json:"category"`
	QuestionCount int    `json:"question_count"`
	PublishedBy   string `json:"published_by"`
}

type QuestionsImportedEvent struct {
	ExamID       uint   `json:"exam_id"`
	FileType     string `json:"file_type"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
	ImportedBy   string `json:"imported_by"`
}

// NewEvent wraps a payload in an envelope with a fresh ID
func NewEvent(eventType EventType, partitionKey string, data interface{}) *Event {
	return &Event{
		ID:           GenerateEventID(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		Source:       eventSource,
		Version:      eventVersion,
		Data:         data,
		PartitionKey: partitionKey,
	}
}

// GenerateEventID returns a random UUID
func GenerateEventID() string {
	return uuid.NewString()
}
