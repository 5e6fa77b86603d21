package services

import (
	"errors"
	"fmt"
	"time"

	apperrors "github.com/fasahat78/startege-sub004/internal/errors"
	"github.com/fasahat78/startege-sub004/internal/models"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")

	// Exam specific errors
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotPublished   = errors.New("exam is not published")
	ErrExamHasNoQuestions = errors.New("exam has no questions")
	ErrExamPublished      = errors.New("exam is published and its questions are read-only")

	// Question specific errors
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionNotPresented = errors.New("question has not been presented in this attempt")

	// Attempt specific errors
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrInvalidState       = errors.New("operation not allowed in current attempt state")
	ErrAttemptTimeExpired = errors.New("attempt time has expired")
	ErrReviewNotReady     = errors.New("review is available after evaluation")

	// Entitlement errors
	ErrNotEntitled         = errors.New("subscription tier does not include this exam")
	ErrInsufficientCredits = errors.New("no exam credits left")
	ErrNotEligible         = errors.New("not eligible to start a new attempt")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// StateError reports an operation attempted from the wrong lifecycle state
type StateError struct {
	AttemptID uint                 `json:"attempt_id"`
	Operation string               `json:"operation"`
	Status    models.AttemptStatus `json:"status"`
}

func (se *StateError) Error() string {
	return fmt.Sprintf("cannot %s attempt %d in status %s", se.Operation, se.AttemptID, se.Status)
}

func (se *StateError) Unwrap() error {
	return ErrInvalidState
}

// EligibilityError is returned by Start when a cooldown or an open attempt blocks a new one
type EligibilityError struct {
	Reason              string     `json:"reason"`
	NextEligibleAt      *time.Time `json:"next_eligible_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures,omitempty"`
	OpenAttemptID       *uint      `json:"open_attempt_id,omitempty"`
}

func (ee *EligibilityError) Error() string {
	if ee.NextEligibleAt != nil {
		return fmt.Sprintf("not eligible: %s until %s", ee.Reason, ee.NextEligibleAt.UTC().Format(time.RFC3339))
	}
	return "not eligible: " + ee.Reason
}

func (ee *EligibilityError) Unwrap() error {
	return ErrNotEligible
}

// Eligibility reasons
const (
	ReasonCooldown    = "cooldown_active"
	ReasonOpenAttempt = "attempt_in_progress"
)

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func newStateError(attempt *models.ExamAttempt, operation string) *StateError {
	return &StateError{
		AttemptID: attempt.ID,
		Operation: operation,
		Status:    attempt.Status,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

// IsForbidden checks if error means the caller is known but not allowed
func IsForbidden(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotEntitled) ||
		errors.Is(err, ErrInsufficientCredits) ||
		errors.As(err, &pe)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsInvalidState covers lifecycle violations, including expired clocks
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrAttemptTimeExpired) ||
		errors.Is(err, ErrQuestionNotPresented) ||
		errors.Is(err, ErrReviewNotReady) ||
		errors.Is(err, ErrExamNotPublished) ||
		errors.Is(err, ErrExamPublished) ||
		errors.Is(err, ErrExamHasNoQuestions)
}

func IsNotEligible(err error) bool {
	return errors.Is(err, ErrNotEligible)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}
