package handlers

import (
	"errors"
	"net/http"

	"github.com/fasahat78/startege-sub004/internal/middleware"
	"github.com/fasahat78/startege-sub004/internal/services"
	"github.com/fasahat78/startege-sub004/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes carried in ErrorResponse.Code
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidState = "INVALID_STATE"
	CodeNotEligible  = "NOT_ELIGIBLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogError logs error details with request context
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetString("request_id"),
		"user_id", c.GetString("user_id"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(err, message, fields...)
}

// RespondWithError sends a consistent error response
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, details ...interface{}) {
	resp := ErrorResponse{
		Message: message,
		Code:    code,
	}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	c.JSON(statusCode, resp)
}

// identity returns the authenticated caller or writes a 401
func (h *BaseHandler) identity(c *gin.Context) (services.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok || identity.UserID == "" {
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthorized, "User not authenticated")
		return services.Identity{}, false
	}
	return identity, true
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", validationErrors)
		return
	}

	var eligibilityError *services.EligibilityError
	if errors.As(err, &eligibilityError) {
		h.RespondWithError(c, http.StatusConflict, CodeNotEligible, eligibilityError.Error(), gin.H{
			"reason":               eligibilityError.Reason,
			"next_eligible_at":     eligibilityError.NextEligibleAt,
			"consecutive_failures": eligibilityError.ConsecutiveFailures,
			"open_attempt_id":      eligibilityError.OpenAttemptID,
		})
		return
	}

	var stateError *services.StateError
	if errors.As(err, &stateError) {
		h.RespondWithError(c, http.StatusConflict, CodeInvalidState, stateError.Error(), gin.H{
			"attempt_id": stateError.AttemptID,
			"operation":  stateError.Operation,
			"status":     stateError.Status,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.RespondWithError(c, http.StatusForbidden, CodeForbidden, "Access denied", gin.H{
			"resource": permissionError.Resource,
			"action":   permissionError.Action,
		})
		return
	}

	switch {
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, err.Error())
	case services.IsUnauthorized(err):
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthorized, err.Error())
	case services.IsForbidden(err):
		h.RespondWithError(c, http.StatusForbidden, CodeForbidden, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, err.Error())
	case services.IsNotEligible(err):
		h.RespondWithError(c, http.StatusConflict, CodeNotEligible, err.Error())
	case services.IsInvalidState(err):
		h.RespondWithError(c, http.StatusConflict, CodeInvalidState, err.Error())
	default:
		h.LogError(c, err, "Unhandled service error")
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}
