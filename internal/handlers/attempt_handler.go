package handlers

import (
	"net/http"

	"github.com/fasahat78/startege-sub004/internal/services"
	"github.com/fasahat78/startege-sub004/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt opens a new attempt for the caller
// @Summary Start exam attempt
// @Description Checks entitlement and cooldown, then snapshots the exam into a new attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param attempt body services.StartAttemptRequest false "Timing options (practice exams only)"
// @Success 201 {object} services.StartAttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id}/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req services.StartAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.attemptService.Start(c.Request.Context(), examID, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetQuestion returns one question as presented in the attempt
// @Summary Fetch attempt question
// @Description Returns the question at a 1-based position with options in this attempt's order
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param order path int true "Question position"
// @Success 200 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/questions/{order} [get]
func (h *AttemptHandler) GetQuestion(c *gin.Context) {
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	order, ok := h.parseIntParam(c, "order")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	question, err := h.attemptService.GetQuestion(c.Request.Context(), attemptID, order, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// SubmitAnswer saves or changes the answer to one question
// @Summary Submit answer
// @Description Records a presented option key, a flag or time spent; a null key clears the selection
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SubmitAnswerRequest true "Answer"
// @Success 200 {object} services.SubmitAnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Invalid request payload", err.Error())
		return
	}

	resp, err := h.attemptService.SubmitAnswer(c.Request.Context(), attemptID, &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PauseAttempt stops the clock of a timed attempt
// @Summary Pause attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param pause body services.PauseAttemptRequest false "Client view of the remaining time"
// @Success 200 {object} services.PauseAttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/pause [post]
func (h *AttemptHandler) PauseAttempt(c *gin.Context) {
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req services.PauseAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.attemptService.Pause(c.Request.Context(), attemptID, &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResumeAttempt restarts the clock of a paused attempt
// @Summary Resume attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptStatusResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/resume [post]
func (h *AttemptHandler) ResumeAttempt(c *gin.Context) {
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	status, err := h.attemptService.Resume(c.Request.Context(), attemptID, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// SubmitAttempt finishes the attempt and scores it
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.SubmitAttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAttempt returns status and timing of an attempt
// @Summary Get attempt status
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	status, err := h.attemptService.GetStatus(c.Request.Context(), attemptID, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetReview returns the evaluated attempt with correct keys and explanations
// @Summary Get attempt review
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.Review
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/review [get]
func (h *AttemptHandler) GetReview(c *gin.Context) {
	attemptID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	review, err := h.attemptService.GetReview(c.Request.Context(), attemptID, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// GetEligibility reports whether the caller may start the exam now
// @Summary Check start eligibility
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.EligibilityResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/eligibility [get]
func (h *AttemptHandler) GetEligibility(c *gin.Context) {
	examID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	eligibility, err := h.attemptService.GetEligibility(c.Request.Context(), examID, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}

// ListAttempts returns the caller's attempts at one exam, newest first
// @Summary List my attempts
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {array} services.AttemptStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	examID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListAttempts(c.Request.Context(), examID, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}
