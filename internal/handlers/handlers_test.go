package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fasahat78/startege-sub004/internal/metrics"
	"github.com/fasahat78/startege-sub004/internal/middleware"
	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/services"
	"github.com/fasahat78/startege-sub004/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===== MOCK SERVICES =====

type MockAttemptService struct {
	mock.Mock
}

func (m *MockAttemptService) Start(ctx context.Context, examID uint, req *services.StartAttemptRequest, caller services.Identity) (*services.StartAttemptResponse, error) {
	args := m.Called(ctx, examID, req, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StartAttemptResponse), args.Error(1)
}

func (m *MockAttemptService) GetQuestion(ctx context.Context, attemptID uint, order int, userID string) (*services.QuestionResponse, error) {
	args := m.Called(ctx, attemptID, order, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.QuestionResponse), args.Error(1)
}

func (m *MockAttemptService) SubmitAnswer(ctx context.Context, attemptID uint, req *services.SubmitAnswerRequest, userID string) (*services.SubmitAnswerResponse, error) {
	args := m.Called(ctx, attemptID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmitAnswerResponse), args.Error(1)
}

func (m *MockAttemptService) Pause(ctx context.Context, attemptID uint, req *services.PauseAttemptRequest, userID string) (*services.PauseAttemptResponse, error) {
	args := m.Called(ctx, attemptID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PauseAttemptResponse), args.Error(1)
}

func (m *MockAttemptService) Resume(ctx context.Context, attemptID uint, userID string) (*services.AttemptStatusResponse, error) {
	args := m.Called(ctx, attemptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AttemptStatusResponse), args.Error(1)
}

func (m *MockAttemptService) Submit(ctx context.Context, attemptID uint, userID string) (*services.SubmitAttemptResponse, error) {
	args := m.Called(ctx, attemptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmitAttemptResponse), args.Error(1)
}

func (m *MockAttemptService) GetStatus(ctx context.Context, attemptID uint, userID string) (*services.AttemptStatusResponse, error) {
	args := m.Called(ctx, attemptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AttemptStatusResponse), args.Error(1)
}

func (m *MockAttemptService) GetReview(ctx context.Context, attemptID uint, userID string) (*services.Review, error) {
	args := m.Called(ctx, attemptID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Review), args.Error(1)
}

func (m *MockAttemptService) GetEligibility(ctx context.Context, examID uint, userID string) (*services.EligibilityResponse, error) {
	args := m.Called(ctx, examID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.EligibilityResponse), args.Error(1)
}

func (m *MockAttemptService) ListAttempts(ctx context.Context, examID uint, userID string) ([]*services.AttemptStatusResponse, error) {
	args := m.Called(ctx, examID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*services.AttemptStatusResponse), args.Error(1)
}

func (m *MockAttemptService) ExpireOverdue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockExamService struct {
	mock.Mock
}

func (m *MockExamService) List(ctx context.Context, filters *services.ExamListFilters) (*services.ExamListResponse, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExamListResponse), args.Error(1)
}

func (m *MockExamService) Get(ctx context.Context, examID uint) (*services.ExamResponse, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExamResponse), args.Error(1)
}

func (m *MockExamService) Create(ctx context.Context, req *services.CreateExamRequest, adminID string) (*services.ExamResponse, error) {
	args := m.Called(ctx, req, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExamResponse), args.Error(1)
}

func (m *MockExamService) Publish(ctx context.Context, examID uint, adminID string) (*services.ExamResponse, error) {
	args := m.Called(ctx, examID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExamResponse), args.Error(1)
}

type MockImportExportService struct {
	mock.Mock
}

func (m *MockImportExportService) ImportQuestions(ctx context.Context, examID uint, file io.Reader, filename string, adminID string) (*models.ImportSummary, error) {
	args := m.Called(ctx, examID, file, filename, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSummary), args.Error(1)
}

func (m *MockImportExportService) ExportQuestionTemplate(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImportExportService) ExportResults(ctx context.Context, examID uint) ([]byte, string, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

type fakeServiceManager struct {
	attempt      *MockAttemptService
	exam         *MockExamService
	importExport *MockImportExportService
}

func (f *fakeServiceManager) Attempt() services.AttemptService           { return f.attempt }
func (f *fakeServiceManager) Exam() services.ExamService                 { return f.exam }
func (f *fakeServiceManager) ImportExport() services.ImportExportService { return f.importExport }
func (f *fakeServiceManager) Events() services.EventService              { return nil }

type pingFunc func(ctx context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

// ===== FIXTURE =====

type routerFixture struct {
	router   *gin.Engine
	services *fakeServiceManager
	verifier *middleware.JWTVerifier
	student  string
	admin    string
}

func newRouterFixture(t *testing.T, health HealthChecker) *routerFixture {
	t.Helper()

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	verifier := middleware.NewJWTVerifier("handler-secret", "", "")
	sm := &fakeServiceManager{
		attempt:      &MockAttemptService{},
		exam:         &MockExamService{},
		importExport: &MockImportExportService{},
	}

	router := gin.New()
	NewHandlerManager(sm, logger, RouterOptions{
		Verifier: verifier,
		Metrics:  metrics.New(prometheus.NewRegistry()),
		Health:   health,
	}).SetupRoutes(router)

	student, err := verifier.Sign(services.Identity{UserID: "u1", Email: "u1@example.com", Role: models.RoleStudent}, time.Hour)
	require.NoError(t, err)
	admin, err := verifier.Sign(services.Identity{UserID: "a1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	return &routerFixture{router: router, services: sm, verifier: verifier, student: student, admin: admin}
}

func (f *routerFixture) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *routerFixture) doJSON(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	return f.do(method, path, token, body, "application/json")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ===== TESTS =====

func TestStartAttempt(t *testing.T) {
	f := newRouterFixture(t, nil)
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	f.services.attempt.On("Start", mock.Anything, uint(7), mock.MatchedBy(func(req *services.StartAttemptRequest) bool {
		return req.IsTimed != nil && !*req.IsTimed
	}), mock.MatchedBy(func(caller services.Identity) bool {
		return caller.UserID == "u1" && caller.Email == "u1@example.com"
	})).Return(&services.StartAttemptResponse{
		AttemptID: 42, AttemptNumber: 1, TotalQuestions: 20, TimeLimitSec: 1800, StartedAt: started,
	}, nil).Once()

	w := f.doJSON(http.MethodPost, "/api/v1/exams/7/start", f.student, map[string]interface{}{"is_timed": false})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp services.StartAttemptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(42), resp.AttemptID)
	assert.Equal(t, 20, resp.TotalQuestions)
	f.services.attempt.AssertExpectations(t)
}

func TestStartAttempt_EmptyBody(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.services.attempt.On("Start", mock.Anything, uint(7), &services.StartAttemptRequest{}, mock.Anything).
		Return(&services.StartAttemptResponse{AttemptID: 1}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/exams/7/start", f.student, nil, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	f.services.attempt.AssertExpectations(t)
}

func TestStartAttempt_Cooldown(t *testing.T) {
	f := newRouterFixture(t, nil)
	next := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f.services.attempt.On("Start", mock.Anything, uint(7), mock.Anything, mock.Anything).
		Return(nil, &services.EligibilityError{Reason: services.ReasonCooldown, NextEligibleAt: &next, ConsecutiveFailures: 2}).Once()

	w := f.doJSON(http.MethodPost, "/api/v1/exams/7/start", f.student, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, CodeNotEligible, resp.Code)
	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, services.ReasonCooldown, details["reason"])
	assert.Equal(t, "2026-03-02T10:00:00Z", details["next_eligible_at"])
	assert.EqualValues(t, 2, details["consecutive_failures"])
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"attempt not found", services.ErrAttemptNotFound, http.StatusNotFound, CodeNotFound},
		{"wrapped not found", errors.Join(errors.New("lookup"), services.ErrExamNotFound), http.StatusNotFound, CodeNotFound},
		{"other user's attempt", services.NewPermissionError("u1", 9, "attempt", "read", "not the owner"), http.StatusForbidden, CodeForbidden},
		{"not entitled", services.ErrNotEntitled, http.StatusForbidden, CodeForbidden},
		{"no credits", services.ErrInsufficientCredits, http.StatusForbidden, CodeForbidden},
		{"wrong state", &services.StateError{AttemptID: 9, Operation: "pause", Status: models.AttemptEvaluated}, http.StatusConflict, CodeInvalidState},
		{"time expired", services.ErrAttemptTimeExpired, http.StatusConflict, CodeInvalidState},
		{"review not ready", services.ErrReviewNotReady, http.StatusConflict, CodeInvalidState},
		{"validation", services.ValidationErrors{*services.NewValidationError("order", "out of range", 99)}, http.StatusBadRequest, CodeValidation},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, nil)
			f.services.attempt.On("GetStatus", mock.Anything, uint(9), "u1").Return(nil, tt.err).Once()

			w := f.do(http.MethodGet, "/api/v1/attempts/9", f.student, nil, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.services.attempt.On("GetReview", mock.Anything, uint(9), "u1").Return(nil, errors.New("pq: password authentication failed")).Once()

	w := f.do(http.MethodGet, "/api/v1/attempts/9/review", f.student, nil, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAttemptRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)
	key := models.OptionKey("C")
	remaining := 600

	f.services.attempt.On("GetQuestion", mock.Anything, uint(3), 2, "u1").
		Return(&services.QuestionResponse{AttemptID: 3, QuestionID: 11, Order: 2, SelectedAnswer: &key}, nil).Once()
	f.services.attempt.On("SubmitAnswer", mock.Anything, uint(3), mock.MatchedBy(func(req *services.SubmitAnswerRequest) bool {
		return req.QuestionID == 11 && req.SelectedAnswer != nil && *req.SelectedAnswer == "c"
	}), "u1").Return(&services.SubmitAnswerResponse{Success: true, Answer: services.AnswerResponse{QuestionID: 11, SelectedAnswer: &key}}, nil).Once()
	f.services.attempt.On("Pause", mock.Anything, uint(3), mock.MatchedBy(func(req *services.PauseAttemptRequest) bool {
		return req.TimeRemainingSec != nil && *req.TimeRemainingSec == 600
	}), "u1").Return(&services.PauseAttemptResponse{Success: true, TimeRemainingSec: &remaining}, nil).Once()
	f.services.attempt.On("Resume", mock.Anything, uint(3), "u1").
		Return(&services.AttemptStatusResponse{AttemptID: 3, Status: models.AttemptInProgress}, nil).Once()
	f.services.attempt.On("Submit", mock.Anything, uint(3), "u1").
		Return(&services.SubmitAttemptResponse{AttemptID: 3, Status: models.AttemptEvaluated, Percentage: 75, Passed: true}, nil).Once()
	f.services.attempt.On("GetReview", mock.Anything, uint(3), "u1").
		Return(&services.Review{AttemptID: 3, CorrectCount: 15, TotalQuestions: 20}, nil).Once()
	f.services.attempt.On("GetEligibility", mock.Anything, uint(7), "u1").
		Return(&services.EligibilityResponse{ExamID: 7, Eligible: true}, nil).Once()
	f.services.attempt.On("ListAttempts", mock.Anything, uint(7), "u1").
		Return([]*services.AttemptStatusResponse{{AttemptID: 3}}, nil).Once()

	tests := []struct {
		name     string
		method   string
		path     string
		payload  interface{}
		contains string
	}{
		{"question", http.MethodGet, "/api/v1/attempts/3/questions/2", nil, `"selected_answer":"C"`},
		{"answer", http.MethodPost, "/api/v1/attempts/3/answers", map[string]interface{}{"question_id": 11, "selected_answer": "c"}, `"success":true`},
		{"pause", http.MethodPost, "/api/v1/attempts/3/pause", map[string]interface{}{"time_remaining_sec": 600}, `"time_remaining_sec":600`},
		{"resume", http.MethodPost, "/api/v1/attempts/3/resume", nil, `"status":"in_progress"`},
		{"submit", http.MethodPost, "/api/v1/attempts/3/submit", nil, `"passed":true`},
		{"review", http.MethodGet, "/api/v1/attempts/3/review", nil, `"correct_count":15`},
		{"eligibility", http.MethodGet, "/api/v1/exams/7/eligibility", nil, `"eligible":true`},
		{"my attempts", http.MethodGet, "/api/v1/exams/7/attempts", nil, `"attempts":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.doJSON(tt.method, tt.path, f.student, tt.payload)
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
	f.services.attempt.AssertExpectations(t)
}

func TestBadParams(t *testing.T) {
	f := newRouterFixture(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"non numeric attempt", http.MethodGet, "/api/v1/attempts/abc", ""},
		{"zero exam", http.MethodPost, "/api/v1/exams/0/start", ""},
		{"non numeric order", http.MethodGet, "/api/v1/attempts/3/questions/first", ""},
		{"malformed answer", http.MethodPost, "/api/v1/attempts/3/answers", `{"question_id":`},
		{"malformed pause", http.MethodPost, "/api/v1/attempts/3/pause", `{"time_remaining_sec":"soon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			}
			w := f.do(tt.method, tt.path, f.student, body, "application/json")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, CodeValidation, decodeError(t, w).Code)
		})
	}
	f.services.attempt.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthRequired(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/exams", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/admin/exams", f.student, bytes.NewBufferString(`{}`), "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)
	f.services.exam.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestExamRoutes(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.services.exam.On("List", mock.Anything, &services.ExamListFilters{Category: models.CategoryPractice, Limit: 5}).
		Return(&services.ExamListResponse{Exams: []*services.ExamResponse{{ID: 1, Title: "Practice A"}}, Total: 1, Limit: 5}, nil).Once()
	f.services.exam.On("Get", mock.Anything, uint(1)).Return(&services.ExamResponse{ID: 1, Title: "Practice A"}, nil).Once()
	f.services.exam.On("Get", mock.Anything, uint(2)).Return(nil, services.ErrExamNotFound).Once()

	w := f.do(http.MethodGet, "/api/v1/exams?category=PRACTICE&limit=5", f.student, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Practice A")

	w = f.do(http.MethodGet, "/api/v1/exams/1", f.student, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/exams/2", f.student, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/exams?limit=lots", f.student, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.services.exam.AssertExpectations(t)
}

func TestAdminCreateAndPublish(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.services.exam.On("Create", mock.Anything, mock.MatchedBy(func(req *services.CreateExamRequest) bool {
		return req.Title == "Level 1" && req.Category == models.CategoryLevel
	}), "a1").Return(&services.ExamResponse{ID: 5, Title: "Level 1"}, nil).Once()
	f.services.exam.On("Publish", mock.Anything, uint(5), "a1").Return(&services.ExamResponse{ID: 5, IsPublished: true}, nil).Once()
	f.services.exam.On("Publish", mock.Anything, uint(6), "a1").Return(nil, services.ErrExamHasNoQuestions).Once()

	w := f.doJSON(http.MethodPost, "/api/v1/admin/exams", f.admin, map[string]interface{}{
		"title": "Level 1", "category": "LEVEL", "time_limit_sec": 1800, "passing_score": 70,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/v1/admin/exams/5/publish", f.admin, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_published":true`)

	w = f.do(http.MethodPost, "/api/v1/admin/exams/6/publish", f.admin, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	f.services.exam.AssertExpectations(t)
}

func multipartFile(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAdminImport(t *testing.T) {
	t.Run("stored", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		f.services.importExport.On("ImportQuestions", mock.Anything, uint(5), mock.Anything, "questions.csv", "a1").
			Return(&models.ImportSummary{ExamID: 5, TotalRows: 2, SuccessCount: 2, CreatedQuestions: []uint{1, 2}}, nil).Once()

		body, contentType := multipartFile(t, "file", "questions.csv", "order,prompt\n1,x\n")
		w := f.do(http.MethodPost, "/api/v1/admin/exams/5/questions/import", f.admin, body, contentType)

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"success_count":2`)
		f.services.importExport.AssertExpectations(t)
	})

	t.Run("row errors", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		f.services.importExport.On("ImportQuestions", mock.Anything, uint(5), mock.Anything, "questions.xlsx", "a1").
			Return(&models.ImportSummary{ExamID: 5, TotalRows: 2, ErrorCount: 1, Errors: []models.ImportValidationError{{Row: 3, Column: "correct_answer", Message: "must be one of A, B, C, D"}}}, nil).Once()

		body, contentType := multipartFile(t, "file", "questions.xlsx", "PK")
		w := f.do(http.MethodPost, "/api/v1/admin/exams/5/questions/import", f.admin, body, contentType)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "correct_answer")
	})

	t.Run("missing file", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		body, contentType := multipartFile(t, "upload", "questions.csv", "x")
		w := f.do(http.MethodPost, "/api/v1/admin/exams/5/questions/import", f.admin, body, contentType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.services.importExport.AssertNotCalled(t, "ImportQuestions", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminDownloads(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.services.importExport.On("ExportResults", mock.Anything, uint(5)).Return([]byte("xlsx-bytes"), "exam_5_results_20260302.xlsx", nil).Once()
	f.services.importExport.On("ExportResults", mock.Anything, uint(6)).Return(nil, "", services.ErrExamNotFound).Once()
	f.services.importExport.On("ExportQuestionTemplate", mock.Anything).Return([]byte("template"), nil).Once()

	w := f.do(http.MethodGet, "/api/v1/admin/exams/5/results/export", f.admin, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="exam_5_results_20260302.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx-bytes", w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/admin/exams/6/results/export", f.admin, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/admin/questions/template", f.admin, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "question_import_template.xlsx")
}

func TestHealthAndMetrics(t *testing.T) {
	f := newRouterFixture(t, pingFunc(func(context.Context) error { return nil }))
	w := f.do(http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = f.do(http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	down := newRouterFixture(t, pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }))
	w = down.do(http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}
