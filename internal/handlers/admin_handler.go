package handlers

import (
	"fmt"
	"net/http"

	"github.com/fasahat78/startege-sub004/internal/services"
	"github.com/fasahat78/startege-sub004/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize   = 10 << 20
)

// AdminHandler serves exam curation. Routes are mounted behind RequireRole(admin).
type AdminHandler struct {
	BaseHandler
	examService         services.ExamService
	importExportService services.ImportExportService
}

func NewAdminHandler(
	examService services.ExamService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:         NewBaseHandler(logger),
		examService:         examService,
		importExportService: importExportService,
	}
}

// CreateExam creates an unpublished exam
// @Summary Create exam
// @Tags admin
// @Accept json
// @Produce json
// @Param exam body services.CreateExamRequest true "Exam data"
// @Success 201 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/exams [post]
func (h *AdminHandler) CreateExam(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Invalid request payload", err.Error())
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// PublishExam makes an exam visible to students once its questions are complete
// @Summary Publish exam
// @Tags admin
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/exams/{id}/publish [post]
func (h *AdminHandler) PublishExam(c *gin.Context) {
	examID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	exam, err := h.examService.Publish(c.Request.Context(), examID, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// ImportQuestions loads questions from an uploaded csv or xlsx file
// @Summary Import questions
// @Description All rows are stored or none; row problems come back in the summary with 422
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Exam ID"
// @Param file formData file true "Question sheet (.csv or .xlsx)"
// @Success 201 {object} models.ImportSummary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} models.ImportSummary
// @Router /admin/exams/{id}/questions/import [post]
func (h *AdminHandler) ImportQuestions(c *gin.Context) {
	examID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Missing file upload", err.Error())
		return
	}
	if fileHeader.Size > maxImportSize {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("File exceeds %d MB", maxImportSize>>20), fileHeader.Size)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file", "filename", fileHeader.Filename)
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Unreadable file upload")
		return
	}
	defer file.Close()

	summary, err := h.importExportService.ImportQuestions(c.Request.Context(), examID, file, fileHeader.Filename, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if summary.ErrorCount > 0 {
		c.JSON(http.StatusUnprocessableEntity, summary)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// DownloadTemplate returns an empty question sheet with the import columns
// @Summary Download import template
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /admin/questions/template [get]
func (h *AdminHandler) DownloadTemplate(c *gin.Context) {
	data, err := h.importExportService.ExportQuestionTemplate(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="question_import_template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ExportResults downloads every attempt of an exam as a spreadsheet
// @Summary Export exam results
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Exam ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /admin/exams/{id}/results/export [get]
func (h *AdminHandler) ExportResults(c *gin.Context) {
	examID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	data, filename, err := h.importExportService.ExportResults(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
