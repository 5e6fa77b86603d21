package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"github.com/fasahat78/startege-sub004/internal/validator"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	questionSheet  = "Questions"
	resultsSheet   = "Results"
	maxImportRows  = 1000
	exportPageSize = 500
)

type importExportService struct {
	repo      repositories.Repository
	events    EventService
	logger    *slog.Logger
	validator *validator.Validator
	opLog     *ServiceLogger
}

func NewImportExportService(repo repositories.Repository, eventService EventService, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		events:    eventService,
		logger:    logger,
		validator: validator,
		opLog:     NewServiceLogger(logger, LogConfig{Service: "exam-attempt-service", Component: "import-export"}),
	}
}

// ===== IMPORT OPERATIONS =====

// ImportQuestions appends the rows of a csv or xlsx sheet to a draft exam. The
// import is all or nothing: if any row is invalid the summary lists every
// problem and nothing is stored.
func (s *importExportService) ImportQuestions(ctx context.Context, examID uint, file io.Reader, filename string, adminID string) (summary *models.ImportSummary, err error) {
	op := s.opLog.WithOperation(ctx, "import_questions", adminID)
	defer func() { op.LogResult(examID, "exam", err) }()

	start := time.Now()
	ext := strings.ToLower(filepath.Ext(filename))

	var rows [][]string
	switch ext {
	case ".csv":
		rows, err = readCSVRows(file)
	case ".xlsx":
		rows, err = readExcelRows(file)
	default:
		return nil, ValidationErrors{*NewValidationError("file", "unsupported file format, use .csv or .xlsx", ext)}
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ValidationErrors{*NewValidationError("file", "must have a header row and at least one data row", len(rows))}
	}
	if len(rows)-1 > maxImportRows {
		return nil, ValidationErrors{*NewValidationError("file", fmt.Sprintf("at most %d questions per import", maxImportRows), len(rows)-1)}
	}

	headerMap, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	summary = &models.ImportSummary{
		ExamID:           examID,
		FileType:         strings.TrimPrefix(ext, "."),
		TotalRows:        len(rows) - 1,
		CreatedQuestions: []uint{},
		Errors:           []models.ImportValidationError{},
	}

	questions := make([]*models.Question, 0, len(rows)-1)
	rowNums := make([]int, 0, len(rows)-1)
	for i, row := range rows[1:] {
		question, rowErrors := s.parseQuestionRow(row, headerMap, i+2, examID)
		if len(rowErrors) > 0 {
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
			continue
		}
		questions = append(questions, question)
		rowNums = append(rowNums, i+2)
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		exam, err := s.repo.Exam().GetByID(ctx, tx, examID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to get exam: %w", err)
		}
		if exam.IsPublished {
			return ErrExamPublished
		}

		existing, err := s.repo.Question().ListByExam(ctx, tx, examID)
		if err != nil {
			return fmt.Errorf("failed to load existing questions: %w", err)
		}
		checkPositions(summary, questions, rowNums, existing)
		if summary.ErrorCount > 0 {
			return nil
		}

		if err := s.repo.Question().CreateBatch(ctx, tx, questions); err != nil {
			return fmt.Errorf("failed to save questions: %w", err)
		}
		for _, q := range questions {
			summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
		}
		summary.SuccessCount = len(questions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	summary.ProcessingTime = time.Since(start)

	s.logger.Info("Question import completed",
		"exam_id", examID,
		"file_type", summary.FileType,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)

	if summary.SuccessCount > 0 {
		s.repo.Question().InvalidateCache(ctx, examID)
		s.events.QuestionsImported(ctx, summary, adminID)
	}
	return summary, nil
}

func readCSVRows(file io.Reader) ([][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, ValidationErrors{*NewValidationError("file", fmt.Sprintf("failed to read CSV: %v", err), nil)}
	}
	return records, nil
}

func readExcelRows(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, ValidationErrors{*NewValidationError("file", fmt.Sprintf("failed to open Excel file: %v", err), nil)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ValidationErrors{*NewValidationError("file", "Excel file has no sheets", nil)}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

func parseHeader(header []string) (map[string]int, error) {
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var errs ValidationErrors
	for _, col := range []string{"order", "prompt", "option_a", "option_b", "option_c", "option_d", "correct_answer"} {
		if _, ok := headerMap[col]; !ok {
			errs = append(errs, *NewValidationError("headers", "missing required column: "+col, col))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return headerMap, nil
}

func (s *importExportService) parseQuestionRow(row []string, headerMap map[string]int, rowNum int, examID uint) (*models.Question, []models.ImportValidationError) {
	cell := func(col string) string {
		idx, ok := headerMap[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var errs []models.ImportValidationError
	rawOrder := cell("order")
	order, convErr := strconv.Atoi(rawOrder)
	if convErr != nil {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Column: "order", Message: "must be a whole number", Value: rawOrder})
	}

	question := &models.Question{
		ExamID: examID,
		Order:  order,
		Prompt: cell("prompt"),
		Options: datatypes.NewJSONType(models.QuestionOptions{
			{Key: models.OptionA, Text: cell("option_a")},
			{Key: models.OptionB, Text: cell("option_b")},
			{Key: models.OptionC, Text: cell("option_c")},
			{Key: models.OptionD, Text: cell("option_d")},
		}),
		CorrectKey:   models.OptionKey(strings.ToUpper(cell("correct_answer"))),
		Domain:       cell("domain"),
		Topic:        cell("topic"),
		Difficulty:   models.DifficultyLevel(strings.ToLower(cell("difficulty"))),
		Jurisdiction: cell("jurisdiction"),
	}
	if explanation := cell("explanation"); explanation != "" {
		question.Explanation = &explanation
	}

	for _, ve := range s.validator.Question().ValidateQuestion(question) {
		if ve.Field == "order" && convErr != nil {
			continue
		}
		value := ""
		if ve.Value != nil {
			value = fmt.Sprint(ve.Value)
		}
		errs = append(errs, models.ImportValidationError{Row: rowNum, Column: ve.Field, Message: ve.Message, Value: value})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return question, nil
}

// checkPositions reports rows whose order collides with another row or an
// existing question
func checkPositions(summary *models.ImportSummary, questions []*models.Question, rowNums []int, existing []*models.Question) {
	taken := make(map[int]bool, len(existing)+len(questions))
	for _, q := range existing {
		taken[q.Order] = true
	}
	for i, q := range questions {
		if taken[q.Order] {
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row:     rowNums[i],
				Column:  "order",
				Message: "position is already used in this exam",
				Value:   strconv.Itoa(q.Order),
			})
			summary.ErrorCount++
			continue
		}
		taken[q.Order] = true
	}
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportQuestionTemplate(ctx context.Context) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", questionSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	example := []interface{}{
		1,
		"Under the EU AI Act, which systems are prohibited outright?",
		"Spam filters",
		"Social scoring by public authorities",
		"Recommendation engines",
		"Chatbots that disclose they are AI",
		"B",
		"Article 5 lists social scoring among prohibited practices.",
		"Regulation",
		"EU AI Act",
		"medium",
		"EU",
	}

	if err := writeSheetRow(f, questionSheet, 1, toInterfaces(models.QuestionImportColumns)); err != nil {
		return nil, err
	}
	if err := writeSheetRow(f, questionSheet, 2, example); err != nil {
		return nil, err
	}
	if err := styleHeader(f, questionSheet, len(models.QuestionImportColumns)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportResults writes every attempt of an exam to an xlsx sheet and returns
// the bytes with a suggested file name
func (s *importExportService) ExportResults(ctx context.Context, examID uint) ([]byte, string, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrExamNotFound
		}
		return nil, "", fmt.Errorf("failed to get exam: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeSheetRow(f, resultsSheet, 1, toInterfaces(models.ResultExportColumns)); err != nil {
		return nil, "", err
	}
	if err := styleHeader(f, resultsSheet, len(models.ResultExportColumns)); err != nil {
		return nil, "", err
	}

	rowNum := 2
	for offset := 0; ; offset += exportPageSize {
		attempts, total, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
			ExamID: &examID,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to list attempts: %w", err)
		}
		for _, attempt := range attempts {
			if err := writeSheetRow(f, resultsSheet, rowNum, resultRow(attempt)); err != nil {
				return nil, "", err
			}
			rowNum++
		}
		if len(attempts) == 0 || int64(offset+len(attempts)) >= total {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	filename := fmt.Sprintf("exam_%d_results_%s.xlsx", exam.ID, time.Now().UTC().Format("20060102"))
	s.logger.Info("Exported exam results", "exam_id", examID, "rows", rowNum-2)
	return buf.Bytes(), filename, nil
}

func resultRow(attempt *models.ExamAttempt) []interface{} {
	row := []interface{}{
		attempt.ID,
		attempt.UserID,
		attempt.AttemptNumber,
		string(attempt.Status),
		"",
		attempt.StartedAt.UTC().Format(time.RFC3339),
		"",
		"",
		attempt.TotalQuestions,
		"",
		"",
	}
	if attempt.EndReason != nil {
		row[4] = string(*attempt.EndReason)
	}
	if attempt.SubmittedAt != nil {
		row[6] = attempt.SubmittedAt.UTC().Format(time.RFC3339)
	}
	if attempt.CorrectCount != nil {
		row[7] = *attempt.CorrectCount
	}
	if attempt.Percentage != nil {
		row[9] = *attempt.Percentage
	}
	if attempt.Passed != nil {
		row[10] = *attempt.Passed
	}
	return row
}

func writeSheetRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
