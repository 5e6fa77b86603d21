package models

import "time"

// ImportValidationError points at one bad cell of an uploaded question sheet.
type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

type ImportSummary struct {
	ExamID           uint                    `json:"exam_id"`
	FileType         string                  `json:"file_type"`
	TotalRows        int                     `json:"total_rows"`
	SuccessCount     int                     `json:"success_count"`
	ErrorCount       int                     `json:"error_count"`
	CreatedQuestions []uint                  `json:"created_questions"`
	Errors           []ImportValidationError `json:"errors"`
	ProcessingTime   time.Duration           `json:"processing_time"`
}

// Column layout shared by the xlsx and csv importers and the template export.
var QuestionImportColumns = []string{
	"order", "prompt", "option_a", "option_b", "option_c", "option_d",
	"correct_answer", "explanation", "domain", "topic", "difficulty", "jurisdiction",
}

var ResultExportColumns = []string{
	"attempt_id", "user_id", "attempt_number", "status", "end_reason",
	"started_at", "submitted_at", "correct", "total", "percentage", "passed",
}
