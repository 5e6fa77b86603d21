package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/shuffle"
)

// Review is the post-evaluation view of an attempt in canonical (unshuffled) terms.
type Review struct {
	AttemptID     uint                `json:"attempt_id"`
	AttemptNumber int                 `json:"attempt_number"`
	ExamID        uint                `json:"exam_id"`
	ExamTitle     string              `json:"exam_title"`
	Category      models.ExamCategory `json:"category"`
	EndReason     *models.EndReason   `json:"end_reason,omitempty"`
	SubmittedAt   *time.Time          `json:"submitted_at,omitempty"`

	TotalQuestions int     `json:"total_questions"`
	AnsweredCount  int     `json:"answered_count"`
	CorrectCount   int     `json:"correct_count"`
	Percentage     float64 `json:"percentage"`
	PassingScore   int     `json:"passing_score"`
	Passed         bool    `json:"passed"`

	Breakdown models.ScoreBreakdown `json:"breakdown"`
	Questions []ReviewQuestion      `json:"questions"`
}

type ReviewQuestion struct {
	QuestionID  uint                    `json:"question_id"`
	Order       int                     `json:"order"`
	Prompt      string                  `json:"prompt"`
	Options     []models.QuestionOption `json:"options"`
	CorrectKey  models.OptionKey        `json:"correct_key"`
	Explanation *string                 `json:"explanation,omitempty"`

	// SelectedKey is the caller's choice translated back to a canonical key
	SelectedKey  *models.OptionKey `json:"selected_key"`
	PresentedKey *models.OptionKey `json:"presented_key"`
	IsCorrect    bool              `json:"is_correct"`
	IsFlagged    bool              `json:"is_flagged"`
	TimeSpentSec int               `json:"time_spent_sec"`

	Domain       string                 `json:"domain,omitempty"`
	Topic        string                 `json:"topic,omitempty"`
	Difficulty   models.DifficultyLevel `json:"difficulty,omitempty"`
	Jurisdiction string                 `json:"jurisdiction,omitempty"`
}

// AnswerGrade is the correctness of one stored answer row
type AnswerGrade struct {
	AnswerID  uint
	IsCorrect bool
}

// AssembleReview scores answers against the exam's questions. It is pure: the
// same inputs always give the same Review, field for field. Unanswered and
// never-viewed questions count as incorrect. Answers to questions outside the
// exam are ignored.
func AssembleReview(exam *models.Exam, questions []*models.Question, answers []*models.AttemptAnswer) (*Review, []AnswerGrade, error) {
	ordered := make([]*models.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].ID < ordered[j].ID
	})

	byQuestion := make(map[uint]*models.AttemptAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	review := &Review{
		ExamID:         exam.ID,
		ExamTitle:      exam.Title,
		Category:       exam.Category,
		TotalQuestions: len(ordered),
		PassingScore:   exam.PassingScore,
		Questions:      make([]ReviewQuestion, 0, len(ordered)),
	}
	tally := newBreakdownTally()
	grades := make([]AnswerGrade, 0, len(answers))

	for _, q := range ordered {
		item := ReviewQuestion{
			QuestionID:   q.ID,
			Order:        q.Order,
			Prompt:       q.Prompt,
			Options:      q.CanonicalOptions(),
			CorrectKey:   q.CorrectKey,
			Explanation:  q.Explanation,
			Domain:       q.Domain,
			Topic:        q.Topic,
			Difficulty:   q.Difficulty,
			Jurisdiction: q.Jurisdiction,
		}

		if answer, ok := byQuestion[q.ID]; ok {
			item.IsFlagged = answer.IsFlagged
			item.TimeSpentSec = answer.TimeSpentSec

			if answer.SelectedAnswer != nil {
				mapping, err := answer.Mapping()
				if err != nil {
					return nil, nil, fmt.Errorf("question %d: %w", q.ID, err)
				}
				canonical, err := shuffle.Translate(*answer.SelectedAnswer, mapping)
				if err != nil {
					return nil, nil, fmt.Errorf("question %d: %w", q.ID, err)
				}
				presented := *answer.SelectedAnswer
				item.PresentedKey = &presented
				item.SelectedKey = &canonical
				item.IsCorrect = canonical == q.CorrectKey
				review.AnsweredCount++
			}
			grades = append(grades, AnswerGrade{AnswerID: answer.ID, IsCorrect: item.IsCorrect})
		}

		if item.IsCorrect {
			review.CorrectCount++
		}
		tally.add(q, item.IsCorrect)
		review.Questions = append(review.Questions, item)
	}

	review.Percentage = percentage(review.CorrectCount, review.TotalQuestions)
	review.Passed = review.Percentage >= float64(exam.PassingScore)
	review.Breakdown = tally.result()

	sort.Slice(grades, func(i, j int) bool { return grades[i].AnswerID < grades[j].AnswerID })
	return review, grades, nil
}

// percentage rounds to two decimals; an empty exam scores 0
func percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)*10000/float64(total)) / 100
}

type breakdownTally struct {
	domain, topic, difficulty, jurisdiction map[string]*models.DimensionScore
}

func newBreakdownTally() *breakdownTally {
	return &breakdownTally{
		domain:       map[string]*models.DimensionScore{},
		topic:        map[string]*models.DimensionScore{},
		difficulty:   map[string]*models.DimensionScore{},
		jurisdiction: map[string]*models.DimensionScore{},
	}
}

func (t *breakdownTally) add(q *models.Question, correct bool) {
	bump(t.domain, q.Domain, correct)
	bump(t.topic, q.Topic, correct)
	bump(t.difficulty, string(q.Difficulty), correct)
	bump(t.jurisdiction, q.Jurisdiction, correct)
}

// bump skips untagged questions
func bump(m map[string]*models.DimensionScore, key string, correct bool) {
	if key == "" {
		return
	}
	score, ok := m[key]
	if !ok {
		score = &models.DimensionScore{}
		m[key] = score
	}
	score.Total++
	if correct {
		score.Correct++
	}
}

func (t *breakdownTally) result() models.ScoreBreakdown {
	return models.ScoreBreakdown{
		ByDomain:       finish(t.domain),
		ByTopic:        finish(t.topic),
		ByDifficulty:   finish(t.difficulty),
		ByJurisdiction: finish(t.jurisdiction),
	}
}

func finish(m map[string]*models.DimensionScore) map[string]models.DimensionScore {
	out := make(map[string]models.DimensionScore, len(m))
	for key, score := range m {
		out[key] = models.DimensionScore{
			Correct:    score.Correct,
			Total:      score.Total,
			Percentage: percentage(score.Correct, score.Total),
		}
	}
	return out
}
