package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/repositories"
	"gorm.io/gorm"
)

// memoryStore backs memoryRepository. Transactions are serialized and roll
// back by restoring a snapshot, which is enough to stand in for row locks.
type memoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	exams     map[uint]models.Exam
	questions map[uint]models.Question
	attempts  map[uint]models.ExamAttempt
	answers   map[uint]models.AttemptAnswer
	users     map[string]models.User
	nextID    uint

	// failOn makes the named operation return an error
	failOn map[string]error
	// journal records writes and transaction outcomes in call order
	journal []string
}

type memoryRepository struct {
	store *memoryStore
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{store: &memoryStore{
		exams:     map[uint]models.Exam{},
		questions: map[uint]models.Question{},
		attempts:  map[uint]models.ExamAttempt{},
		answers:   map[uint]models.AttemptAnswer{},
		users:     map[string]models.User{},
		failOn:    map[string]error{},
	}}
}

func (r *memoryRepository) Exam() repositories.ExamRepository         { return memoryExams{r.store} }
func (r *memoryRepository) Question() repositories.QuestionRepository { return memoryQuestions{r.store} }
func (r *memoryRepository) Attempt() repositories.AttemptRepository   { return memoryAttempts{r.store} }
func (r *memoryRepository) Answer() repositories.AnswerRepository     { return memoryAnswers{r.store} }
func (r *memoryRepository) User() repositories.UserRepository         { return memoryUsers{r.store} }

func (r *memoryRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	snap := r.store.snapshot()
	if err := fn(&gorm.DB{}); err != nil {
		r.store.restore(snap)
		r.store.record("rollback")
		return err
	}
	r.store.record("commit")
	return nil
}

// journal returns a copy of the recorded operations
func (r *memoryRepository) journal() []string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]string(nil), r.store.journal...)
}

func (r *memoryRepository) Ping(ctx context.Context) error { return nil }

type memorySnapshot struct {
	exams     map[uint]models.Exam
	questions map[uint]models.Question
	attempts  map[uint]models.ExamAttempt
	answers   map[uint]models.AttemptAnswer
	users     map[string]models.User
}

func (s *memoryStore) snapshot() memorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memorySnapshot{
		exams:     cloneMap(s.exams),
		questions: cloneMap(s.questions),
		attempts:  cloneMap(s.attempts),
		answers:   cloneMap(s.answers),
		users:     cloneMap(s.users),
	}
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams = snap.exams
	s.questions = snap.questions
	s.attempts = snap.attempts
	s.answers = snap.answers
	s.users = snap.users
}

func (s *memoryStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal = append(s.journal, op)
}

func (s *memoryStore) fail(op string) error {
	return s.failOn[op]
}

func (s *memoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func requireTx(tx *gorm.DB) error {
	if tx == nil {
		return errors.New("row lock requires a transaction")
	}
	return nil
}

// ===== EXAMS =====

type memoryExams struct{ s *memoryStore }

func (m memoryExams) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	exam.ID = m.s.id()
	exam.CreatedAt = time.Now()
	exam.UpdatedAt = exam.CreatedAt
	m.s.exams[exam.ID] = *exam
	return nil
}

func (m memoryExams) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("exam.get"); err != nil {
		return nil, err
	}
	exam, ok := m.s.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &exam, nil
}

func (m memoryExams) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	exam.UpdatedAt = time.Now()
	m.s.exams[exam.ID] = *exam
	m.s.journal = append(m.s.journal, fmt.Sprintf("update exam:%d", exam.ID))
	return nil
}

func (m memoryExams) InvalidateCache(ctx context.Context, id uint) {
	m.s.record(fmt.Sprintf("invalidate exam:%d", id))
}

func (m memoryExams) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Exam
	for _, exam := range m.s.exams {
		if filters.PublishedOnly && !exam.IsPublished {
			continue
		}
		if filters.Category != nil && exam.Category != *filters.Category {
			continue
		}
		e := exam
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, nil
}

// ===== QUESTIONS =====

type memoryQuestions struct{ s *memoryStore }

func (m memoryQuestions) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, q := range questions {
		q.ID = m.s.id()
		m.s.questions[q.ID] = *q
	}
	if len(questions) > 0 {
		m.s.journal = append(m.s.journal, fmt.Sprintf("insert exam:%d:questions", questions[0].ExamID))
	}
	return nil
}

func (m memoryQuestions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	q, ok := m.s.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &q, nil
}

func (m memoryQuestions) GetByExamAndOrder(ctx context.Context, tx *gorm.DB, examID uint, order int) (*models.Question, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, q := range m.s.questions {
		if q.ExamID == examID && q.Order == order {
			found := q
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memoryQuestions) ListByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Question
	for _, q := range m.s.questions {
		if q.ExamID == examID {
			found := q
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m memoryQuestions) CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int, error) {
	qs, err := m.ListByExam(ctx, tx, examID)
	return len(qs), err
}

func (m memoryQuestions) InvalidateCache(ctx context.Context, examID uint) {
	m.s.record(fmt.Sprintf("invalidate exam:%d:questions", examID))
}

// ===== ATTEMPTS =====

type memoryAttempts struct{ s *memoryStore }

func (m memoryAttempts) Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.attempts {
		if a.UserID != attempt.UserID || a.ExamID != attempt.ExamID {
			continue
		}
		// idx_attempt_one_open and idx_attempt_user_exam_number
		if (a.Status.IsOpen() && attempt.Status.IsOpen()) || a.AttemptNumber == attempt.AttemptNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	attempt.ID = m.s.id()
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = attempt.CreatedAt
	m.s.attempts[attempt.ID] = *attempt
	return nil
}

func (m memoryAttempts) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (m memoryAttempts) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}
	return m.GetByID(ctx, tx, id)
}

func (m memoryAttempts) Update(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("attempt.update"); err != nil {
		return err
	}
	attempt.UpdatedAt = time.Now()
	m.s.attempts[attempt.ID] = *attempt
	return nil
}

func (m memoryAttempts) GetOpenAttempt(ctx context.Context, tx *gorm.DB, userID string, examID uint) (*models.ExamAttempt, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.attempts {
		if a.UserID == userID && a.ExamID == examID && a.Status.IsOpen() {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m memoryAttempts) GetNextAttemptNumber(ctx context.Context, tx *gorm.DB, userID string, examID uint) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	max := 0
	for _, a := range m.s.attempts {
		if a.UserID == userID && a.ExamID == examID && a.AttemptNumber > max {
			max = a.AttemptNumber
		}
	}
	return max + 1, nil
}

func (m memoryAttempts) ListByUserAndExam(ctx context.Context, tx *gorm.DB, userID string, examID uint) ([]*models.ExamAttempt, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.ExamAttempt
	for _, a := range m.s.attempts {
		if a.UserID == userID && a.ExamID == examID {
			found := a
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (m memoryAttempts) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.ExamAttempt
	for _, a := range m.s.attempts {
		if filters.ExamID != nil && a.ExamID != *filters.ExamID {
			continue
		}
		if filters.UserID != nil && a.UserID != *filters.UserID {
			continue
		}
		found := a
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, nil
}

func (m memoryAttempts) ListOverdue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]*models.ExamAttempt, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.ExamAttempt
	for _, a := range m.s.attempts {
		if a.ExpiredAt(now) {
			found := a
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, 0), nil
}

// ===== ANSWERS =====

type memoryAnswers struct{ s *memoryStore }

func (m memoryAnswers) CreateIfAbsent(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) (*models.AttemptAnswer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.answers {
		if a.AttemptID == answer.AttemptID && a.QuestionID == answer.QuestionID {
			found := a
			return &found, nil
		}
	}
	answer.ID = m.s.id()
	answer.CreatedAt = time.Now()
	m.s.answers[answer.ID] = *answer
	return answer, nil
}

func (m memoryAnswers) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.answers {
		if a.AttemptID == attemptID && a.QuestionID == questionID {
			found := a
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memoryAnswers) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.AttemptAnswer
	for _, a := range m.s.answers {
		if a.AttemptID == attemptID {
			found := a
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m memoryAnswers) UpdateSelection(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.answers[answer.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.SelectedAnswer = answer.SelectedAnswer
	stored.IsFlagged = answer.IsFlagged
	stored.TimeSpentSec = answer.TimeSpentSec
	stored.AnsweredAt = answer.AnsweredAt
	m.s.answers[answer.ID] = stored
	return nil
}

func (m memoryAnswers) UpdateCorrectness(ctx context.Context, tx *gorm.DB, answerID uint, isCorrect bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.answers[answerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.IsCorrect = &isCorrect
	m.s.answers[answerID] = stored
	return nil
}

// ===== USERS =====

type memoryUsers struct{ s *memoryStore }

func (m memoryUsers) EnsureExists(ctx context.Context, tx *gorm.DB, user *models.User) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if existing, ok := m.s.users[user.ID]; ok {
		return &existing, nil
	}
	m.s.users[user.ID] = *user
	return user, nil
}

func (m memoryUsers) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (m memoryUsers) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}
	return m.GetByID(ctx, tx, id)
}

func (m memoryUsers) DecrementCredits(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok || u.ExamCredits <= 0 {
		return false, nil
	}
	u.ExamCredits--
	m.s.users[id] = u
	return true, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ repositories.Repository = (*memoryRepository)(nil)
