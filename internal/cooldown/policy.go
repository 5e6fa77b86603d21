// Package cooldown decides whether a user may start another attempt of an exam
// after a run of consecutive failures.
package cooldown

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fasahat78/startege-sub004/internal/models"
)

// Buckets are 0, 1, 2 and 3+ consecutive failures.
const Buckets = 4

// Schedule holds the wait per failure bucket. Bucket 0 is always zero.
type Schedule [Buckets]time.Duration

var ErrInvalidSchedule = errors.New("invalid cooldown schedule")

// Validate enforces a zero first bucket and non-decreasing escalation.
func (s Schedule) Validate() error {
	if s[0] != 0 {
		return fmt.Errorf("%w: bucket 0 must be zero, got %s", ErrInvalidSchedule, s[0])
	}
	for i := 1; i < Buckets; i++ {
		if s[i] < 0 {
			return fmt.Errorf("%w: bucket %d is negative", ErrInvalidSchedule, i)
		}
		if s[i] < s[i-1] {
			return fmt.Errorf("%w: bucket %d (%s) is shorter than bucket %d (%s)", ErrInvalidSchedule, i, s[i], i-1, s[i-1])
		}
	}
	return nil
}

// For returns the wait for n consecutive failures.
func (s Schedule) For(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	if failures >= Buckets {
		failures = Buckets - 1
	}
	return s[failures]
}

// ParseSchedule reads comma-separated Go durations such as "0s,1h,24h,72h".
// A shorter list repeats its last value into the remaining buckets.
func ParseSchedule(raw string) (Schedule, error) {
	var s Schedule
	parts := strings.Split(raw, ",")
	if len(parts) == 0 || len(parts) > Buckets || strings.TrimSpace(raw) == "" {
		return s, fmt.Errorf("%w: expected 1 to %d durations, got %q", ErrInvalidSchedule, Buckets, raw)
	}
	for i := 0; i < Buckets; i++ {
		if i >= len(parts) {
			s[i] = s[i-1]
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(parts[i]))
		if err != nil {
			return s, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		s[i] = d
	}
	return s, s.Validate()
}

func (s Schedule) String() string {
	parts := make([]string, Buckets)
	for i, d := range s {
		parts[i] = d.String()
	}
	return strings.Join(parts, ",")
}

// Outcome is one terminal attempt in a user's history.
type Outcome struct {
	AttemptID   uint
	SubmittedAt time.Time
	Passed      bool
}

// OutcomesFromAttempts keeps only evaluated attempts, oldest first.
func OutcomesFromAttempts(attempts []*models.ExamAttempt) []Outcome {
	outcomes := make([]Outcome, 0, len(attempts))
	for _, a := range attempts {
		if a.Status != models.AttemptEvaluated || a.Passed == nil {
			continue
		}
		outcomes = append(outcomes, Outcome{
			AttemptID:   a.ID,
			SubmittedAt: a.FinishedAt(),
			Passed:      *a.Passed,
		})
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].SubmittedAt.Before(outcomes[j].SubmittedAt)
	})
	return outcomes
}

type Decision struct {
	Eligible            bool          `json:"eligible"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Cooldown            time.Duration `json:"-"`
	NextEligibleAt      *time.Time    `json:"next_eligible_at,omitempty"`
}

type Policy struct {
	schedules map[models.ExamCategory]Schedule
}

// DefaultSchedules are the production defaults; every value can be overridden through config.
func DefaultSchedules() map[models.ExamCategory]Schedule {
	return map[models.ExamCategory]Schedule{
		models.CategoryPractice:      {0, 0, 0, 0},
		models.CategoryLevel:         {0, time.Hour, 24 * time.Hour, 72 * time.Hour},
		models.CategoryCertification: {0, 24 * time.Hour, 7 * 24 * time.Hour, 30 * 24 * time.Hour},
	}
}

func NewPolicy(schedules map[models.ExamCategory]Schedule) (*Policy, error) {
	table := make(map[models.ExamCategory]Schedule, len(schedules))
	for category, s := range schedules {
		if !category.IsValid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidSchedule, category)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		table[category] = s
	}
	return &Policy{schedules: table}, nil
}

func DefaultPolicy() *Policy {
	p, _ := NewPolicy(DefaultSchedules())
	return p
}

// Schedule returns the table for a category; unknown categories never cool down.
func (p *Policy) Schedule(category models.ExamCategory) Schedule {
	return p.schedules[category]
}

// ConsecutiveFailures counts failures at the end of an oldest-first history.
// Any pass resets the count.
func ConsecutiveFailures(history []Outcome) int {
	n := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Passed {
			break
		}
		n++
	}
	return n
}

// Evaluate decides eligibility at now. history must be oldest first.
func (p *Policy) Evaluate(category models.ExamCategory, history []Outcome, now time.Time) Decision {
	failures := ConsecutiveFailures(history)
	wait := p.Schedule(category).For(failures)
	decision := Decision{
		Eligible:            true,
		ConsecutiveFailures: failures,
		Cooldown:            wait,
	}
	if wait == 0 {
		return decision
	}

	next := history[len(history)-1].SubmittedAt.Add(wait)
	if now.Before(next) {
		decision.Eligible = false
		decision.NextEligibleAt = &next
	}
	return decision
}
