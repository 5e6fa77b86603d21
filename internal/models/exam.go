package models

import (
	"time"
)

type ExamCategory string

const (
	CategoryPractice      ExamCategory = "PRACTICE"
	CategoryLevel         ExamCategory = "LEVEL"
	CategoryCertification ExamCategory = "CERTIFICATION"
)

var ExamCategories = []ExamCategory{CategoryPractice, CategoryLevel, CategoryCertification}

func (c ExamCategory) IsValid() bool {
	for _, category := range ExamCategories {
		if c == category {
			return true
		}
	}
	return false
}

// SubscriptionTier is the billing plan of a user. Billing itself lives elsewhere;
// this service only compares tiers.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

var SubscriptionTiers = []SubscriptionTier{TierFree, TierPro, TierEnterprise}

func (t SubscriptionTier) rank() int {
	switch t {
	case TierPro:
		return 1
	case TierEnterprise:
		return 2
	default:
		return 0
	}
}

func (t SubscriptionTier) IsValid() bool {
	return t == TierFree || t == TierPro || t == TierEnterprise
}

// Covers reports whether a user on tier t may take content that requires the given tier.
func (t SubscriptionTier) Covers(required SubscriptionTier) bool {
	return t.rank() >= required.rank()
}

type Exam struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Category    ExamCategory `json:"category" gorm:"type:varchar(20);not null;index" validate:"required,exam_category"`

	// Defaults snapshotted onto every attempt at start
	TimeLimitSec   int  `json:"time_limit_sec" gorm:"not null" validate:"min=60,max=86400"`
	PassingScore   int  `json:"passing_score" gorm:"not null" validate:"min=0,max=100"`
	ShuffleOptions bool `json:"shuffle_options" gorm:"not null"`

	RequiredTier   SubscriptionTier `json:"required_tier" gorm:"type:varchar(20);not null" validate:"required,subscription_tier"`
	ConsumesCredit bool             `json:"consumes_credit" gorm:"not null"`
	IsPublished    bool             `json:"is_published" gorm:"not null;index"`

	CreatedBy string    `json:"created_by" gorm:"size:128"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question `json:"-" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}

func (Exam) TableName() string {
	return "exams"
}

// AllowsCustomTiming reports whether a caller may pick untimed mode or their own limit.
// Graded categories always run on the exam's configured clock.
func (e *Exam) AllowsCustomTiming() bool {
	return e.Category == CategoryPractice
}
