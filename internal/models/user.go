package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User mirrors the identity-provider subject. Rows are created lazily the first
// time a subject starts an attempt; tier and credits are maintained by billing.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:128"`
	Email    string   `json:"email" gorm:"size:255;index"`
	FullName string   `json:"full_name" gorm:"size:100"`
	Role     UserRole `json:"role" gorm:"type:varchar(20);not null"`

	SubscriptionTier SubscriptionTier `json:"subscription_tier" gorm:"type:varchar(20);not null"`
	ExamCredits      int              `json:"exam_credits" gorm:"not null;default:0;check:chk_users_exam_credits,exam_credits >= 0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
