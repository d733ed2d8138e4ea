package entity

import (
	"time"
)

// SubscriptionStatus 订阅状态
type SubscriptionStatus string

const (
	SubscriptionFree      SubscriptionStatus = "free"
	SubscriptionPremium   SubscriptionStatus = "premium"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// User 用户实体（身份由外部认证服务管理，此处只保存权益相关字段）
type User struct {
	ID                    string             `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Email                 string             `json:"email,omitempty" gorm:"type:varchar(255);index"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status" gorm:"type:varchar(20);not null;default:free"`
	CancelAtPeriodEnd     bool               `json:"cancel_at_period_end" gorm:"not null;default:false"`
	CurrentPeriodEnd      *time.Time         `json:"current_period_end,omitempty"`
	MonthlyGeneratedCount int                `json:"monthly_generated_count" gorm:"not null;default:0"`
	LastGenerationMonth   int                `json:"last_generation_month" gorm:"not null;default:0"`
	LastGenerationYear    int                `json:"last_generation_year" gorm:"not null;default:0"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// NewUser 创建免费用户
func NewUser(id, email string) *User {
	now := time.Now()
	return &User{
		ID:                 id,
		Email:              email,
		SubscriptionStatus: SubscriptionFree,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// UsageIn 返回指定年月的已用次数，存储的年月过期时视为 0
func (u *User) UsageIn(month, year int) int {
	if u == nil {
		return 0
	}
	if u.LastGenerationMonth != month || u.LastGenerationYear != year {
		return 0
	}
	return u.MonthlyGeneratedCount
}
