// Package entitlement 提供订阅与月度生成额度的判定
package entitlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/domain/repository"
	"worksheet-ai-api/pkg/logger"
	"worksheet-ai-api/pkg/metrics"
)

// Unlimited 订阅用户的剩余额度
const Unlimited = -1

// 拒绝原因（用于指标与响应）
const (
	ReasonMonthlyLimit = "monthly_limit"
	ReasonNotPremium   = "not_premium"
)

// Decision 生成额度判定结果
type Decision struct {
	Allowed        bool `json:"allowed"`
	CurrentCount   int  `json:"current_count"`
	RemainingCount int  `json:"remaining_count"`
	MonthlyLimit   int  `json:"monthly_limit"`
	Premium        bool `json:"is_premium"`
}

// LimitExceededError 免费用户月度额度不足
type LimitExceededError struct {
	UserID    string
	Requested int
	Decision  Decision
}

func (e LimitExceededError) Error() string {
	return fmt.Sprintf("monthly limit exceeded: user=%s used=%d requested=%d limit=%d",
		e.UserID, e.Decision.CurrentCount, e.Requested, e.Decision.MonthlyLimit)
}

// Gate 权益闸门：读取用户订阅与用量，本身不持有状态也不加锁
type Gate struct {
	users           repository.UserRepository
	monthlyLimit    int
	countableAction string
	now             func() time.Time
}

// NewGate 创建权益闸门
func NewGate(users repository.UserRepository, cfg *config.Config) *Gate {
	action := strings.ToLower(strings.TrimSpace(cfg.Entitlement.CountableAction))
	if action == "" {
		action = config.CountableGenerate
	}
	return &Gate{
		users:           users,
		monthlyLimit:    cfg.Entitlement.MonthlyLimit,
		countableAction: action,
		now:             time.Now,
	}
}

// MonthlyLimit 返回免费用户月度额度
func (g *Gate) MonthlyLimit() int {
	return g.monthlyLimit
}

// Counts 本次生成是否计入额度；wantsFile 表示请求了 pdf/html/png 文件
func (g *Gate) Counts(wantsFile bool) bool {
	if g.countableAction == config.CountableDownload {
		return wantsFile
	}
	return true
}

// IsPremium 判断用户是否享有订阅权益；查询失败时按非订阅处理
func (g *Gate) IsPremium(ctx context.Context, userID string) bool {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "subscription lookup failed, treating user as free",
			"user_id", userID,
			"error", err.Error(),
		)
		return false
	}
	return premiumAt(user, g.now().UTC())
}

func premiumAt(u *entity.User, now time.Time) bool {
	if u == nil {
		return false
	}
	inPeriod := u.CurrentPeriodEnd != nil && !now.After(u.CurrentPeriodEnd.UTC())
	switch u.SubscriptionStatus {
	case entity.SubscriptionPremium:
		return !u.CancelAtPeriodEnd || inPeriod
	case entity.SubscriptionCancelled:
		return inPeriod
	default:
		return false
	}
}

// CanGenerate 判断用户能否再生成 requested 份练习册。
// 订阅用户不受限；免费用户按当月已用次数判定，跨月自动视为 0。存储错误原样返回。
func (g *Gate) CanGenerate(ctx context.Context, userID string, requested int) (Decision, error) {
	if requested < 0 {
		requested = 0
	}
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return Decision{MonthlyLimit: g.monthlyLimit}, fmt.Errorf("load user %s: %w", userID, err)
	}

	now := g.now().UTC()
	current := user.UsageIn(int(now.Month()), now.Year())

	if premiumAt(user, now) {
		return Decision{
			Allowed:        true,
			CurrentCount:   current,
			RemainingCount: Unlimited,
			MonthlyLimit:   g.monthlyLimit,
			Premium:        true,
		}, nil
	}

	d := Decision{
		Allowed:        current+requested <= g.monthlyLimit,
		CurrentCount:   current,
		RemainingCount: max(0, g.monthlyLimit-current),
		MonthlyLimit:   g.monthlyLimit,
	}
	if !d.Allowed {
		metrics.EntitlementDenials.WithLabelValues(ReasonMonthlyLimit).Inc()
		logger.Info(ctx, "generation denied by monthly limit",
			"user_id", userID,
			"current", current,
			"requested", requested,
			"limit", g.monthlyLimit,
		)
	}
	return d, nil
}

// RecordGeneration 原子累加当月用量，跨月时重置
func (g *Gate) RecordGeneration(ctx context.Context, userID string, count int) error {
	if count <= 0 {
		return nil
	}
	now := g.now().UTC()
	if err := g.users.IncrementUsage(ctx, userID, count, int(now.Month()), now.Year()); err != nil {
		return fmt.Errorf("record generation for %s: %w", userID, err)
	}
	return nil
}

// CanDownload 仅订阅用户可下载文件
func (g *Gate) CanDownload(ctx context.Context, userID string) bool {
	ok := g.IsPremium(ctx, userID)
	if !ok {
		metrics.EntitlementDenials.WithLabelValues(ReasonNotPremium).Inc()
	}
	return ok
}
