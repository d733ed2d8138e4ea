// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"worksheet-ai-api/internal/domain/entity"
)

// UserRepository 用户仓储实现
type UserRepository struct {
	client *Client
}

// NewUserRepository 创建用户仓储
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// Create 创建用户，已存在时忽略
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var user entity.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateSubscription 写入订阅状态（计费服务回调后调用），用户不存在时创建
func (r *UserRepository) UpdateSubscription(ctx context.Context, user *entity.User) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.UpdateSubscription")
	defer span.End()

	user.UpdatedAt = time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.UpdatedAt
	}

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subscription_status",
			"cancel_at_period_end",
			"current_period_end",
			"updated_at",
		}),
	}).Create(user).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// IncrementUsage 单条 upsert 完成按月累加，并发请求由数据库保证不丢更新
func (r *UserRepository) IncrementUsage(ctx context.Context, id string, delta, month, year int) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.IncrementUsage")
	defer span.End()

	now := time.Now()
	row := &entity.User{
		ID:                    id,
		SubscriptionStatus:    entity.SubscriptionFree,
		MonthlyGeneratedCount: delta,
		LastGenerationMonth:   month,
		LastGenerationYear:    year,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"monthly_generated_count": gorm.Expr(
				"CASE WHEN users.last_generation_month = ? AND users.last_generation_year = ? "+
					"THEN users.monthly_generated_count + ? ELSE ? END",
				month, year, delta, delta,
			),
			"last_generation_month": month,
			"last_generation_year":  year,
			"updated_at":            now,
		}),
	}).Create(row).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}
