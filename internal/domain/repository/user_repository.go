// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"worksheet-ai-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户（已存在时忽略）
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// UpdateSubscription 更新订阅状态
	UpdateSubscription(ctx context.Context, user *entity.User) error

	// IncrementUsage 原子地累加当月生成次数：年月一致时累加，否则重置为 delta 并写入新年月；
	// 用户不存在时以 delta 创建记录
	IncrementUsage(ctx context.Context, id string, delta, month, year int) error
}
