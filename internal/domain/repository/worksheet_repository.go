package repository

import (
	"context"

	"worksheet-ai-api/internal/domain/entity"
)

// WorksheetRepository 练习册记录仓储接口
type WorksheetRepository interface {
	// Create 保存生成记录
	Create(ctx context.Context, record *entity.WorksheetRecord) error

	// GetByID 根据 ID 获取记录，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.WorksheetRecord, error)

	// ListByUser 按创建时间倒序分页列出用户的记录
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.WorksheetRecord], error)
}
