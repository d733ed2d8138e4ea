package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/domain/repository"
)

// WorksheetRepository 练习册记录仓储实现
type WorksheetRepository struct {
	client *Client
}

// NewWorksheetRepository 创建练习册记录仓储
func NewWorksheetRepository(client *Client) *WorksheetRepository {
	return &WorksheetRepository{client: client}
}

// Create 保存生成记录
func (r *WorksheetRepository) Create(ctx context.Context, record *entity.WorksheetRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create worksheet: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取记录
func (r *WorksheetRepository) GetByID(ctx context.Context, id string) (*entity.WorksheetRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rec entity.WorksheetRecord
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get worksheet: %w", err)
	}
	return &rec, nil
}

// ListByUser 按创建时间倒序分页列出；列表不加载文档正文
func (r *WorksheetRepository) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.WorksheetRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.WorksheetRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.WorksheetRecord{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count worksheets: %w", err)
	}

	var items []*entity.WorksheetRecord
	if err := query.
		Omit("documents").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}

	return repository.NewPagedResult(items, total, pagination), nil
}
