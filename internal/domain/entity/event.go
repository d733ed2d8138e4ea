package entity

import (
	"time"
)

// EventWorksheetGenerated 练习册生成完成事件类型
const EventWorksheetGenerated = "worksheet.generated"

// WorksheetGeneratedEvent 生成完成后发布的领域事件，供下游统计与归档使用
type WorksheetGeneratedEvent struct {
	WorksheetID   string    `json:"worksheet_id"`
	UserID        string    `json:"user_id"`
	Topics        []string  `json:"topics"`
	Activities    []string  `json:"activities"`
	DocumentCount int       `json:"document_count"`
	Format        string    `json:"format"`
	Counted       int       `json:"counted"`
	Premium       bool      `json:"is_premium"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewWorksheetGeneratedEvent 由生成记录构造事件
func NewWorksheetGeneratedEvent(r *WorksheetRecord, format string, counted int, premium bool) *WorksheetGeneratedEvent {
	return &WorksheetGeneratedEvent{
		WorksheetID:   r.ID,
		UserID:        r.UserID,
		Topics:        []string(r.Topics),
		Activities:    []string(r.Activities),
		DocumentCount: r.DocumentCount,
		Format:        format,
		Counted:       counted,
		Premium:       premium,
		CreatedAt:     r.CreatedAt,
	}
}
