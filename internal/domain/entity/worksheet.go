package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// WorksheetRecord 一次成功生成的练习册记录
type WorksheetRecord struct {
	ID            string         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        string         `json:"user_id" gorm:"type:varchar(64);not null;index:idx_worksheets_user_created,priority:1"`
	Topics        pq.StringArray `json:"topics" gorm:"type:text[]"`
	Activities    pq.StringArray `json:"activities" gorm:"type:text[]"`
	ReadingLevel  int            `json:"reading_level"`
	WritingLevel  int            `json:"writing_level"`
	DocumentCount int            `json:"document_count"`
	Documents     datatypes.JSON `json:"documents"`
	Provider      string         `json:"provider,omitempty" gorm:"type:varchar(64)"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index:idx_worksheets_user_created,priority:2,sort:desc"`
}

// TableName 表名
func (WorksheetRecord) TableName() string {
	return "worksheets"
}

// NewWorksheetRecord 创建记录并序列化文档
func NewWorksheetRecord(id, userID string, topics []string, kinds []ActivityKind, readingLevel, writingLevel int, docs []Document) (*WorksheetRecord, error) {
	r := &WorksheetRecord{
		ID:           id,
		UserID:       userID,
		Topics:       pq.StringArray(topics),
		Activities:   pq.StringArray(KindStrings(kinds)),
		ReadingLevel: readingLevel,
		WritingLevel: writingLevel,
		CreatedAt:    time.Now(),
	}
	if err := r.SetDocuments(docs); err != nil {
		return nil, err
	}
	return r, nil
}

// SetDocuments 序列化文档列表
func (r *WorksheetRecord) SetDocuments(docs []Document) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	r.Documents = datatypes.JSON(raw)
	r.DocumentCount = len(docs)
	return nil
}

// DecodeDocuments 反序列化文档列表
func (r *WorksheetRecord) DecodeDocuments() ([]Document, error) {
	if len(r.Documents) == 0 {
		return nil, nil
	}
	var docs []Document
	if err := json.Unmarshal(r.Documents, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	return docs, nil
}

// Kinds 返回生成时请求的活动类型，忽略无法识别的历史值
func (r *WorksheetRecord) Kinds() []ActivityKind {
	out := make([]ActivityKind, 0, len(r.Activities))
	for _, s := range r.Activities {
		if k, err := ParseActivityKind(s); err == nil {
			out = append(out, k)
		}
	}
	return out
}
