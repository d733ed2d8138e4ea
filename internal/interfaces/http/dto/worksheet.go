package dto

import (
	"time"

	"worksheet-ai-api/internal/application/worksheet"
	"worksheet-ai-api/internal/domain/entity"
)

// GenerateWorksheetRequest 生成练习册请求
type GenerateWorksheetRequest struct {
	Topics       []string `json:"topics"`
	Activities   []string `json:"activities"`
	Count        int      `json:"count"`
	ReadingLevel int      `json:"reading_level"`
	WritingLevel int      `json:"writing_level"`
	SeedWords    []string `json:"seed_words,omitempty"`
	// Format preview（默认）或 pdf/html/png
	Format   string `json:"format,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ToServiceRequest 转换为服务层请求；活动名称非法时返回错误
func (r *GenerateWorksheetRequest) ToServiceRequest(userID string) (worksheet.Request, error) {
	kinds, err := entity.ParseActivityKinds(r.Activities)
	if err != nil {
		return worksheet.Request{}, err
	}
	return worksheet.Request{
		UserID:       userID,
		Topics:       r.Topics,
		Activities:   kinds,
		Count:        r.Count,
		ReadingLevel: r.ReadingLevel,
		WritingLevel: r.WritingLevel,
		SeedWords:    r.SeedWords,
		Format:       r.Format,
		Provider:     r.Provider,
		Model:        r.Model,
	}, nil
}

// UsageResponse 额度用量
type UsageResponse struct {
	IsPremium      bool `json:"is_premium"`
	CurrentCount   int  `json:"current_count"`
	RemainingCount int  `json:"remaining_count"`
	MonthlyLimit   int  `json:"monthly_limit"`
}

// WorksheetPreviewResponse 预览响应
type WorksheetPreviewResponse struct {
	WorksheetID string            `json:"worksheet_id"`
	Documents   []entity.Document `json:"documents"`
	PageCount   int               `json:"page_count"`
	Usage       *UsageResponse    `json:"usage,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

// ToWorksheetPreviewResponse 由生成结果构造预览响应
func ToWorksheetPreviewResponse(res *worksheet.Result) *WorksheetPreviewResponse {
	return &WorksheetPreviewResponse{
		WorksheetID: res.Record.ID,
		Documents:   res.Documents,
		PageCount:   res.PageCount,
		Usage: &UsageResponse{
			IsPremium:      res.Usage.Premium,
			CurrentCount:   res.Usage.CurrentCount,
			RemainingCount: res.Usage.RemainingCount,
			MonthlyLimit:   res.Usage.MonthlyLimit,
		},
		CreatedAt: res.Record.CreatedAt.Format(time.RFC3339),
	}
}

// ToStoredWorksheetResponse 由历史记录构造预览响应
func ToStoredWorksheetResponse(rec *entity.WorksheetRecord, docs []entity.Document) *WorksheetPreviewResponse {
	return &WorksheetPreviewResponse{
		WorksheetID: rec.ID,
		Documents:   docs,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
}

// WorksheetSummaryResponse 历史列表项
type WorksheetSummaryResponse struct {
	ID            string   `json:"id"`
	Topics        []string `json:"topics"`
	Activities    []string `json:"activities"`
	ReadingLevel  int      `json:"reading_level"`
	WritingLevel  int      `json:"writing_level"`
	DocumentCount int      `json:"document_count"`
	CreatedAt     string   `json:"created_at"`
}

// WorksheetListResponse 历史列表响应
type WorksheetListResponse struct {
	Worksheets []*WorksheetSummaryResponse `json:"worksheets"`
}

// ToWorksheetListResponse 转换历史列表
func ToWorksheetListResponse(records []*entity.WorksheetRecord) *WorksheetListResponse {
	items := make([]*WorksheetSummaryResponse, 0, len(records))
	for _, r := range records {
		items = append(items, &WorksheetSummaryResponse{
			ID:            r.ID,
			Topics:        []string(r.Topics),
			Activities:    []string(r.Activities),
			ReadingLevel:  r.ReadingLevel,
			WritingLevel:  r.WritingLevel,
			DocumentCount: r.DocumentCount,
			CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		})
	}
	return &WorksheetListResponse{Worksheets: items}
}

// EntitlementResponse 权益概览
type EntitlementResponse struct {
	IsPremium      bool `json:"is_premium"`
	CanDownload    bool `json:"can_download"`
	CurrentCount   int  `json:"current_count"`
	RemainingCount int  `json:"remaining_count"`
	MonthlyLimit   int  `json:"monthly_limit"`
}

// ToEntitlementResponse 转换权益概览
func ToEntitlementResponse(s *worksheet.EntitlementSummary) *EntitlementResponse {
	return &EntitlementResponse{
		IsPremium:      s.Premium,
		CanDownload:    s.CanDownload,
		CurrentCount:   s.CurrentCount,
		RemainingCount: s.RemainingCount,
		MonthlyLimit:   s.MonthlyLimit,
	}
}
