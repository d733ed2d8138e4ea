package worksheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"worksheet-ai-api/internal/application/entitlement"
	"worksheet-ai-api/internal/application/layout"
	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/internal/domain/repository"
	"worksheet-ai-api/internal/infrastructure/render"
	apperrors "worksheet-ai-api/pkg/errors"
	"worksheet-ai-api/pkg/logger"
	"worksheet-ai-api/pkg/metrics"
	"worksheet-ai-api/pkg/tracer"
)

// FormatPreview 只返回结构化预览，不生成文件
const FormatPreview = "preview"

// RecordCache 练习册记录缓存
type RecordCache interface {
	Put(ctx context.Context, rec *entity.WorksheetRecord) error
	// GetOrLoad 读穿缓存；load 返回 nil 表示记录不存在
	GetOrLoad(ctx context.Context, id string, load func(ctx context.Context) (*entity.WorksheetRecord, error)) (*entity.WorksheetRecord, error)
}

// EventPublisher 领域事件发布
type EventPublisher interface {
	PublishWorksheetGenerated(ctx context.Context, evt *entity.WorksheetGeneratedEvent) error
}

// Request 一次生成请求
type Request struct {
	UserID       string
	Topics       []string
	Activities   []entity.ActivityKind
	Count        int
	ReadingLevel int
	WritingLevel int
	SeedWords    []string
	// Format preview 或渲染格式（pdf/html/png）
	Format   string
	Provider string
	Model    string
}

// File 渲染后的文件
type File struct {
	Format      render.Format
	ContentType string
	Filename    string
	Data        []byte
}

// Result 生成结果
type Result struct {
	Record    *entity.WorksheetRecord
	Documents []entity.Document
	PageCount int
	Usage     entitlement.Decision
	// File 仅在请求文件格式时非空
	File *File
}

// EntitlementSummary 当前用户的权益概览
type EntitlementSummary struct {
	entitlement.Decision
	CanDownload bool `json:"can_download"`
}

// Service 练习册生成编排：权益校验 -> 生成 -> 分页 -> 渲染 -> 持久化与计数
type Service struct {
	gate       *entitlement.Gate
	generator  *Generator
	paginator  *layout.Paginator
	renderers  *render.Registry
	worksheets repository.WorksheetRepository
	tx         repository.Transactor
	cache      RecordCache
	publisher  EventPublisher
	cfg        *config.Config
}

// NewService 创建服务；cache 与 publisher 可为 nil
func NewService(
	gate *entitlement.Gate,
	generator *Generator,
	renderers *render.Registry,
	worksheets repository.WorksheetRepository,
	tx repository.Transactor,
	cache RecordCache,
	publisher EventPublisher,
	cfg *config.Config,
) *Service {
	return &Service{
		gate:       gate,
		generator:  generator,
		paginator:  layout.NewPaginator(cfg.Render.DrawingAreaHeight),
		renderers:  renderers,
		worksheets: worksheets,
		tx:         tx,
		cache:      cache,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Generate 执行完整生成流程。持久化之前的任何失败都不会产生文件，也不会计数。
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "worksheet.service.generate")
	defer span.End()

	res, err := s.generate(ctx, req)
	status := "success"
	if err != nil {
		tracer.RecordError(span, err)
		status = "failed"
		if apperrors.IsCode(err, apperrors.CodeUpgradeRequired) {
			status = "denied"
		}
	}
	metrics.GenerationTotal.WithLabelValues(status).Inc()
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	return res, err
}

func (s *Service) generate(ctx context.Context, req Request) (*Result, error) {
	req, format, err := s.normalizeRequest(req)
	if err != nil {
		return nil, err
	}
	wantsFile := format != FormatPreview
	ctx = logger.WithContext(ctx, logger.UserIDKey, req.UserID)

	counted := 0
	if s.gate.Counts(wantsFile) {
		counted = req.Count
	}
	decision, err := s.gate.CanGenerate(ctx, req.UserID, counted)
	if err != nil {
		return nil, apperrors.StoreFailed(err)
	}
	if !decision.Allowed {
		return nil, upgradeRequired("monthly worksheet limit reached, upgrade to continue", entitlement.ReasonMonthlyLimit, decision)
	}
	if wantsFile && !s.gate.CanDownload(ctx, req.UserID) {
		return nil, upgradeRequired("downloading worksheets requires a premium subscription", entitlement.ReasonNotPremium, decision)
	}

	docs, err := s.generator.Generate(ctx, GenerateInput{
		Topics:       req.Topics,
		Kinds:        req.Activities,
		Count:        req.Count,
		ReadingLevel: req.ReadingLevel,
		WritingLevel: req.WritingLevel,
		SeedWords:    req.SeedWords,
		Provider:     req.Provider,
		Model:        req.Model,
	})
	if err != nil {
		return nil, err
	}

	pages := s.paginator.Paginate(layout.Number(docs), req.Activities)

	rec, err := entity.NewWorksheetRecord(uuid.NewString(), req.UserID, req.Topics, req.Activities,
		req.ReadingLevel, req.WritingLevel, docs)
	if err != nil {
		return nil, apperrors.StoreFailed(err)
	}
	rec.Provider = req.Provider
	ctx = logger.WithContext(ctx, logger.WorksheetIDKey, rec.ID)

	var file *File
	if wantsFile {
		file, err = s.renderFile(ctx, render.Format(format), rec.ID, pages)
		if err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.worksheets.Create(ctx, rec); err != nil {
			return err
		}
		return s.gate.RecordGeneration(ctx, req.UserID, counted)
	})
	if err != nil {
		logger.Error(ctx, "failed to persist worksheet", err)
		return nil, apperrors.StoreFailed(err)
	}

	s.afterCommit(ctx, rec, format, counted, decision.Premium)

	usage := decision
	usage.CurrentCount += counted
	if !usage.Premium {
		usage.RemainingCount = max(0, usage.MonthlyLimit-usage.CurrentCount)
	}

	logger.Info(ctx, "worksheet generated",
		"documents", len(docs),
		"pages", len(pages),
		"format", format,
		"counted", counted,
	)
	return &Result{
		Record:    rec,
		Documents: docs,
		PageCount: len(pages),
		Usage:     usage,
		File:      file,
	}, nil
}

// afterCommit 缓存与事件发布均为尽力而为，失败只记录日志
func (s *Service) afterCommit(ctx context.Context, rec *entity.WorksheetRecord, format string, counted int, premium bool) {
	if s.cache != nil {
		if err := s.cache.Put(ctx, rec); err != nil {
			logger.Warn(ctx, "failed to cache worksheet", "error", err.Error())
		}
	}
	if s.publisher != nil {
		evt := entity.NewWorksheetGeneratedEvent(rec, format, counted, premium)
		if err := s.publisher.PublishWorksheetGenerated(ctx, evt); err != nil {
			logger.Warn(ctx, "failed to publish worksheet event", "error", err.Error())
		}
	}
}

// Download 重新渲染已保存的练习册，不计入额度
func (s *Service) Download(ctx context.Context, userID, worksheetID, format string) (*File, error) {
	if strings.TrimSpace(format) == "" {
		format = s.cfg.Render.DefaultFormat
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, err.Error())
	}
	if !s.gate.CanDownload(ctx, userID) {
		decision, _ := s.gate.CanGenerate(ctx, userID, 0)
		return nil, upgradeRequired("downloading worksheets requires a premium subscription", entitlement.ReasonNotPremium, decision)
	}

	rec, docs, err := s.Get(ctx, userID, worksheetID)
	if err != nil {
		return nil, err
	}
	pages := s.paginator.Paginate(layout.Number(docs), rec.Kinds())
	return s.renderFile(ctx, f, rec.ID, pages)
}

// Get 读取用户自己的练习册记录（缓存优先）
func (s *Service) Get(ctx context.Context, userID, worksheetID string) (*entity.WorksheetRecord, []entity.Document, error) {
	rec, err := s.loadRecord(ctx, worksheetID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load worksheet")
	}
	if rec == nil || rec.UserID != userID {
		return nil, nil, apperrors.New(apperrors.CodeWorksheetNotFound, "worksheet not found")
	}
	docs, err := rec.DecodeDocuments()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInternalError, "stored worksheet is corrupted")
	}
	return rec, docs, nil
}

func (s *Service) loadRecord(ctx context.Context, id string) (*entity.WorksheetRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	if s.cache == nil {
		return s.worksheets.GetByID(ctx, id)
	}
	return s.cache.GetOrLoad(ctx, id, func(ctx context.Context) (*entity.WorksheetRecord, error) {
		return s.worksheets.GetByID(ctx, id)
	})
}

// List 分页列出历史记录
func (s *Service) List(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.WorksheetRecord], error) {
	out, err := s.worksheets.ListByUser(ctx, userID, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list worksheets")
	}
	return out, nil
}

// Entitlement 返回当前额度与下载权限
func (s *Service) Entitlement(ctx context.Context, userID string) (*EntitlementSummary, error) {
	d, err := s.gate.CanGenerate(ctx, userID, 0)
	if err != nil {
		return nil, apperrors.StoreFailed(err)
	}
	return &EntitlementSummary{Decision: d, CanDownload: d.Premium}, nil
}

func (s *Service) renderFile(ctx context.Context, f render.Format, id string, pages []layout.Page) (*File, error) {
	data, rd, err := s.renderers.Render(ctx, f, pages)
	if err != nil {
		logger.Error(ctx, "failed to render worksheet", err, "format", string(f))
		return nil, apperrors.RenderFailed(err)
	}
	return &File{
		Format:      f,
		ContentType: rd.ContentType(),
		Filename:    "worksheet-" + shortID(id) + rd.Extension(),
		Data:        data,
	}, nil
}

// normalizeRequest 校验并规整请求参数，返回规范化后的格式名
func (s *Service) normalizeRequest(req Request) (Request, string, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return req, "", apperrors.New(apperrors.CodeUnauthorized, "missing user")
	}

	req.Topics = lo.Filter(lo.Map(req.Topics, func(t string, _ int) string { return strings.TrimSpace(t) }),
		func(t string, _ int) bool { return t != "" })
	if len(req.Topics) == 0 {
		return req, "", invalidParam("at least one topic is required")
	}
	if limit := s.cfg.Generation.MaxTopics; limit > 0 && len(req.Topics) > limit {
		return req, "", invalidParam(fmt.Sprintf("at most %d topics are allowed", limit))
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 || req.Count > s.cfg.Generation.MaxCount {
		return req, "", invalidParam(fmt.Sprintf("count must be between 1 and %d", s.cfg.Generation.MaxCount))
	}
	if limit := s.cfg.Generation.MaxSeedWords; limit > 0 && len(req.SeedWords) > limit {
		return req, "", invalidParam(fmt.Sprintf("at most %d seed words are allowed", limit))
	}
	req.Activities = entity.OrderedKinds(req.Activities)
	req.ReadingLevel = ClampLevel(req.ReadingLevel)
	req.WritingLevel = ClampLevel(req.WritingLevel)

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" || format == FormatPreview {
		return req, FormatPreview, nil
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return req, "", invalidParam(err.Error())
	}
	return req, string(f), nil
}

func invalidParam(msg string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidParam, msg)
}

func upgradeRequired(msg, reason string, d entitlement.Decision) *apperrors.AppError {
	return apperrors.UpgradeRequired(msg).
		WithDetail(reason).
		WithMeta("current_count", d.CurrentCount).
		WithMeta("remaining_count", d.RemainingCount).
		WithMeta("monthly_limit", d.MonthlyLimit).
		WithMeta("is_premium", d.Premium)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
