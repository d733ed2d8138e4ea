package worksheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	wfmodel "worksheet-ai-api/internal/workflow/model"
	apperrors "worksheet-ai-api/pkg/errors"
	"worksheet-ai-api/pkg/logger"
	"worksheet-ai-api/pkg/metrics"
	"worksheet-ai-api/pkg/tracer"
)

// ContentProvider 内容生成端口：一次调用对应一篇练习册
type ContentProvider interface {
	Generate(ctx context.Context, in *wfmodel.WorksheetGenerateInput) (*wfmodel.WorksheetGenerateOutput, error)
}

// GenerateInput 批量生成参数
type GenerateInput struct {
	Topics       []string
	Kinds        []entity.ActivityKind
	Count        int
	ReadingLevel int
	WritingLevel int
	SeedWords    []string

	Provider string
	Model    string
}

// TopicAt 第 i 篇使用的主题，按请求顺序循环
func (in GenerateInput) TopicAt(i int) string {
	if len(in.Topics) == 0 {
		return ""
	}
	return in.Topics[i%len(in.Topics)]
}

// Generator 并行生成多篇练习册，结果按请求顺序返回
type Generator struct {
	provider    ContentProvider
	normalizer  *Normalizer
	maxParallel int
	timeout     time.Duration
}

// NewGenerator 创建生成器
func NewGenerator(provider ContentProvider, normalizer *Normalizer, cfg *config.Config) *Generator {
	return &Generator{
		provider:    provider,
		normalizer:  normalizer,
		maxParallel: cfg.Generation.MaxParallel,
		timeout:     cfg.Generation.Timeout,
	}
}

// Generate 生成 Count 篇文档；任一篇失败则整体失败，不返回部分结果
func (g *Generator) Generate(ctx context.Context, in GenerateInput) ([]entity.Document, error) {
	if in.Count <= 0 {
		return nil, fmt.Errorf("count must be positive")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "worksheet.generate")
	defer span.End()

	kinds := entity.OrderedKinds(in.Kinds)
	schema := ResponseSchema(kinds)
	docs := make([]entity.Document, in.Count)

	eg, egCtx := errgroup.WithContext(ctx)
	if g.maxParallel > 0 {
		eg.SetLimit(g.maxParallel)
	}
	for i := 0; i < in.Count; i++ {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			prompt := BuildPrompt(PromptInput{
				Topic:        in.TopicAt(i),
				ReadingLevel: in.ReadingLevel,
				WritingLevel: in.WritingLevel,
				Kinds:        kinds,
				SeedWords:    in.SeedWords,
			})
			out, err := g.provider.Generate(egCtx, &wfmodel.WorksheetGenerateInput{
				Prompt:   prompt,
				Schema:   schema,
				Provider: strings.TrimSpace(in.Provider),
				Model:    strings.TrimSpace(in.Model),
			})
			if err != nil {
				return fmt.Errorf("worksheet %d: %w", i+1, err)
			}
			if out == nil {
				return fmt.Errorf("worksheet %d: empty provider output", i+1)
			}
			docs[i] = g.normalizer.Normalize(egCtx, out.Raw, kinds).Document
			logger.Debug(egCtx, "worksheet content generated",
				"index", i,
				"prompt_tokens", out.Meta.PromptTokens,
				"completion_tokens", out.Meta.CompletionTokens,
			)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		tracer.RecordError(span, err)
		logger.Error(ctx, "worksheet generation failed", err, "count", in.Count)
		return nil, apperrors.GenerationFailed(err)
	}

	metrics.DocumentsGenerated.Add(float64(len(docs)))
	return docs, nil
}
