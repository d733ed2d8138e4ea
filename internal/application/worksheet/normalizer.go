package worksheet

import (
	"context"
	"strings"
	"sync"

	"worksheet-ai-api/internal/domain/entity"
	wfnode "worksheet-ai-api/internal/workflow/node"
	"worksheet-ai-api/pkg/logger"
	"worksheet-ai-api/pkg/metrics"
)

const rawSnippetRunes = 300

// Normalizer 带日志、指标与 schema 诊断的规范化器；schema 按活动组合缓存
type Normalizer struct {
	validators sync.Map // key: 活动组合 -> *SchemaValidator
}

// NewNormalizer 创建规范化器
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize 规范化模型输出，永不失败
func (n *Normalizer) Normalize(ctx context.Context, raw string, kinds []entity.ActivityKind) NormalizeResult {
	res := Normalize(raw, kinds)
	metrics.NormalizeTotal.WithLabelValues(string(res.Path)).Inc()

	switch res.Path {
	case PathLegacy:
		logger.Warn(ctx, "llm response is not json, parsed legacy markers",
			"raw", wfnode.TruncateByRunes(raw, rawSnippetRunes),
		)
	case PathPlaceholder:
		logger.Warn(ctx, "llm response could not be parsed, using placeholder document",
			"raw", wfnode.TruncateByRunes(raw, rawSnippetRunes),
		)
		return res
	}

	if v := n.validator(ctx, kinds); v != nil {
		res.SchemaErrors = v.Validate(res.Canonical)
		if len(res.SchemaErrors) > 0 {
			logger.Debug(ctx, "llm response deviates from schema, repaired",
				"path", string(res.Path),
				"violations", res.SchemaErrors,
			)
		}
	}
	return res
}

func (n *Normalizer) validator(ctx context.Context, kinds []entity.ActivityKind) *SchemaValidator {
	key := strings.Join(entity.KindStrings(kinds), ",")
	if v, ok := n.validators.Load(key); ok {
		return v.(*SchemaValidator)
	}
	v, err := NewSchemaValidator(kinds)
	if err != nil {
		logger.Error(ctx, "failed to compile response schema", err, "kinds", key)
		return nil
	}
	actual, _ := n.validators.LoadOrStore(key, v)
	return actual.(*SchemaValidator)
}
