package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/pkg/metrics"
)

const defaultPreviewTTL = 24 * time.Hour

// WorksheetCache 练习册记录的读穿缓存，singleflight 合并同一记录的并发回源
type WorksheetCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewWorksheetCache 创建练习册缓存
func NewWorksheetCache(client *Client, cfg *config.Config) *WorksheetCache {
	ttl := cfg.Cache.Redis.PreviewTTL
	if ttl <= 0 {
		ttl = defaultPreviewTTL
	}
	return &WorksheetCache{client: client, ttl: ttl}
}

// WorksheetKey 记录缓存键
func WorksheetKey(id string) string {
	return "worksheet:" + id
}

// Put 写入缓存
func (c *WorksheetCache) Put(ctx context.Context, rec *entity.WorksheetRecord) error {
	ctx, span := tracer.Start(ctx, "cache.Put",
		trace.WithAttributes(
			attribute.String("cache.key", WorksheetKey(rec.ID)),
			attribute.Int64("cache.ttl_ms", c.ttl.Milliseconds()),
		))
	defer span.End()

	data, err := json.Marshal(rec)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal worksheet: %w", err)
	}
	if err := c.client.rdb.Set(ctx, WorksheetKey(rec.ID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// GetOrLoad 先查缓存，未命中时回源并回填；缓存故障时直接回源
func (c *WorksheetCache) GetOrLoad(ctx context.Context, id string, load func(ctx context.Context) (*entity.WorksheetRecord, error)) (*entity.WorksheetRecord, error) {
	key := WorksheetKey(id)
	ctx, span := tracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if rec, ok := c.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return rec, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, shared := c.group.Do(key, func() (any, error) {
		// 再次检查缓存（可能已被其他请求填充）
		if rec, ok := c.lookup(ctx, key); ok {
			return rec, nil
		}
		rec, err := load(ctx)
		if err != nil || rec == nil {
			return rec, err
		}
		if err := c.Put(ctx, rec); err != nil {
			// 回填失败不影响返回结果
			span.RecordError(err)
		}
		return rec, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	rec, _ := v.(*entity.WorksheetRecord)
	return rec, nil
}

func (c *WorksheetCache) lookup(ctx context.Context, key string) (*entity.WorksheetRecord, bool) {
	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if IsNil(err) {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("error").Inc()
		}
		return nil, false
	}
	var rec entity.WorksheetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &rec, true
}
