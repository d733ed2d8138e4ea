package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/internal/domain/entity"
	"worksheet-ai-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client  *redis.Client
	maxLen  int64
	enabled bool
}

// NewProducer 创建消息生产者；未启用时所有发布调用直接返回
func NewProducer(client *redis.Client, cfg *config.Config) *Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client:  client,
		maxLen:  maxLen,
		enabled: cfg.Messaging.RedisStream.Enabled && client != nil,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(string(stream), "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(string(stream), "success").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishWorksheetGenerated 发布练习册生成完成事件
func (p *Producer) PublishWorksheetGenerated(ctx context.Context, event *entity.WorksheetGeneratedEvent) error {
	if !p.enabled {
		return nil
	}
	msg, err := NewWorksheetGeneratedMessage(event)
	if err != nil {
		return err
	}
	_, err = p.Publish(ctx, StreamWorksheetEvents, msg)
	return err
}

// NewWorksheetGeneratedMessage 将生成事件封装为流消息
func NewWorksheetGeneratedMessage(event *entity.WorksheetGeneratedEvent) (*Message, error) {
	msg, err := NewMessage(event.WorksheetID, entity.EventWorksheetGenerated, event.UserID, event)
	if err != nil {
		return nil, err
	}
	msg.SetMetadata("format", event.Format)
	msg.SetMetadata("counted", strconv.Itoa(event.Counted))
	return msg, nil
}
