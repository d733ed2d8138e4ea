// Package service 提供跨层共享的领域上下文
package service

import (
	"context"
	"strings"
)

const unknownLabel = "unknown"

type llmCallKey struct{}

// llmCall 一次模型调用的归属信息，用于指标与追踪标签
type llmCall struct {
	workflow string
	provider string
}

// WithWorkflowProvider 在 ctx 上标记本次调用所属流程与提供商；空值沿用已有标记
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	call, _ := ctx.Value(llmCallKey{}).(llmCall)
	if w := strings.TrimSpace(workflow); w != "" {
		call.workflow = w
	}
	if p := strings.TrimSpace(provider); p != "" {
		call.provider = p
	}
	return context.WithValue(ctx, llmCallKey{}, call)
}

// WorkflowFromContext 读取流程标记，缺省为 unknown
func WorkflowFromContext(ctx context.Context) string {
	return labelOr(callFrom(ctx).workflow)
}

// ProviderFromContext 读取提供商标记，缺省为 unknown
func ProviderFromContext(ctx context.Context) string {
	return labelOr(callFrom(ctx).provider)
}

func callFrom(ctx context.Context) llmCall {
	if ctx == nil {
		return llmCall{}
	}
	call, _ := ctx.Value(llmCallKey{}).(llmCall)
	return call
}

func labelOr(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}
