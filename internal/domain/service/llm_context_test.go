package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithWorkflowProvider(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", WorkflowFromContext(ctx))
	assert.Equal(t, "unknown", ProviderFromContext(ctx))

	ctx = WithWorkflowProvider(ctx, " worksheet_generate ", "openai")
	assert.Equal(t, "worksheet_generate", WorkflowFromContext(ctx))
	assert.Equal(t, "openai", ProviderFromContext(ctx))

	// 空值不覆盖已有标记
	ctx = WithWorkflowProvider(ctx, "", "local")
	assert.Equal(t, "worksheet_generate", WorkflowFromContext(ctx))
	assert.Equal(t, "local", ProviderFromContext(ctx))
}
