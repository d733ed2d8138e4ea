package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksheet-ai-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{LLM: config.LLMConfig{
		DefaultProvider: "openai",
		Providers: map[string]config.ProviderConfig{
			"openai": {APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1", Model: "gpt-4o-mini", JSONSchema: true},
			"local":  {BaseURL: "http://127.0.0.1:1/v1", Model: "llama"},
		},
	}}
}

func TestEinoFactory_GetCachesModels(t *testing.T) {
	f := NewEinoFactory(testConfig())

	m1, err := f.Get(context.Background(), "")
	require.NoError(t, err)
	m2, err := f.Get(context.Background(), "openai")
	require.NoError(t, err)
	assert.Same(t, m1, m2)
}

func TestEinoFactory_Errors(t *testing.T) {
	f := NewEinoFactory(testConfig())

	_, err := f.Get(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")

	_, err = f.Get(context.Background(), "local")
	assert.ErrorContains(t, err, "no api key")
}

func TestEinoFactory_JSONSchemaEnabled(t *testing.T) {
	f := NewEinoFactory(testConfig())

	assert.True(t, f.JSONSchemaEnabled(""))
	assert.True(t, f.JSONSchemaEnabled(" openai "))
	assert.False(t, f.JSONSchemaEnabled("local"))
	assert.False(t, f.JSONSchemaEnabled("missing"))
	assert.Equal(t, "llama", f.ModelName("local"))
}
