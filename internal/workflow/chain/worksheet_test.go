package chain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "worksheet-ai-api/internal/workflow/model"
)

type fakeChatModel struct {
	mu       sync.Mutex
	optCount []int
	inputs   [][]*schema.Message
	generate func(call int, opts []model.Option) (*schema.Message, error)
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	call := len(m.optCount)
	m.optCount = append(m.optCount, len(opts))
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()
	return m.generate(call, opts)
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type fakeFactory struct {
	model      model.BaseChatModel
	jsonSchema bool
	err        error
}

func (f *fakeFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	return f.model, f.err
}

func (f *fakeFactory) JSONSchemaEnabled(string) bool { return f.jsonSchema }

func reply(content string) *schema.Message {
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 11, CompletionTokens: 7},
		},
	}
}

func TestWorksheetChain_Generate(t *testing.T) {
	fm := &fakeChatModel{generate: func(int, []model.Option) (*schema.Message, error) {
		return reply(`{"title":"Cats"}`), nil
	}}
	c := NewWorksheetChain(&fakeFactory{model: fm, jsonSchema: true})

	out, err := c.Generate(context.Background(), &wfmodel.WorksheetGenerateInput{
		Prompt:   "Write about cats.",
		Schema:   map[string]any{"type": "object"},
		Provider: "openai",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Cats"}`, out.Raw)
	assert.Equal(t, 11, out.Meta.PromptTokens)
	assert.Equal(t, 7, out.Meta.CompletionTokens)
	assert.Equal(t, "openai", out.Meta.Provider)

	require.Len(t, fm.inputs, 1)
	require.Len(t, fm.inputs[0], 2)
	assert.Equal(t, schema.System, fm.inputs[0][0].Role)
	assert.Equal(t, "Write about cats.", fm.inputs[0][1].Content)
	assert.Equal(t, []int{1}, fm.optCount)
}

func TestWorksheetChain_FallsBackWhenSchemaRejected(t *testing.T) {
	fm := &fakeChatModel{generate: func(call int, _ []model.Option) (*schema.Message, error) {
		if call == 0 {
			return nil, errors.New("400: unknown parameter response_format")
		}
		return reply("{}"), nil
	}}
	c := NewWorksheetChain(&fakeFactory{model: fm, jsonSchema: true})

	out, err := c.Generate(context.Background(), &wfmodel.WorksheetGenerateInput{
		Prompt: "p",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", out.Raw)
	assert.Equal(t, []int{1, 0}, fm.optCount)
}

func TestWorksheetChain_SchemaDisabled(t *testing.T) {
	fm := &fakeChatModel{generate: func(int, []model.Option) (*schema.Message, error) {
		return reply("{}"), nil
	}}
	c := NewWorksheetChain(&fakeFactory{model: fm})

	_, err := c.Generate(context.Background(), &wfmodel.WorksheetGenerateInput{
		Prompt: "p",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, fm.optCount)
}

func TestWorksheetChain_Errors(t *testing.T) {
	boom := errors.New("upstream unavailable")
	fm := &fakeChatModel{generate: func(int, []model.Option) (*schema.Message, error) {
		return nil, boom
	}}
	c := NewWorksheetChain(&fakeFactory{model: fm, jsonSchema: true})

	_, err := c.Generate(context.Background(), &wfmodel.WorksheetGenerateInput{Prompt: "p", Schema: map[string]any{}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "upstream unavailable")
	assert.Equal(t, []int{1}, fm.optCount)

	_, err = c.Generate(context.Background(), &wfmodel.WorksheetGenerateInput{Prompt: "  "})
	assert.Error(t, err)

	_, err = c.Generate(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewWorksheetChain(nil).Generate(context.Background(), &wfmodel.WorksheetGenerateInput{Prompt: "p"})
	assert.Error(t, err)
}
