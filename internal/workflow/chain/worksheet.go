package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "worksheet-ai-api/internal/domain/service"
	wfmodel "worksheet-ai-api/internal/workflow/model"
	wfnode "worksheet-ai-api/internal/workflow/node"
	workflowport "worksheet-ai-api/internal/workflow/port"
	workflowprompt "worksheet-ai-api/internal/workflow/prompt"
	"worksheet-ai-api/pkg/logger"
)

const worksheetWorkflow = "worksheet_generate"

// WorksheetChain 单篇练习册内容生成：模板 -> 模型 -> 原始文本
type WorksheetChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.WorksheetGenerateInput, *wfmodel.WorksheetGenerateOutput]
	chainErr  error
}

func NewWorksheetChain(factory workflowport.ChatModelFactory) *WorksheetChain {
	return &WorksheetChain{factory: factory}
}

// Generate 执行一次模型调用，返回未经解析的模型输出
func (c *WorksheetChain) Generate(ctx context.Context, in *wfmodel.WorksheetGenerateInput) (*wfmodel.WorksheetGenerateOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type worksheetChainState struct {
	In       *wfmodel.WorksheetGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *WorksheetChain) getChain() (compose.Runnable[*wfmodel.WorksheetGenerateInput, *wfmodel.WorksheetGenerateOutput], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *WorksheetChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.WorksheetGenerateInput, *wfmodel.WorksheetGenerateOutput], error) {
	chain := compose.NewChain[*wfmodel.WorksheetGenerateInput, *wfmodel.WorksheetGenerateOutput]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.WorksheetGenerateInput) (*worksheetChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.Prompt) == "" {
				return nil, fmt.Errorf("prompt is empty")
			}
			return &worksheetChainState{In: in}, nil
		}),
		compose.WithNodeName("worksheet.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *worksheetChainState) (*worksheetChainState, error) {
			msgs, err := formatWorksheetMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("worksheet.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *worksheetChainState) (*worksheetChainState, error) {
			provider := strings.TrimSpace(st.In.Provider)
			ctx = llmctx.WithWorkflowProvider(ctx, worksheetWorkflow, provider)
			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			useSchema := st.In.Schema != nil && c.factory.JSONSchemaEnabled(provider)
			outMsg, err := chatModel.Generate(ctx, st.Messages, buildWorksheetModelOptions(st.In, useSchema)...)
			if err != nil && useSchema && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", provider,
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildWorksheetModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("worksheet.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *worksheetChainState) (*wfmodel.WorksheetGenerateOutput, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return &wfmodel.WorksheetGenerateOutput{
				Raw:  st.OutMsg.Content,
				Meta: usageMeta(st.In, st.OutMsg),
			}, nil
		}),
		compose.WithNodeName("worksheet.finalize"),
	)

	return chain.Compile(ctx, compose.WithGraphName("worksheet_chain"))
}

var defaultPromptRegistry = workflowprompt.NewRegistry()

func formatWorksheetMessages(ctx context.Context, in *wfmodel.WorksheetGenerateInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptWorksheetV1)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, map[string]any{
		"instruction": strings.TrimSpace(in.Prompt),
	})
}

func buildWorksheetModelOptions(in *wfmodel.WorksheetGenerateInput, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}

	if enableSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "worksheet",
					"strict": false,
					"schema": in.Schema,
				},
			},
		}))
	}
	return opts
}

func usageMeta(in *wfmodel.WorksheetGenerateInput, msg *schema.Message) wfmodel.LLMUsageMeta {
	meta := wfmodel.LLMUsageMeta{
		Provider:    strings.TrimSpace(in.Provider),
		Model:       strings.TrimSpace(in.Model),
		GeneratedAt: time.Now().UTC(),
	}
	if in.Temperature != nil {
		meta.Temperature = float64(*in.Temperature)
	}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		meta.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}
	return meta
}
