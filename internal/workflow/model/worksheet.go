package model

// WorksheetGenerateInput 单篇练习册的模型调用输入
type WorksheetGenerateInput struct {
	// Prompt 由 Prompt Builder 生成的完整指令
	Prompt string
	// Schema 响应 JSON Schema；为空时不下发 response_format
	Schema map[string]any

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// WorksheetGenerateOutput 模型原始输出与用量
type WorksheetGenerateOutput struct {
	Raw  string
	Meta LLMUsageMeta
}
