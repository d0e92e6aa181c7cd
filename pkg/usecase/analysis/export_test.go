package analysis

var (
	BuildPromptForTest  = buildPrompt
	SystemPromptForTest = systemPrompt
)
