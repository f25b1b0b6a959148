package llms

type PromptOptions struct {
	// LanguageCode selects the practice language the assistant should
	// respond in.
	LanguageCode string
	// PriorTurns is the conversation so far, oldest first.
	PriorTurns []Turn

	Temperature *float64
	MaxTokens   *int
}

type PromptOption func(*PromptOptions)

func WithLanguageCode(languageCode string) PromptOption {
	return func(o *PromptOptions) {
		o.LanguageCode = languageCode
	}
}

func WithPriorTurns(turns []Turn) PromptOption {
	return func(o *PromptOptions) {
		o.PriorTurns = turns
	}
}

func WithTemperature(temperature float64) PromptOption {
	return func(o *PromptOptions) {
		o.Temperature = &temperature
	}
}

func WithMaxTokens(maxTokens int) PromptOption {
	return func(o *PromptOptions) {
		o.MaxTokens = &maxTokens
	}
}
