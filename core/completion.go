package turntaking

import (
	"context"
	"errors"

	"github.com/tandemvoice/tandem-core/core/llms"
)

var errNoCompletionClient = errors.New("no completion client configured")

// completion is the facade over the configured assistant backend.
type completion struct {
	client CompletionClient
}

func newCompletion(client CompletionClient) *completion {
	return &completion{client: client}
}

func (c *completion) set(client CompletionClient) {
	if c != nil {
		c.client = client
	}
}

func (c *completion) isConfigured() bool {
	return c != nil && c.client != nil
}

func (c *completion) Complete(ctx context.Context, userText string, languageCode string, priorTurns []llms.Turn) (string, error) {
	if !c.isConfigured() {
		return "", errNoCompletionClient
	}

	return c.client.Complete(ctx, userText,
		llms.WithLanguageCode(languageCode),
		llms.WithPriorTurns(priorTurns),
	)
}
