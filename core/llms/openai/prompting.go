package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jinzhu/copier"
	"github.com/tandemvoice/tandem-core/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	url = "https://api.openai.com/v1/chat/completions"

	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.7
	defaultMaxTokens   = 150
)

// Client is a completion client for the practice assistant, backed by the
// OpenAI chat completions API.
type Client struct {
	apiKey string
	model  string

	httpClient *http.Client
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Complete submits recognized user text together with the conversation so
// far and returns the assistant's reply in the practice language.
func (c *Client) Complete(ctx context.Context, userText string, opts ...llms.PromptOption) (string, error) {
	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	messages := []llms.Message{{Role: llms.RoleSystem, Content: tutoringPrompt(options.LanguageCode, userText)}}
	messages = append(messages, llms.Messages(options.PriorTurns)...)
	messages = append(messages, llms.Message{Role: llms.RoleUser, Content: userText})

	return c.complete(ctx, messages, options, nil)
}

// OpeningPrompt asks the assistant to open a new practice conversation.
func (c *Client) OpeningPrompt(ctx context.Context, opts ...llms.PromptOption) (string, error) {
	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: openingPromptInstructions(options.LanguageCode)},
		{Role: llms.RoleUser, Content: fmt.Sprintf("Start a conversation with me in %s", languageName(options.LanguageCode))},
	}

	return c.complete(ctx, messages, options, nil)
}

type requestBody struct {
	Model          string          `json:"model"`
	Messages       []llms.Message  `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type completionResponseBody struct {
	Choices []struct {
		Message      llms.Message `json:"message"`
		FinishReason string       `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, baseMessages []llms.Message, options llms.PromptOptions, format *responseFormat) (string, error) {
	ctx, span := tracer.Start(ctx, "generate completion")
	defer span.End()
	span.SetAttributes(attribute.String("completion.model", c.model))

	var messages []llms.Message
	if err := copier.Copy(&messages, &baseMessages); err != nil {
		return "", fmt.Errorf("error preparing request messages: %w", err)
	}

	reqBody := requestBody{
		Model:          c.model,
		Messages:       messages,
		Temperature:    defaultTemperature,
		MaxTokens:      defaultMaxTokens,
		ResponseFormat: format,
	}
	if options.Temperature != nil {
		reqBody.Temperature = *options.Temperature
	}
	if options.MaxTokens != nil {
		reqBody.MaxTokens = *options.MaxTokens
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var responseBody completionResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return responseBody.Choices[0].Message.Content, nil
}
