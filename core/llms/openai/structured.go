package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/tandemvoice/tandem-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
)

// ErrorAnalysis is a structured grading of one user utterance.
type ErrorAnalysis struct {
	HasErrors   bool            `json:"hasErrors" jsonschema:"title=Has Errors,description=Whether the utterance contains language errors"`
	Errors      []LanguageError `json:"errors" jsonschema:"title=Errors,description=The individual errors found"`
	Suggestions []string        `json:"suggestions" jsonschema:"title=Suggestions,description=Short suggestions for improvement"`
	Confidence  float64         `json:"confidence" jsonschema:"title=Confidence,description=Confidence of the analysis between 0 and 1"`
}

type LanguageError struct {
	Type        string `json:"type" jsonschema:"title=Type,description=The category of the error,enum=grammar,enum=vocabulary,enum=pronunciation,enum=fluency"`
	Incorrect   string `json:"incorrect" jsonschema:"title=Incorrect,description=The incorrect fragment as said"`
	Correct     string `json:"correct" jsonschema:"title=Correct,description=The corrected fragment"`
	Explanation string `json:"explanation" jsonschema:"title=Explanation,description=A one-sentence explanation of the error"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string            `json:"name"`
	Schema jsonschema.Schema `json:"schema"`
	Strict bool              `json:"strict"`
}

// AnalyzeErrors grades recognized user text against the practice language
// and returns a structured report.
func (c *Client) AnalyzeErrors(ctx context.Context, userText string, opts ...llms.PromptOption) (*ErrorAnalysis, error) {
	ctx, span := tracer.Start(ctx, "analyze errors")
	defer span.End()

	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(ErrorAnalysis{})
	schemaString, _ := schema.MarshalJSON()
	span.SetAttributes(attribute.String("request.schema", string(schemaString)))

	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: fmt.Sprintf(
			"You are a %s teacher. Analyze the user's utterance for language errors and answer using the provided schema.",
			languageName(options.LanguageCode),
		)},
		{Role: llms.RoleUser, Content: userText},
	}

	content, err := c.complete(ctx, messages, options, &responseFormat{
		Type: "json_schema",
		JSONSchema: &jsonSchema{
			Name:   "ErrorAnalysis",
			Schema: *schema,
			Strict: true,
		},
	})
	if err != nil {
		return nil, err
	}

	analysis := &ErrorAnalysis{}
	if err := json.Unmarshal([]byte(content), analysis); err != nil {
		return nil, fmt.Errorf("error unmarshalling analysis: %w", err)
	}

	return analysis, nil
}
