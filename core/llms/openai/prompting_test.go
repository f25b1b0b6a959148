package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/tandemvoice/tandem-core/core/llms"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {"application/json"}},
	}
}

func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return string(body)
}

func newCapturingClient(t *testing.T, response string, captured *requestBody) *Client {
	t.Helper()

	client := NewClient("test-key")
	client.httpClient = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if auth := req.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", auth)
		}

		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, captured); err != nil {
			return nil, fmt.Errorf("request body was not valid JSON: %w", err)
		}

		return jsonResponse(http.StatusOK, response), nil
	})}
	return client
}

func TestCompleteBuildsTutoringConversation(t *testing.T) {
	captured := &requestBody{}
	client := newCapturingClient(t, completionResponse("¡Muy bien!"), captured)

	priorTurns := []llms.Turn{
		{UserText: "hola", AssistantText: "¡Hola! ¿Cómo estás?"},
	}

	response, err := client.Complete(context.Background(), "estoy bien",
		llms.WithLanguageCode("es"),
		llms.WithPriorTurns(priorTurns),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response != "¡Muy bien!" {
		t.Fatalf("expected the assistant reply, got %q", response)
	}

	if captured.Model != defaultModel {
		t.Fatalf("expected default model, got %q", captured.Model)
	}
	if captured.Temperature != defaultTemperature || captured.MaxTokens != defaultMaxTokens {
		t.Fatalf("expected default sampling parameters, got temperature=%v maxTokens=%v", captured.Temperature, captured.MaxTokens)
	}

	if len(captured.Messages) != 4 {
		t.Fatalf("expected system + 2 prior + user messages, got %d", len(captured.Messages))
	}

	system := captured.Messages[0]
	if system.Role != llms.RoleSystem {
		t.Fatalf("expected the first message to be the system prompt, got role %q", system.Role)
	}
	if !strings.Contains(system.Content, "Spanish") {
		t.Fatalf("expected the practice language in the system prompt: %q", system.Content)
	}
	if !strings.Contains(system.Content, "Respond ONLY in Spanish") {
		t.Fatalf("expected the teaching guidelines in the system prompt: %q", system.Content)
	}

	if captured.Messages[1].Role != llms.RoleUser || captured.Messages[1].Content != "hola" {
		t.Fatalf("expected prior user message, got %+v", captured.Messages[1])
	}
	if captured.Messages[2].Role != llms.RoleAssistant {
		t.Fatalf("expected prior assistant message, got %+v", captured.Messages[2])
	}

	last := captured.Messages[len(captured.Messages)-1]
	if last.Role != llms.RoleUser || last.Content != "estoy bien" {
		t.Fatalf("expected the new user text last, got %+v", last)
	}
}

func TestCompleteHonorsSamplingOverrides(t *testing.T) {
	captured := &requestBody{}
	client := newCapturingClient(t, completionResponse("ok"), captured)

	_, err := client.Complete(context.Background(), "bonjour",
		llms.WithLanguageCode("fr"),
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(64),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Temperature != 0.2 {
		t.Fatalf("expected temperature override, got %v", captured.Temperature)
	}
	if captured.MaxTokens != 64 {
		t.Fatalf("expected max tokens override, got %v", captured.MaxTokens)
	}
}

func TestCompleteSurfacesAPIFailure(t *testing.T) {
	client := NewClient("test-key")
	client.httpClient = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`), nil
	})}

	_, err := client.Complete(context.Background(), "hola", llms.WithLanguageCode("es"))
	if err == nil {
		t.Fatalf("expected an error for a non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected the status code in the error, got %v", err)
	}
}

func TestOpeningPromptAsksForAnOpener(t *testing.T) {
	captured := &requestBody{}
	client := newCapturingClient(t, completionResponse("Guten Tag!"), captured)

	response, err := client.OpeningPrompt(context.Background(), llms.WithLanguageCode("de"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response != "Guten Tag!" {
		t.Fatalf("expected the opener, got %q", response)
	}

	if len(captured.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(captured.Messages))
	}
	if !strings.Contains(captured.Messages[0].Content, "German") {
		t.Fatalf("expected the practice language in the instructions: %q", captured.Messages[0].Content)
	}
	if !strings.Contains(captured.Messages[1].Content, "German") {
		t.Fatalf("expected the practice language in the user message: %q", captured.Messages[1].Content)
	}
}

func TestAnalyzeErrorsRequestsStructuredOutput(t *testing.T) {
	analysis := ErrorAnalysis{
		HasErrors: true,
		Errors: []LanguageError{
			{Type: "grammar", Incorrect: "yo está", Correct: "yo estoy", Explanation: "First person uses estoy."},
		},
		Suggestions: []string{"Review ser vs estar conjugation."},
		Confidence:  0.9,
	}
	analysisJSON, _ := json.Marshal(analysis)

	var rawBody []byte
	client := NewClient("test-key")
	client.httpClient = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		var err error
		rawBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		return jsonResponse(http.StatusOK, completionResponse(string(analysisJSON))), nil
	})}

	result, err := client.AnalyzeErrors(context.Background(), "yo está bien", llms.WithLanguageCode("es"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.HasErrors || len(result.Errors) != 1 || result.Errors[0].Type != "grammar" {
		t.Fatalf("unexpected analysis: %+v", result)
	}

	if !bytes.Contains(rawBody, []byte(`"response_format"`)) {
		t.Fatalf("expected a response_format in the request body")
	}
	if !bytes.Contains(rawBody, []byte(`"json_schema"`)) {
		t.Fatalf("expected a json_schema response format")
	}
	if !bytes.Contains(rawBody, []byte(`"strict":true`)) {
		t.Fatalf("expected strict schema enforcement")
	}
}

func TestLanguageNameFallsBackToPrefixThenCode(t *testing.T) {
	if got := languageName("es"); got != "Spanish" {
		t.Fatalf("expected Spanish, got %q", got)
	}
	if got := languageName("fr-CA"); got != "French" {
		t.Fatalf("expected prefix match for regional codes, got %q", got)
	}
	if got := languageName("xx"); got != "xx" {
		t.Fatalf("expected unknown codes to pass through, got %q", got)
	}
}
