package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"vaani/lang"
)

const defaultOpenAIModel = openai.GPT4oMini

const interpreterPrompt = "You are an interpreter between two people. Translate the user's message from %s to %s. " +
	"Reply with the translation only, without quotes, notes or transliteration."

// OpenAI translates through a chat completion model.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a client. Empty model selects gpt-4o-mini; empty baseURL
// selects the public API.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Translate(ctx context.Context, text, from, to string) (*Result, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(interpreterPrompt, languageName(from), languageName(to))},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &StatusError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices: %w", ErrUnexpectedResponse)
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return nil, fmt.Errorf("openai returned empty content: %w", ErrUnexpectedResponse)
	}
	return &Result{Text: translated}, nil
}

// languageName gives the model an English name plus the code, which is less
// ambiguous than the bare code.
func languageName(code string) string {
	label := lang.Label(code)
	if i := strings.Index(label, "("); i >= 0 {
		label = strings.TrimSuffix(label[i+1:], ")")
	}
	return fmt.Sprintf("%s (%s)", label, code)
}
