// Package openaicompat builds model handles for any endpoint that speaks the
// OpenAI chat completions protocol.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewFactory returns an llm.ClientFactory backed by openai-go. The SDK's own
// retry loop is disabled so every call stays one-shot.
func NewFactory(client *http.Client) llm.ClientFactory {
	return func(cfg llm.ClientConfig) func(modelID string) llm.LanguageModel {
		opts := []option.RequestOption{
			option.WithBaseURL(cfg.BaseURL),
			option.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(0),
		}
		if client != nil {
			opts = append(opts, option.WithHTTPClient(client))
		}
		sdk := openai.NewClient(opts...)

		return func(modelID string) llm.LanguageModel {
			return &Model{
				client:  sdk,
				modelID: modelID,
				baseURL: cfg.BaseURL,
			}
		}
	}
}

type Model struct {
	client  openai.Client
	modelID string
	baseURL string
}

func (m *Model) ModelID() string { return m.modelID }
func (m *Model) BaseURL() string { return m.baseURL }

func (m *Model) Generate(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    m.modelID,
		Messages: toMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &httpclient.UpstreamError{
				StatusCode: apiErr.StatusCode,
				Body:       []byte(apiErr.RawJSON()),
				URL:        m.baseURL + "/chat/completions",
			}
		}
		return nil, fmt.Errorf("chat completion against %s: %w", m.baseURL, err)
	}

	return fromCompletion(completion), nil
}

func toMessages(msgs []api.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func fromCompletion(c *openai.ChatCompletion) *api.ChatResponse {
	resp := &api.ChatResponse{
		ID:      c.ID,
		Created: c.Created,
		Model:   c.Model,
		Object:  "chat.completion",
		Usage: &api.ResponseUsage{
			PromptTokens:     int(c.Usage.PromptTokens),
			CompletionTokens: int(c.Usage.CompletionTokens),
			TotalTokens:      int(c.Usage.TotalTokens),
		},
	}

	for _, choice := range c.Choices {
		resp.Choices = append(resp.Choices, api.Choice{
			Index: int(choice.Index),
			Message: &api.ChatMessage{
				Role:    "assistant",
				Content: choice.Message.Content,
			},
			FinishReason: choice.FinishReason,
		})
	}

	return resp
}
