package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"creator-outreach/internal/config/configs"
	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

// ErrEmptyCompletion is returned when the model answers without text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

const systemPrompt = `You write short, warm outreach emails from a brand to a content creator.
Be truthful: only reference details present in the creator data.
Do not mention trademarks.
Include a clear next step and an opt-out line.
Answer exactly in the form:
Subject: <one line>
Body:
<email body>`

// OpenAIGenerator drafts messages with the OpenAI chat completions API.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator from the LLM config. BaseURL lets
// the client talk to any OpenAI compatible endpoint.
func NewOpenAIGenerator(cfg configs.LLM) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// the engine bounds each call and sweeps retry on the next tick
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, in port.DraftContext) (port.Draft, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(in)),
		},
	})
	if err != nil {
		return port.Draft{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return port.Draft{}, ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return port.Draft{}, ErrEmptyCompletion
	}
	subject, body := parseCompletion(text, fallbackSubject(in))
	if body == "" {
		return port.Draft{}, ErrEmptyCompletion
	}
	return port.Draft{Subject: subject, Body: body, Mode: domain.ModeLive}, nil
}

func fallbackSubject(in port.DraftContext) string {
	f := factsFor(in)
	if in.Kind == domain.KindFollowUp {
		if prev := lastSentSubject(in.PriorMessages); prev != "" {
			return "Re: " + strings.TrimPrefix(prev, "Re: ")
		}
	}
	return "Collab idea for " + f.display
}
