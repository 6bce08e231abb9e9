package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/antoniostano/empath/internal/session"
)

// LangChainModel drives any langchaingo chat model; by default the Google AI
// provider.
type LangChainModel struct {
	llm llms.Model
}

func NewLangChainModel(ctx context.Context, apiKey, modelName string) (*LangChainModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModelName
	}

	g, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("creating langchain googleai client: %w", err)
	}
	return &LangChainModel{llm: g}, nil
}

// NewLangChainModelFrom wraps an already constructed langchaingo model.
func NewLangChainModelFrom(m llms.Model) *LangChainModel {
	return &LangChainModel{llm: m}
}

func (m *LangChainModel) Name() string { return "langchain" }

func (m *LangChainModel) StreamResponse(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	var (
		out      strings.Builder
		streamed bool
	)
	resp, err := m.llm.GenerateContent(ctx, toMessageContents(req.Turns),
		llms.WithTemperature(req.Temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true
			delta := string(chunk)
			out.WriteString(delta)
			if onDelta == nil {
				return nil
			}
			return onDelta(delta)
		}),
	)
	if err != nil {
		return Response{}, fmt.Errorf("langchain generate: %w", err)
	}
	if streamed {
		return Response{Text: out.String()}, nil
	}

	// Providers that ignore the streaming option deliver a single choice.
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return Response{}, nil
	}
	text := resp.Choices[0].Content
	if text != "" && onDelta != nil {
		if err := onDelta(text); err != nil {
			return Response{}, err
		}
	}
	return Response{Text: text}, nil
}

func toMessageContents(turns []session.Turn) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(turns))
	for _, t := range turns {
		var role llms.ChatMessageType
		switch t.Role {
		case session.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case session.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, t.Text))
	}
	return out
}
