package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/antoniostano/empath/internal/session"
)

// GeminiModel streams completions from the Gemini API.
type GeminiModel struct {
	client    *genai.Client
	modelName string
}

func NewGeminiModel(ctx context.Context, apiKey, modelName string) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiModel{
		client:    client,
		modelName: modelName,
	}, nil
}

func (m *GeminiModel) Name() string { return "gemini" }

func (m *GeminiModel) StreamResponse(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	system, contents := toGenAIContents(req.Turns)
	if len(contents) == 0 {
		return Response{}, fmt.Errorf("gemini: conversation has no user or assistant turns")
	}

	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	var out strings.Builder
	for resp, err := range m.client.Models.GenerateContentStream(ctx, m.modelName, contents, cfg) {
		if err != nil {
			return Response{}, fmt.Errorf("gemini stream: %w", err)
		}
		delta := responseText(resp)
		if delta == "" {
			continue
		}
		out.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return Response{}, err
			}
		}
	}

	return Response{Text: out.String()}, nil
}

// toGenAIContents splits system turns into a single instruction and maps the
// rest onto Gemini's user/model roles.
func toGenAIContents(turns []session.Turn) (string, []*genai.Content) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, t := range turns {
		if t.Role == session.RoleSystem {
			if s := strings.TrimSpace(t.Text); s != "" {
				system = append(system, s)
			}
			continue
		}

		var role genai.Role
		switch t.Role {
		case session.RoleAssistant:
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return strings.Join(system, "\n\n"), contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
