package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/empath/internal/session"
)

const DefaultModelName = "gemini-2.5-flash"

var ErrMissingAPIKey = errors.New("llm api key is required")

// Request is the full ordered conversation handed to the remote model.
type Request struct {
	Turns       []session.Turn
	Temperature float64
}

// Response is the final text after all fragments were delivered.
type Response struct {
	Text string `json:"text"`
}

// DeltaHandler receives streaming text fragments in arrival order. Returning
// an error aborts the stream.
type DeltaHandler func(delta string) error

// Model is the remote text-generation collaborator.
//
// StreamResponse calls onDelta for every non-empty fragment and returns the
// concatenation of those fragments, so Response.Text always equals the joined
// deltas. onDelta may be nil.
type Model interface {
	Name() string
	StreamResponse(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error)
}

// Config controls model construction.
type Config struct {
	Mode      string
	APIKey    string
	ModelName string
}

// NewModel builds the provider named by cfg.Mode.
//
// auto answers every turn with exactly one provider: gemini, or langchain
// when the gemini client cannot be built, or the mock without a key.
// fallback is an explicit opt-in that re-sends a failed turn to langchain.
func NewModel(ctx context.Context, cfg Config) (Model, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}
	modelName := strings.TrimSpace(cfg.ModelName)
	if modelName == "" {
		modelName = DefaultModelName
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	switch mode {
	case "auto":
		if apiKey == "" {
			return NewMockModel(), nil
		}
		return firstAvailable(ctx, apiKey, modelName, newGemini, newLangChain)
	case "fallback":
		gm, err := NewGeminiModel(ctx, apiKey, modelName)
		if err != nil {
			return nil, err
		}
		lm, err := NewLangChainModel(ctx, apiKey, modelName)
		if err != nil {
			return nil, err
		}
		return NewFallbackModel(gm, lm), nil
	case "gemini":
		return NewGeminiModel(ctx, apiKey, modelName)
	case "langchain":
		return NewLangChainModel(ctx, apiKey, modelName)
	case "mock":
		return NewMockModel(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Mode)
	}
}

type providerFactory func(ctx context.Context, apiKey, modelName string) (Model, error)

func newGemini(ctx context.Context, apiKey, modelName string) (Model, error) {
	return NewGeminiModel(ctx, apiKey, modelName)
}

func newLangChain(ctx context.Context, apiKey, modelName string) (Model, error) {
	return NewLangChainModel(ctx, apiKey, modelName)
}

// firstAvailable returns the first provider whose client can be built.
// Construction failures move on to the next candidate; call failures never do.
func firstAvailable(ctx context.Context, apiKey, modelName string, factories ...providerFactory) (Model, error) {
	var errs []error
	for _, build := range factories {
		m, err := build(ctx, apiKey, modelName)
		if err == nil {
			return m, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no llm provider candidates")
	}
	return nil, fmt.Errorf("no llm provider available: %w", errors.Join(errs...))
}
