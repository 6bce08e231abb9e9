package llm

import (
	"context"
	"errors"
	"fmt"
)

// FallbackModel attempts a primary model first and re-sends the turn to a
// second model on error. It is only built for the opt-in fallback provider
// mode; the default mode never retries.
//
// The fallback only runs when the primary failed before emitting any fragment;
// otherwise the caller would see duplicated text.
type FallbackModel struct {
	primary  Model
	fallback Model
}

func NewFallbackModel(primary, fallback Model) *FallbackModel {
	return &FallbackModel{
		primary:  primary,
		fallback: fallback,
	}
}

// Name reports both providers.
func (m *FallbackModel) Name() string {
	if m == nil || m.primary == nil || m.fallback == nil {
		return "fallback"
	}
	return m.primary.Name() + "+" + m.fallback.Name()
}

func (m *FallbackModel) StreamResponse(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	if m == nil || m.primary == nil {
		if m != nil && m.fallback != nil {
			return m.fallback.StreamResponse(ctx, req, onDelta)
		}
		return Response{}, fmt.Errorf("fallback model misconfigured")
	}

	emitted := false
	resp, err := m.primary.StreamResponse(ctx, req, func(delta string) error {
		emitted = true
		if onDelta == nil {
			return nil
		}
		return onDelta(delta)
	})
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Response{}, err
	}
	if emitted || m.fallback == nil {
		return Response{}, err
	}

	fallbackResp, fallbackErr := m.fallback.StreamResponse(ctx, req, onDelta)
	if fallbackErr != nil {
		return Response{}, fmt.Errorf("primary model error: %w; fallback model error: %v", err, fallbackErr)
	}
	return fallbackResp, nil
}
