package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/antoniostano/empath/internal/llm"
	"github.com/antoniostano/empath/internal/observability"
	"github.com/antoniostano/empath/internal/policy"
	"github.com/antoniostano/empath/internal/reliability"
	"github.com/antoniostano/empath/internal/session"
)

var ErrEmptyMessage = errors.New("message must not be empty")

// ModelError reports that the external model call failed. The user turn that
// triggered the call stays in the history; no assistant turn is added.
type ModelError struct {
	Provider  string
	Code      string
	Retryable bool
	Err       error
}

func (e *ModelError) Error() string { return e.Err.Error() }

func (e *ModelError) Unwrap() error { return e.Err }

// Input is one user utterance addressed to a session.
type Input struct {
	Message   string
	SessionID string
}

// Result is the outcome of a completed turn. IsWelcome is true when this call
// seeded the session with the persona.
type Result struct {
	Response      string `json:"response"`
	SessionID     string `json:"session_id"`
	HistoryLength int    `json:"history_length"`
	IsWelcome     bool   `json:"is_welcome"`
	TurnID        string `json:"turn_id,omitempty"`
}

// Processor appends user turns, calls the model with the full history and
// records the reply.
type Processor struct {
	store   session.Store
	model   llm.Model
	metrics *observability.Metrics
	opts    Options
	locks   sessionLocks
	now     func() time.Time
}

func NewProcessor(store session.Store, model llm.Model, metrics *observability.Metrics, opts Options) *Processor {
	return &Processor{
		store:   store,
		model:   model,
		metrics: metrics,
		opts:    opts.withDefaults(),
		now:     time.Now,
	}
}

// SessionID resolves the id a request addresses.
func (p *Processor) SessionID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return p.opts.DefaultSessionID
	}
	return id
}

// Chat runs one turn and blocks until the full reply is collected.
func (p *Processor) Chat(ctx context.Context, in Input) (Result, error) {
	return p.ChatStream(ctx, in, nil)
}

// ChatStream runs one turn, forwarding fragments to onDelta as they arrive.
// Turns on the same session are serialized.
func (p *Processor) ChatStream(ctx context.Context, in Input, onDelta llm.DeltaHandler) (Result, error) {
	if strings.TrimSpace(in.Message) == "" {
		return Result{}, ErrEmptyMessage
	}
	sessionID := p.SessionID(in.SessionID)

	unlock := p.locks.lock(sessionID)
	defer unlock()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"provider", p.model.Name(),
	)

	history, err := p.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		log.Error("failed to load session", "error", err)
		return Result{}, fmt.Errorf("load session: %w", err)
	}

	var pending []session.Turn
	seeded := len(history) == 0 && !p.opts.DisableSeed
	if seeded {
		pending = append(pending,
			session.NewTurn(session.RoleSystem, p.opts.SystemPrompt),
			session.NewTurn(session.RoleAssistant, p.opts.WelcomeMessage),
		)
	}
	pending = append(pending, session.NewTurn(session.RoleUser, in.Message))

	if err := p.store.Append(ctx, sessionID, pending...); err != nil {
		log.Error("failed to append user turn", "error", err)
		return Result{}, fmt.Errorf("append user turn: %w", err)
	}
	history = append(history, pending...)
	if seeded {
		p.metrics.ObserveSessionEvent("created")
		p.refreshActiveSessions(ctx)
	}

	log.Info("chat turn started",
		"message", policy.LogPreview(in.Message, 0),
		"history_length", len(history),
		"seeded", seeded,
	)

	callCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := p.now()
	var firstFragment sync.Once
	resp, err := p.model.StreamResponse(callCtx, llm.Request{
		Turns:       history,
		Temperature: p.opts.Temperature,
	}, func(delta string) error {
		firstFragment.Do(func() {
			p.metrics.ObserveFirstFragment(p.now().Sub(start))
		})
		if onDelta == nil {
			return nil
		}
		return onDelta(delta)
	})
	if err != nil {
		code, retryable := reliability.Classify(err)
		p.metrics.ObserveProviderError(p.model.Name(), code)
		p.metrics.ObserveTurn("error", p.now().Sub(start))
		log.Error("model call failed", "error", err, "code", code)
		modelErr := &ModelError{
			Provider:  p.model.Name(),
			Code:      code,
			Retryable: retryable,
			Err:       err,
		}
		return Result{
			SessionID:     sessionID,
			HistoryLength: len(history),
			IsWelcome:     seeded,
		}, modelErr
	}

	reply := session.NewTurn(session.RoleAssistant, resp.Text)
	if err := p.store.Append(ctx, sessionID, reply); err != nil {
		log.Error("failed to append assistant turn", "error", err)
		return Result{}, fmt.Errorf("append assistant turn: %w", err)
	}
	history = append(history, reply)

	elapsed := p.now().Sub(start)
	p.metrics.ObserveTurn("ok", elapsed)
	log.Info("chat turn completed",
		"history_length", len(history),
		"reply_chars", len(resp.Text),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return Result{
		Response:      resp.Text,
		SessionID:     sessionID,
		HistoryLength: len(history),
		IsWelcome:     seeded,
		TurnID:        reply.ID,
	}, nil
}

// Clear drops a session's history. Unknown ids are a no-op.
func (p *Processor) Clear(ctx context.Context, rawID string) (string, error) {
	sessionID := p.SessionID(rawID)

	unlock := p.locks.lock(sessionID)
	defer unlock()

	if err := p.store.Clear(ctx, sessionID); err != nil {
		return sessionID, fmt.Errorf("clear session: %w", err)
	}
	p.metrics.ObserveSessionEvent("cleared")
	p.refreshActiveSessions(ctx)
	observability.LoggerFromContext(ctx).Info("session cleared", "session_id", sessionID)
	return sessionID, nil
}

// History returns a copy of the session's turns in append order.
func (p *Processor) History(ctx context.Context, rawID string) (string, []session.Turn, error) {
	sessionID := p.SessionID(rawID)
	turns, err := p.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return sessionID, nil, fmt.Errorf("load session: %w", err)
	}
	return sessionID, turns, nil
}

// Sessions lists sessions that hold at least one turn.
func (p *Processor) Sessions(ctx context.Context) ([]session.Summary, error) {
	list, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

// ModelName reports which provider answers turns.
func (p *Processor) ModelName() string {
	return p.model.Name()
}

func (p *Processor) refreshActiveSessions(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	list, err := p.store.List(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to count sessions", "error", err)
		return
	}
	p.metrics.SetActiveSessions(len(list))
}
