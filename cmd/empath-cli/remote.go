package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/empath/internal/protocol"
)

const remoteTurnTimeout = 2 * time.Minute

type wsEnvelope struct {
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	TextDelta string `json:"text_delta,omitempty"`
}

// remoteChatter drives a running server over its websocket stream.
type remoteChatter struct {
	conn      *websocket.Conn
	sessionID string
}

func dialRemote(ctx context.Context, baseURL, sessionID string) (*remoteChatter, error) {
	wsURL, err := wsURLForSession(baseURL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("open websocket: %w", err)
	}
	return &remoteChatter{conn: conn, sessionID: sessionID}, nil
}

func (r *remoteChatter) Close() error {
	return r.conn.Close()
}

func (r *remoteChatter) Turn(ctx context.Context, message string, onDelta func(string) error) error {
	if err := r.conn.WriteJSON(protocol.ChatMessage{
		Type:      protocol.TypeChatMessage,
		SessionID: r.sessionID,
		Message:   message,
	}); err != nil {
		return fmt.Errorf("send chat_message: %w", err)
	}

	deadline := time.Now().Add(remoteTurnTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = r.conn.SetReadDeadline(deadline)
	defer func() { _ = r.conn.SetReadDeadline(time.Time{}) }()

	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ws read: %w", err)
		}
		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case string(protocol.TypeAssistantTextDelta):
			if err := onDelta(env.TextDelta); err != nil {
				return err
			}
		case string(protocol.TypeAssistantTurnEnd):
			return nil
		case string(protocol.TypeErrorEvent):
			if env.Retryable {
				return fmt.Errorf("%s (retryable)", env.Detail)
			}
			return errors.New(env.Detail)
		}
	}
}

func wsURLForSession(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("server host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/chat/ws"
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
