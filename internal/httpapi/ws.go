package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/empath/internal/chat"
	"github.com/antoniostano/empath/internal/observability"
	"github.com/antoniostano/empath/internal/protocol"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 1 << 20
)

// handleChatWS streams turns over a websocket. The optional session_id query
// parameter is used for messages that do not name a session.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := observability.LoggerFromContext(ctx)
	defaultSession := strings.TrimSpace(r.URL.Query().Get("session_id"))
	s.metrics.ObserveSessionEvent("ws_connected")
	defer s.metrics.ObserveSessionEvent("ws_disconnected")

	// Reads and writes run on separate goroutines; only this goroutine writes.
	inbound := make(chan any, 16)
	go func() {
		defer close(inbound)
		conn.SetReadLimit(wsReadLimit)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}

			var msg any
			parsed, err := protocol.ParseClientMessage(data)
			if err != nil {
				msg = protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					SessionID: defaultSession,
					Code:      "invalid_client_message",
					Source:    "server",
					Retryable: false,
					Detail:    err.Error(),
				}
			} else {
				msg = parsed
				if typ, ok := protocol.TypeOf(parsed); ok {
					s.metrics.ObserveWSMessage("inbound", string(typ))
				}
			}

			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for msg := range inbound {
		var err error
		switch m := msg.(type) {
		case protocol.ErrorEvent:
			err = s.writeWS(conn, m)
		case protocol.ChatMessage:
			if m.SessionID == "" {
				m.SessionID = defaultSession
			}
			err = s.streamTurn(ctx, conn, m)
		case protocol.ClearSession:
			if m.SessionID == "" {
				m.SessionID = defaultSession
			}
			err = s.clearOverWS(ctx, conn, m)
		}
		if err != nil {
			logger.Debug("websocket write failed", "error", err)
			cancel()
			return
		}
	}
}

func (s *Server) streamTurn(ctx context.Context, conn *websocket.Conn, m protocol.ChatMessage) error {
	sessionID := s.chat.SessionID(m.SessionID)
	seq := 0
	res, err := s.chat.ChatStream(ctx, chat.Input{Message: m.Message, SessionID: sessionID}, func(delta string) error {
		seq++
		return s.writeWS(conn, protocol.AssistantTextDelta{
			Type:      protocol.TypeAssistantTextDelta,
			SessionID: sessionID,
			Seq:       seq,
			TextDelta: delta,
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return s.writeWS(conn, chatErrorEvent(sessionID, err))
	}

	return s.writeWS(conn, protocol.AssistantTurnEnd{
		Type:          protocol.TypeAssistantTurnEnd,
		SessionID:     res.SessionID,
		TurnID:        res.TurnID,
		Response:      res.Response,
		HistoryLength: res.HistoryLength,
		IsWelcome:     res.IsWelcome,
	})
}

func (s *Server) clearOverWS(ctx context.Context, conn *websocket.Conn, m protocol.ClearSession) error {
	id, err := s.chat.Clear(ctx, m.SessionID)
	if err != nil {
		return s.writeWS(conn, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: id,
			Code:      "clear_failed",
			Source:    "store",
			Detail:    err.Error(),
		})
	}
	return s.writeWS(conn, protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: id,
		Code:      "session_cleared",
		Detail:    fmt.Sprintf("Session %s cleared", id),
	})
}

func chatErrorEvent(sessionID string, err error) protocol.ErrorEvent {
	ev := protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      "chat_error",
		Source:    "server",
		Detail:    fmt.Sprintf("Chat error: %v", err),
	}
	var modelErr *chat.ModelError
	if errors.As(err, &modelErr) {
		ev.Source = modelErr.Provider
		ev.Retryable = modelErr.Retryable
		if modelErr.Code != "" {
			ev.Code = modelErr.Code
		}
	}
	return ev
}

func (s *Server) writeWS(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		return err
	}
	if typ, ok := protocol.TypeOf(v); ok {
		s.metrics.ObserveWSMessage("outbound", string(typ))
	}
	return nil
}
