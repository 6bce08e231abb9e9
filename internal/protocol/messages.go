package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeChatMessage        MessageType = "chat_message"
	TypeClearSession       MessageType = "clear_session"
	TypeAssistantTextDelta MessageType = "assistant_text_delta"
	TypeAssistantTurnEnd   MessageType = "assistant_turn_end"
	TypeSystemEvent        MessageType = "system_event"
	TypeErrorEvent         MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ChatMessage asks the server to run one turn. SessionID may be empty.
type ChatMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Message   string      `json:"message"`
}

type ClearSession struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
}

type AssistantTextDelta struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Seq       int         `json:"seq"`
	TextDelta string      `json:"text_delta"`
}

type AssistantTurnEnd struct {
	Type          MessageType `json:"type"`
	SessionID     string      `json:"session_id"`
	TurnID        string      `json:"turn_id"`
	Response      string      `json:"response"`
	HistoryLength int         `json:"history_length"`
	IsWelcome     bool        `json:"is_welcome"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Message) == "" {
			return nil, errors.New("invalid chat_message: message is required")
		}
		return msg, nil
	case TypeClearSession:
		var msg ClearSession
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf returns the type tag of a known message value.
func TypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case ChatMessage:
		return m.Type, true
	case ClearSession:
		return m.Type, true
	case AssistantTextDelta:
		return m.Type, true
	case AssistantTurnEnd:
		return m.Type, true
	case SystemEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
