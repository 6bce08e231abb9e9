package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageChat(t *testing.T) {
	raw := []byte(`{"type":"chat_message","session_id":"s1","message":"hi there"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	chat, ok := msg.(ChatMessage)
	if !ok {
		t.Fatalf("message type = %T, want ChatMessage", msg)
	}
	if chat.SessionID != "s1" || chat.Message != "hi there" {
		t.Fatalf("unexpected chat message: %+v", chat)
	}
}

func TestParseClientMessageChatWithoutSession(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"chat_message","message":"hello"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if chat := msg.(ChatMessage); chat.SessionID != "" {
		t.Fatalf("SessionID = %q, want empty", chat.SessionID)
	}
}

func TestParseClientMessageRejectsBlankChat(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"chat_message","session_id":"s1","message":"  "}`))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestParseClientMessageClear(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"clear_session","session_id":"s1"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	cs, ok := msg.(ClearSession)
	if !ok || cs.SessionID != "s1" {
		t.Fatalf("message = %#v, want ClearSession for s1", msg)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected envelope error")
	}
}

func TestTypeOf(t *testing.T) {
	got, ok := TypeOf(AssistantTextDelta{Type: TypeAssistantTextDelta})
	if !ok || got != TypeAssistantTextDelta {
		t.Fatalf("TypeOf() = (%q, %v)", got, ok)
	}
	if _, ok := TypeOf(struct{}{}); ok {
		t.Fatalf("TypeOf(struct{}{}) ok = true, want false")
	}
}

func BenchmarkParseClientMessageChat(b *testing.B) {
	raw := []byte(`{"type":"chat_message","session_id":"s1","message":"I feel great today!"}`)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg, err := ParseClientMessage(raw)
		if err != nil {
			b.Fatalf("ParseClientMessage() error = %v", err)
		}
		if _, ok := msg.(ChatMessage); !ok {
			b.Fatalf("message type = %T, want ChatMessage", msg)
		}
	}
}
