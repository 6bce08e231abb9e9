package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/empath/internal/session"
)

// MockModel provides deterministic local replies when no API key is configured.
type MockModel struct{}

func NewMockModel() *MockModel { return &MockModel{} }

func (m *MockModel) Name() string { return "mock" }

func (m *MockModel) StreamResponse(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	var out strings.Builder
	for _, frag := range splitFragments(buildMockReply(req)) {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		default:
		}
		out.WriteString(frag)
		if onDelta != nil {
			if err := onDelta(frag); err != nil {
				return Response{}, err
			}
		}
	}
	return Response{Text: out.String()}, nil
}

func buildMockReply(req Request) string {
	var last string
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == session.RoleUser {
			last = strings.TrimSpace(req.Turns[i].Text)
			break
		}
	}
	if last == "" {
		return "I am listening 😊"
	}
	return fmt.Sprintf("I hear you ❤️ You said: %s", last)
}

// splitFragments cuts text into word-sized fragments, keeping separators so
// the joined fragments reproduce the input exactly.
func splitFragments(text string) []string {
	var (
		out   []string
		start int
	)
	for i, r := range text {
		if r == ' ' && i > start {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
