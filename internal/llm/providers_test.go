package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"

	"github.com/antoniostano/empath/internal/session"
)

func conversation() []session.Turn {
	return []session.Turn{
		session.NewTurn(session.RoleSystem, "You are kind."),
		session.NewTurn(session.RoleAssistant, "Hi! What's on your mind?"),
		session.NewTurn(session.RoleUser, "I'm tired"),
	}
}

func TestToGenAIContentsLiftsSystemInstruction(t *testing.T) {
	system, contents := toGenAIContents(conversation())
	assert.Equal(t, "You are kind.", system)
	require.Len(t, contents, 2)
	assert.Equal(t, string(genai.RoleModel), string(contents[0].Role))
	assert.Equal(t, "Hi! What's on your mind?", contents[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleUser), string(contents[1].Role))
	assert.Equal(t, "I'm tired", contents[1].Parts[0].Text)
}

func TestResponseTextSkipsEmptyParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "Hel"}, nil, {Text: "lo"}}}},
			nil,
		},
	}
	assert.Equal(t, "Hello", responseText(resp))
	assert.Equal(t, "", responseText(nil))
}

func TestToMessageContentsMapsRoles(t *testing.T) {
	msgs := toMessageContents(conversation())
	require.Len(t, msgs, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, msgs[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, msgs[1].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[2].Role)

	text, ok := msgs[2].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Equal(t, "I'm tired", text.Text)
}

func TestLangChainModelStreamsChunks(t *testing.T) {
	fake := &fakeLangChain{chunks: []string{"I'm ", "sorry ", "❤️"}, final: "ignored"}
	m := NewLangChainModelFrom(fake)

	var deltas []string
	resp, err := m.StreamResponse(context.Background(), Request{Turns: conversation(), Temperature: 0.8}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "I'm sorry ❤️", resp.Text)
	assert.Equal(t, resp.Text, strings.Join(deltas, ""))
	assert.InDelta(t, 0.8, fake.gotTemperature, 1e-9)
	assert.Len(t, fake.gotMessages, 3)
}

func TestLangChainModelNonStreamingProvider(t *testing.T) {
	m := NewLangChainModelFrom(&fakeLangChain{final: "whole reply"})

	var deltas []string
	resp, err := m.StreamResponse(context.Background(), Request{Turns: conversation()}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "whole reply", resp.Text)
	assert.Equal(t, []string{"whole reply"}, deltas)
}

func TestLangChainModelWrapsErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := NewLangChainModelFrom(&fakeLangChain{err: boom}).StreamResponse(context.Background(), Request{}, nil)
	assert.ErrorIs(t, err, boom)
}

type fakeLangChain struct {
	chunks []string
	final  string
	err    error

	gotTemperature float64
	gotMessages    []llms.MessageContent
}

func (f *fakeLangChain) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	f.gotTemperature = opts.Temperature
	f.gotMessages = msgs
	if f.err != nil {
		return nil, f.err
	}
	if opts.StreamingFunc != nil {
		for _, c := range f.chunks {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.final}}}, nil
}

func (f *fakeLangChain) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.final, f.err
}
