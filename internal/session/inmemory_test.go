package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreGetOrCreateUnseenIsEmpty(t *testing.T) {
	s := NewInMemoryStore()
	turns, err := s.GetOrCreate(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Empty(t, turns)

	n, err := s.Len(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "zero-turn sessions are not listed")
}

func TestInMemoryStoreReadsDoNotCreateSessions(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	for i := 0; i < 1000; i++ {
		turns, err := s.GetOrCreate(ctx, fmt.Sprintf("reader-%d", i))
		require.NoError(t, err)
		require.Empty(t, turns)
	}
	assert.Empty(t, s.sessions)

	require.NoError(t, s.Append(ctx, "writer", Turn{Role: RoleUser, Text: "hi"}))
	assert.Len(t, s.sessions, 1)
}

func TestInMemoryStoreAppendKeepsOrderAndStamps(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, "s1",
		Turn{Role: RoleSystem, Text: "sys"},
		Turn{Role: RoleAssistant, Text: "hi"},
	))
	require.NoError(t, s.Append(ctx, "s1", Turn{Role: RoleUser, Text: "hello"}))

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, []string{"sys", "hi", "hello"}, []string{turns[0].Text, turns[1].Text, turns[2].Text})
	for _, turn := range turns {
		assert.NotEmpty(t, turn.ID)
		assert.False(t, turn.CreatedAt.IsZero())
	}
}

func TestInMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", NewTurn(RoleUser, "original")))

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	turns[0].Text = "mutated"

	again, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Text)
}

func TestInMemoryStoreRejectsUnknownRole(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Append(context.Background(), "s1", Turn{Role: "tool", Text: "x"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	n, _ := s.Len(context.Background(), "s1")
	assert.Equal(t, 0, n)
}

func TestInMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", NewTurn(RoleUser, "a")))
	require.NoError(t, s.Append(ctx, "s2", NewTurn(RoleUser, "b")))

	require.NoError(t, s.Clear(ctx, "s1"))
	require.NoError(t, s.Clear(ctx, "never-existed"))

	n, err := s.Len(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s2", list[0].SessionID)
	assert.Equal(t, 1, list[0].Turns)
}

func TestInMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, "shared", NewTurn(RoleUser, "x"))
		}()
	}
	wg.Wait()

	n, err := s.Len(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}
