// Copyright 2024 SageMaker Chatbot Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(NewMemoryStorage(100), DefaultConfig(), zap.NewNop())
}

func TestGetOrCreate(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	sess, err := manager.GetOrCreate(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", sess.ID)
	assert.Empty(t, sess.Messages)

	// Second call returns the same session, not a fresh one.
	again, err := manager.GetOrCreate(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, again.ID)
	assert.Equal(t, sess.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestGetOrCreateEmptyID(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.GetOrCreate(context.Background(), "")
	assert.Error(t, err)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := manager.GetOrCreate(ctx, fmt.Sprintf("session-%d", n%5))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestAppendTurnAndHistory(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.AppendTurn(ctx, "s1", UserRole, "What is SageMaker?"))
	require.NoError(t, manager.AppendTurn(ctx, "s1", AssistantRole, "A managed ML service."))

	history, err := manager.History(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, UserRole, history[0].Role)
	assert.Equal(t, "What is SageMaker?", history[0].Content)
	assert.Equal(t, AssistantRole, history[1].Role)
	assert.NotEmpty(t, history[0].ID)
	assert.Greater(t, history[0].TokenCount, 0)
}

func TestHistoryWindowBoundsTranscript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryWindow = 4
	manager := NewManager(NewMemoryStorage(100), cfg, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, manager.AppendTurn(ctx, "s1", UserRole, fmt.Sprintf("turn %d", i)))
	}

	window, err := manager.HistoryWindow(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, window, 4)

	// Oldest first, most recent turns retained.
	assert.Equal(t, "turn 2", window[0].Content)
	assert.Equal(t, "turn 5", window[3].Content)
}

func TestHistoryWindowTokenBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryWindow = 10
	manager := NewManager(NewMemoryStorage(100), cfg, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, manager.AppendTurn(ctx, "s1", UserRole, "a long opening question about training"))
	require.NoError(t, manager.AppendTurn(ctx, "s1", AssistantRole, "a long detailed answer about training"))
	require.NoError(t, manager.AppendTurn(ctx, "s1", UserRole, "short"))

	full, err := manager.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, full, 3)

	// Budget covers only the last two turns, so the oldest is dropped.
	cfg.HistoryTokenBudget = full[1].TokenCount + full[2].TokenCount
	manager = NewManager(NewMemoryStorage(100), cfg, zap.NewNop())
	for _, msg := range full {
		require.NoError(t, manager.AppendTurn(ctx, "s2", msg.Role, msg.Content))
	}

	window, err := manager.HistoryWindow(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "short", window[1].Content)
}

func TestTruncateToBudget(t *testing.T) {
	msgs := []Message{
		{Content: "first", TokenCount: 10},
		{Content: "second", TokenCount: 10},
		{Content: "third", TokenCount: 10},
	}

	assert.Len(t, TruncateToBudget(msgs, 30), 3)
	assert.Len(t, TruncateToBudget(msgs, 100), 3)

	trimmed := TruncateToBudget(msgs, 20)
	require.Len(t, trimmed, 2)
	assert.Equal(t, "second", trimmed[0].Content)

	trimmed = TruncateToBudget(msgs, 5)
	assert.Empty(t, trimmed)
}

func TestHistoryMissingSessionIsEmpty(t *testing.T) {
	manager := newTestManager(t)

	history, err := manager.History(context.Background(), "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReset(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.AppendTurn(ctx, "s1", UserRole, "hello"))
	require.NoError(t, manager.Reset(ctx, "s1"))

	history, err := manager.History(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestResetMissingSession(t *testing.T) {
	manager := newTestManager(t)

	assert.Error(t, manager.Reset(context.Background(), "nope"))
}

func TestMemoryStorageLRUEviction(t *testing.T) {
	storage := NewMemoryStorage(2)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, &Session{ID: "a"}, time.Minute))
	require.NoError(t, storage.Set(ctx, &Session{ID: "b"}, time.Minute))

	// Touch "a" so "b" becomes the least recently used entry.
	_, err := storage.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, storage.Set(ctx, &Session{ID: "c"}, time.Minute))

	existsA, _ := storage.Exists(ctx, "a")
	existsB, _ := storage.Exists(ctx, "b")
	existsC, _ := storage.Exists(ctx, "c")
	assert.True(t, existsA)
	assert.False(t, existsB)
	assert.True(t, existsC)
}

func TestMemoryStorageUpdateDoesNotEvict(t *testing.T) {
	storage := NewMemoryStorage(2)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, &Session{ID: "a"}, time.Minute))
	require.NoError(t, storage.Set(ctx, &Session{ID: "b"}, time.Minute))
	require.NoError(t, storage.Set(ctx, &Session{ID: "a", TokenCount: 5}, time.Minute))

	existsB, _ := storage.Exists(ctx, "b")
	assert.True(t, existsB)
}

func TestMemoryStorageExpiry(t *testing.T) {
	storage := NewMemoryStorage(10)
	ctx := context.Background()

	expired := &Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, storage.Set(ctx, expired, 0))

	_, err := storage.Get(ctx, "old")
	assert.Error(t, err)
}

func TestMemoryStorageCleanup(t *testing.T) {
	storage := NewMemoryStorage(10)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, &Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}, 0))
	require.NoError(t, storage.Set(ctx, &Session{ID: "fresh"}, time.Hour))

	removed, err := storage.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	existsFresh, _ := storage.Exists(ctx, "fresh")
	assert.True(t, existsFresh)
}

func TestMemoryStorageReturnsCopy(t *testing.T) {
	storage := NewMemoryStorage(10)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, &Session{
		ID:       "a",
		Messages: []Message{{Content: "original"}},
	}, time.Minute))

	sess, err := storage.Get(ctx, "a")
	require.NoError(t, err)
	sess.Messages[0].Content = "mutated"

	again, err := storage.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Greater(t, CountTokens("What is Amazon SageMaker?"), 0)

	short := CountTokens("hi")
	long := CountTokens("This is a much longer sentence about machine learning infrastructure.")
	assert.Greater(t, long, short)
}
