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

// Package session provides the conversation store for multi-turn chat. A
// transcript is an ordered list of turns keyed by the caller-supplied session
// id, created lazily on first use and held until reset or eviction. The store
// is an explicit, injected object with concurrent-safe get-or-create per key;
// concurrent appends to the same session are last-write-wins.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds configuration for session management
type Config struct {
	DefaultTTL         time.Duration `json:"default_ttl"`
	MaxSessions        int           `json:"max_sessions"`
	HistoryWindow      int           `json:"history_window"`
	HistoryTokenBudget int           `json:"history_token_budget"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL:         30 * time.Minute,
		MaxSessions:        1000,
		HistoryWindow:      10,
		HistoryTokenBudget: 4000,
	}
}

// Session represents a conversation session with its transcript
type Session struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Messages   []Message `json:"messages"`
	TokenCount int       `json:"token_count"`
}

// Message represents a single turn in a conversation
type Message struct {
	ID         string      `json:"id"`
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	TokenCount int         `json:"token_count"`
}

// MessageRole represents the role of a message sender
type MessageRole string

const (
	// UserRole indicates a message from the user
	UserRole MessageRole = "user"
	// AssistantRole indicates a message from the assistant
	AssistantRole MessageRole = "assistant"
	// SystemRole indicates a system message
	SystemRole MessageRole = "system"
)

// Storage defines the interface for session storage backends
type Storage interface {
	// Get retrieves a session by ID
	Get(ctx context.Context, sessionID string) (*Session, error)
	// Set stores a session with optional TTL
	Set(ctx context.Context, session *Session, ttl time.Duration) error
	// Delete removes a session
	Delete(ctx context.Context, sessionID string) error
	// Exists checks if a session exists
	Exists(ctx context.Context, sessionID string) (bool, error)
	// Cleanup removes expired sessions and returns how many were removed
	Cleanup(ctx context.Context) (int, error)
}

// Manager coordinates transcript access on top of a Storage backend.
type Manager struct {
	storage Storage
	config  Config
	logger  *zap.Logger
	mu      sync.Mutex // serializes get-or-create across goroutines
}

// NewManager creates a session manager backed by the given storage.
func NewManager(storage Storage, config Config, logger *zap.Logger) *Manager {
	return &Manager{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// GetOrCreate returns the session for the given id, creating an empty one on
// first use. Safe for concurrent callers with distinct session ids.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.storage.Get(ctx, sessionID)
	if err == nil {
		return sess, nil
	}

	now := time.Now()
	sess = &Session{
		ID:        sessionID,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.config.DefaultTTL),
		Messages:  []Message{},
	}
	if err := m.storage.Set(ctx, sess, m.config.DefaultTTL); err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}

	m.logger.Debug("Created new session", zap.String("session_id", sessionID))
	return sess, nil
}

// AppendTurn appends a single turn to the transcript, creating the session if
// needed. The transcript is append-only except for Reset.
func (m *Manager) AppendTurn(ctx context.Context, sessionID string, role MessageRole, content string) error {
	sess, err := m.GetOrCreate(ctx, sessionID)
	if err != nil {
		return err
	}

	msg := Message{
		ID:         uuid.NewString(),
		Role:       role,
		Content:    content,
		Timestamp:  time.Now(),
		TokenCount: CountTokens(content),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess.Messages = append(sess.Messages, msg)
	sess.TokenCount += msg.TokenCount
	sess.UpdatedAt = time.Now()

	if err := m.storage.Set(ctx, sess, m.config.DefaultTTL); err != nil {
		return fmt.Errorf("failed to store session %s: %w", sessionID, err)
	}

	m.logger.Debug("Appended turn",
		zap.String("session_id", sessionID),
		zap.String("role", string(role)),
		zap.Int("message_count", len(sess.Messages)),
	)
	return nil
}

// History returns up to the last n turns of the transcript, oldest first. A
// missing session yields an empty history, not an error.
func (m *Manager) History(ctx context.Context, sessionID string, n int) ([]Message, error) {
	sess, err := m.storage.Get(ctx, sessionID)
	if err != nil {
		return nil, nil
	}
	if n <= 0 || n >= len(sess.Messages) {
		return sess.Messages, nil
	}
	return sess.Messages[len(sess.Messages)-n:], nil
}

// HistoryWindow returns the configured bounded window of the transcript. The
// window is capped by turn count first, then trimmed to the token budget so a
// few very long turns cannot blow up prompt size.
func (m *Manager) HistoryWindow(ctx context.Context, sessionID string) ([]Message, error) {
	msgs, err := m.History(ctx, sessionID, m.config.HistoryWindow)
	if err != nil {
		return nil, err
	}
	if m.config.HistoryTokenBudget > 0 {
		msgs = TruncateToBudget(msgs, m.config.HistoryTokenBudget)
	}
	return msgs, nil
}

// Reset discards the transcript for the given session id.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	if err := m.storage.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to reset session %s: %w", sessionID, err)
	}
	m.logger.Info("Session reset", zap.String("session_id", sessionID))
	return nil
}
