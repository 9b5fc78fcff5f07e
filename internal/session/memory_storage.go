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
	"time"
)

// MemoryStorage provides in-memory session storage with LRU eviction
type MemoryStorage struct {
	sessions    map[string]*Session
	accessTime  map[string]time.Time // Track access time for LRU
	maxSessions int
	mutex       sync.RWMutex
}

// NewMemoryStorage creates a new in-memory session storage
func NewMemoryStorage(maxSessions int) *MemoryStorage {
	return &MemoryStorage{
		sessions:    make(map[string]*Session),
		accessTime:  make(map[string]time.Time),
		maxSessions: maxSessions,
	}
}

// Get retrieves a session by ID
func (m *MemoryStorage) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sess, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}

	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		delete(m.sessions, sessionID)
		delete(m.accessTime, sessionID)
		return nil, fmt.Errorf("session expired: %s", sessionID)
	}

	m.accessTime[sessionID] = time.Now()

	// Return a copy to prevent external modification
	sessionCopy := *sess
	sessionCopy.Messages = make([]Message, len(sess.Messages))
	copy(sessionCopy.Messages, sess.Messages)

	return &sessionCopy, nil
}

// Set stores a session with optional TTL
func (m *MemoryStorage) Set(_ context.Context, sess *Session, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[sess.ID]; !exists && len(m.sessions) >= m.maxSessions {
		if err := m.evictOldestSession(); err != nil {
			return fmt.Errorf("failed to evict session: %w", err)
		}
	}

	// Store a copy to prevent external modification
	sessionCopy := *sess
	sessionCopy.Messages = make([]Message, len(sess.Messages))
	copy(sessionCopy.Messages, sess.Messages)

	if ttl > 0 {
		sessionCopy.ExpiresAt = time.Now().Add(ttl)
	}

	m.sessions[sess.ID] = &sessionCopy
	m.accessTime[sess.ID] = time.Now()

	return nil
}

// Delete removes a session
func (m *MemoryStorage) Delete(_ context.Context, sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	delete(m.sessions, sessionID)
	delete(m.accessTime, sessionID)
	return nil
}

// Exists checks if a session exists
func (m *MemoryStorage) Exists(_ context.Context, sessionID string) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, exists := m.sessions[sessionID]
	return exists, nil
}

// Cleanup removes expired sessions and returns how many were removed
func (m *MemoryStorage) Cleanup(_ context.Context) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	removed := 0
	for id, sess := range m.sessions {
		if !sess.ExpiresAt.IsZero() && now.After(sess.ExpiresAt) {
			delete(m.sessions, id)
			delete(m.accessTime, id)
			removed++
		}
	}
	return removed, nil
}

// evictOldestSession removes the least recently accessed session. Caller must
// hold the write lock.
func (m *MemoryStorage) evictOldestSession() error {
	if len(m.sessions) == 0 {
		return fmt.Errorf("no sessions to evict")
	}

	var oldestID string
	var oldestTime time.Time
	for id, t := range m.accessTime {
		if oldestID == "" || t.Before(oldestTime) {
			oldestID = id
			oldestTime = t
		}
	}

	delete(m.sessions, oldestID)
	delete(m.accessTime, oldestID)
	return nil
}
