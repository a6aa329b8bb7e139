package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/legalops/docverify/backend/agent"
	"github.com/legalops/docverify/backend/config"
	"github.com/legalops/docverify/backend/model"
)

// CheckpointStore persists verification session state. Implementations
// must be safe for concurrent use across sessions; within one session the
// pipeline is the single writer.
type CheckpointStore interface {
	agent.CheckpointStore
	ListByTenant(ctx context.Context, tenant string) ([]*model.VerificationState, error)
	Delete(ctx context.Context, sessionID string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// MemoryStore is an in-memory checkpoint store. Snapshots are stored as
// JSON so later mutations of the live state never leak into a checkpoint.
type MemoryStore struct {
	sessions    map[string][]byte
	mu          sync.RWMutex
	maxSessions int // 0 = unlimited
}

// NewMemoryStore creates an in-memory store sized from config
func NewMemoryStore(cfg *config.StoreConfig) *MemoryStore {
	maxSessions := cfg.MaxSessions
	if maxSessions < 0 {
		maxSessions = 0
	}
	slog.Info("checkpoint store initialized", "backend", "memory", "max_sessions", maxSessions)
	return &MemoryStore{
		sessions:    make(map[string][]byte),
		maxSessions: maxSessions,
	}
}

func (s *MemoryStore) Save(ctx context.Context, state *model.VerificationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", state.SessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.SessionID] = data
	s.cleanupIfNeeded()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*model.VerificationState, error) {
	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, agent.ErrSessionNotFound
	}

	var state model.VerificationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (s *MemoryStore) ListByTenant(ctx context.Context, tenant string) ([]*model.VerificationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.VerificationState
	for _, data := range s.sessions {
		var state model.VerificationState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}
		if state.Tenant == tenant {
			result = append(result, &state)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// cleanupIfNeeded removes the oldest sessions when the store exceeds
// maxSessions. Must be called with lock held.
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxSessions <= 0 || len(s.sessions) <= s.maxSessions {
		return
	}

	type entry struct {
		id    string
		state model.VerificationState
	}
	entries := make([]entry, 0, len(s.sessions))
	for id, data := range s.sessions {
		var state model.VerificationState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}
		entries = append(entries, entry{id: id, state: state})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].state.CreatedAt.Before(entries[j].state.CreatedAt)
	})

	removeCount := len(entries) - s.maxSessions
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old session",
			"session_id", entries[i].id,
			"created_at", entries[i].state.CreatedAt,
		)
		delete(s.sessions, entries[i].id)
	}
}
