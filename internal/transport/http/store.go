package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

// conversationStore keeps saved conversations in memory, keyed by owner so
// clients only see their own history. Development stand-in for the backend
// database.
type conversationStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.ConversationRecord
	owners map[string]string // conversation ID -> client token
}

func newConversationStore() *conversationStore {
	return &conversationStore{
		byID:   make(map[string]domain.ConversationRecord),
		owners: make(map[string]string),
	}
}

func (s *conversationStore) Save(owner string, rec domain.ConversationRecord) domain.ConversationRecord {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.byID[rec.ID] = rec
	s.owners[rec.ID] = owner
	s.mu.Unlock()
	return rec
}

func (s *conversationStore) Get(owner, id string) (domain.ConversationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok || s.owners[id] != owner {
		return domain.ConversationRecord{}, false
	}
	return rec, true
}

func (s *conversationStore) List(owner string) []domain.ConversationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ConversationRecord, 0)
	for id, rec := range s.byID {
		if s.owners[id] == owner {
			out = append(out, rec)
		}
	}
	return out
}
