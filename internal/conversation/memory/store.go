// Package memory implements the in-process conversation context store.
package memory

import (
	"sync"
	"time"

	"support-chatbot/internal/common/metrics"
	"support-chatbot/internal/models"
)

// DefaultTTL is how long a conversation may stay idle before it is forgotten.
const DefaultTTL = 8 * time.Minute

type Clock func() time.Time

type Option func(*Store)

func WithClock(clock Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// Store keeps conversation contexts in memory. Expired entries are dropped
// lazily on Get and swept on every Set; there is no background timer.
// The mutex only protects the map; callers still serialize turns of one
// conversation.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[string]*models.ConversationContext
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*models.ConversationContext),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the live context for id, or nil.
func (s *Store) Get(id string) *models.ConversationContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil
	}
	if entry.IsExpired(s.now(), s.ttl) {
		delete(s.entries, id)
		metrics.ConversationContexts.Set(float64(len(s.entries)))
		return nil
	}
	return entry.Clone()
}

// Set merges update over the stored context, creating it if needed, and
// returns a copy of the result.
func (s *Store) Set(id string, update models.ContextUpdate) *models.ConversationContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	entry, ok := s.entries[id]
	if !ok {
		entry = &models.ConversationContext{ConversationID: id}
		s.entries[id] = entry
	}

	if update.ActiveIntent != nil {
		entry.ActiveIntent = *update.ActiveIntent
	}
	if update.WaitingFor != nil {
		entry.WaitingFor = *update.WaitingFor
	}
	if update.Email != nil && *update.Email != "" {
		entry.CollectedData.Email = *update.Email
	}
	if update.OrderNumbers != nil {
		entry.CollectedData.OrderNumbers = append([]string(nil), update.OrderNumbers...)
	}
	entry.Timestamp = now
	entry.MessageCount++

	metrics.ConversationContexts.Set(float64(len(s.entries)))
	return entry.Clone()
}

// Len reports the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) sweep(now time.Time) {
	for id, entry := range s.entries {
		if entry.IsExpired(now, s.ttl) {
			delete(s.entries, id)
		}
	}
}
