package memory

import (
	"sync"

	"portfolio-chat/internal/domain"
)

type Store struct {
	mu            sync.Mutex
	greeting      string
	conversations map[string][]domain.Turn
}

func NewStore(greeting string) *Store {
	return &Store{
		greeting:      greeting,
		conversations: make(map[string][]domain.Turn),
	}
}

// Turns returns a copy of the session's conversation, seeding it with the
// greeting on first access.
func (s *Store) Turns(sessionID string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.ensure(sessionID)
	return append([]domain.Turn(nil), history...)
}

func (s *Store) Append(sessionID string, turns ...domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[sessionID] = append(s.ensure(sessionID), turns...)
}

func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, sessionID)
}

// ensure must be called with mu held.
func (s *Store) ensure(sessionID string) []domain.Turn {
	history, ok := s.conversations[sessionID]
	if !ok {
		history = []domain.Turn{domain.AssistantTurn(s.greeting)}
		s.conversations[sessionID] = history
	}
	return history
}
