package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InMemoryStore is a map-backed session store used by tests and the
// commandline runner
type InMemoryStore struct {
	sessions map[uuid.UUID]*Session
	captions map[uuid.UUID][]*CaptionFragment
	answers  map[uuid.UUID][]*Answer
	nextID   uint
	mu       sync.RWMutex
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[uuid.UUID]*Session),
		captions: make(map[uuid.UUID][]*CaptionFragment),
		answers:  make(map[uuid.UUID][]*Answer),
	}
}

// CreateSession creates a new session in memory
func (s *InMemoryStore) CreateSession(ctx context.Context, meta Metadata) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := NewSession(meta)
	session.Model.CreatedAt = time.Now().UTC()

	s.sessions[session.ID] = session
	s.captions[session.ID] = []*CaptionFragment{}
	s.answers[session.ID] = []*Answer{}

	return session, nil
}

// GetSession retrieves a snapshot of a session by ID. Returning a copy keeps
// callers from reading fields the store mutates under its own lock.
func (s *InMemoryStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	snapshot := *session
	return &snapshot, nil
}

// GetSessionWithCaptions retrieves a session with its captions attached
func (s *InMemoryStore) GetSessionWithCaptions(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	snapshot := *session
	snapshot.Captions = append([]*CaptionFragment{}, s.captions[sessionID]...)
	return &snapshot, nil
}

// AppendCaption appends a caption fragment to an active session
func (s *InMemoryStore) AppendCaption(ctx context.Context, sessionID uuid.UUID, speaker Speaker, text string) (*CaptionFragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if !session.Active() {
		return nil, ErrSessionClosed
	}

	fragment := NewCaptionFragment(sessionID, speaker, text)
	s.nextID++
	fragment.Model = &gorm.Model{ID: s.nextID, CreatedAt: time.Now().UTC()}

	s.captions[sessionID] = append(s.captions[sessionID], fragment)
	session.LastActivity = time.Now().UTC()

	return fragment, nil
}

// EndSession marks a session as ended
func (s *InMemoryStore) EndSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if !session.Active() {
		return nil, ErrSessionClosed
	}

	now := time.Now().UTC()
	session.EndedAt = &now

	return session, nil
}

// DeleteSession removes a session and everything it owns
func (s *InMemoryStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	delete(s.captions, sessionID)
	delete(s.answers, sessionID)

	return nil
}

// SaveAnswer saves an answer, rejecting writes into closed sessions
func (s *InMemoryStore) SaveAnswer(ctx context.Context, answer *Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[answer.SessionID]
	if !exists {
		return ErrSessionNotFound
	}
	if !session.Active() {
		return ErrSessionClosed
	}

	s.nextID++
	answer.Model = &gorm.Model{ID: s.nextID, CreatedAt: time.Now().UTC()}
	s.answers[answer.SessionID] = append(s.answers[answer.SessionID], answer)

	return nil
}

// GetSessionAnswers retrieves all answers for a session in creation order
func (s *InMemoryStore) GetSessionAnswers(ctx context.Context, sessionID uuid.UUID) ([]*Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return nil, ErrSessionNotFound
	}

	return append([]*Answer{}, s.answers[sessionID]...), nil
}

// GetSessionCaptions retrieves all caption fragments for a session in arrival order
func (s *InMemoryStore) GetSessionCaptions(ctx context.Context, sessionID uuid.UUID) ([]*CaptionFragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return nil, ErrSessionNotFound
	}

	return append([]*CaptionFragment{}, s.captions[sessionID]...), nil
}

// ExpiredSessions returns sessions whose last activity is older than the cutoff
func (s *InMemoryStore) ExpiredSessions(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []*Session
	for _, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			expired = append(expired, session)
		}
	}

	return expired, nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}
