package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Store interface defines methods for session memory persistence
type Store interface {
	Record(ctx context.Context, sessionID uuid.UUID, kind Kind, content string) (*Entry, error)
	Context(ctx context.Context, sessionID uuid.UUID, maxItems int) ([]*Entry, error)
	Entries(ctx context.Context, sessionID uuid.UUID) ([]*Entry, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	Close() error
}

// MySqlStore handles memory persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a new memory store with GORM connection
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MySqlStore{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// Record appends an interaction to the session's memory log, computing its
// importance and evicting the oldest entries beyond the per-session cap
func (s *MySqlStore) Record(ctx context.Context, sessionID uuid.UUID, kind Kind, content string) (*Entry, error) {
	entry := NewEntry(sessionID, kind, content)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to save memory entry: %w", err)
		}

		var count int64
		if err := tx.Model(&Entry{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count memory entries: %w", err)
		}

		// Eviction is oldest-first by insertion order, not importance
		if count > MaxEntriesPerSession {
			var stale []*Entry
			if err := tx.Where("session_id = ?", sessionID).
				Order("id ASC").Limit(int(count - MaxEntriesPerSession)).
				Find(&stale).Error; err != nil {
				return fmt.Errorf("failed to find stale entries: %w", err)
			}

			ids := make([]uint, 0, len(stale))
			for _, e := range stale {
				ids = append(ids, e.Model.ID)
			}
			if err := tx.Where("id IN ?", ids).Delete(&Entry{}).Error; err != nil {
				return fmt.Errorf("failed to evict memory entries: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Context returns up to maxItems entries for prompt building, most important
// first with ties broken by recency
func (s *MySqlStore) Context(ctx context.Context, sessionID uuid.UUID, maxItems int) ([]*Entry, error) {
	var entries []*Entry
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("importance DESC").Order("id DESC").Limit(maxItems).
		Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query memory context: %w", result.Error)
	}

	return entries, nil
}

// Entries returns the full retained memory log for a session in insertion order
func (s *MySqlStore) Entries(ctx context.Context, sessionID uuid.UUID) ([]*Entry, error) {
	var entries []*Entry
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query memory entries: %w", result.Error)
	}

	return entries, nil
}

// DeleteSession removes all memory entries owned by a session
func (s *MySqlStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Entry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session memory: %w", result.Error)
	}

	return nil
}

// Close closes the database connection
func (s *MySqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

// InMemoryStore is a map-backed memory store used by tests and the
// commandline runner
type InMemoryStore struct {
	entries map[uuid.UUID][]*Entry
	nextID  uint
	mu      sync.RWMutex
}

// NewInMemoryStore creates a new in-memory memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[uuid.UUID][]*Entry),
	}
}

// Record appends an interaction and evicts the oldest entries beyond the cap
func (s *InMemoryStore) Record(ctx context.Context, sessionID uuid.UUID, kind Kind, content string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := NewEntry(sessionID, kind, content)
	s.nextID++
	entry.Model = &gorm.Model{ID: s.nextID, CreatedAt: time.Now().UTC()}

	log := append(s.entries[sessionID], entry)
	if len(log) > MaxEntriesPerSession {
		log = log[len(log)-MaxEntriesPerSession:]
	}
	s.entries[sessionID] = log

	return entry, nil
}

// Context returns up to maxItems entries, most important first with ties
// broken by recency
func (s *InMemoryStore) Context(ctx context.Context, sessionID uuid.UUID, maxItems int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]*Entry{}, s.entries[sessionID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Importance != entries[j].Importance {
			return entries[i].Importance > entries[j].Importance
		}
		return entries[i].Model.ID > entries[j].Model.ID
	})

	if len(entries) > maxItems {
		entries = entries[:maxItems]
	}
	return entries, nil
}

// Entries returns the retained memory log in insertion order
func (s *InMemoryStore) Entries(ctx context.Context, sessionID uuid.UUID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*Entry{}, s.entries[sessionID]...), nil
}

// DeleteSession removes all memory entries owned by a session
func (s *InMemoryStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}
