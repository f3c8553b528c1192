// Package resume stores raw resume text attached to a session, surfaced as
// extra context during answer generation.
package resume

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Text is the stored resume text for one session
type Text struct {
	*gorm.Model

	SessionID uuid.UUID `json:"session_id" gorm:"type:char(36);uniqueIndex;not null"`
	Content   string    `json:"content" gorm:"type:text"`
}

// TableName sets the table name for GORM
func (Text) TableName() string {
	return "resume_texts"
}

// Store interface defines methods for resume text persistence
type Store interface {
	Set(ctx context.Context, sessionID uuid.UUID, content string) error
	Get(ctx context.Context, sessionID uuid.UUID) (string, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	Close() error
}

// MySqlStore handles resume persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a new resume store with GORM connection
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MySqlStore{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(&Text{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// Set stores or replaces the resume text for a session
func (s *MySqlStore) Set(ctx context.Context, sessionID uuid.UUID, content string) error {
	var existing Text
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			record := &Text{Model: &gorm.Model{}, SessionID: sessionID, Content: content}
			if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
				return fmt.Errorf("failed to create resume text: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to check existing resume text: %w", result.Error)
	}

	if err := s.db.WithContext(ctx).Model(&Text{}).Where("session_id = ?", sessionID).
		Update("content", content).Error; err != nil {
		return fmt.Errorf("failed to update resume text: %w", err)
	}
	return nil
}

// Get retrieves the resume text for a session, empty when none is stored
func (s *MySqlStore) Get(ctx context.Context, sessionID uuid.UUID) (string, error) {
	var record Text
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get resume text: %w", result.Error)
	}

	return record.Content, nil
}

// Delete removes the resume text for a session
func (s *MySqlStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Text{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete resume text: %w", result.Error)
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

// InMemoryStore is a map-backed resume store used by tests and the
// commandline runner
type InMemoryStore struct {
	texts map[uuid.UUID]string
	mu    sync.RWMutex
}

// NewInMemoryStore creates a new in-memory resume store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{texts: make(map[uuid.UUID]string)}
}

// Set stores or replaces the resume text for a session
func (s *InMemoryStore) Set(ctx context.Context, sessionID uuid.UUID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[sessionID] = content
	return nil
}

// Get retrieves the resume text for a session, empty when none is stored
func (s *InMemoryStore) Get(ctx context.Context, sessionID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.texts[sessionID], nil
}

// Delete removes the resume text for a session
func (s *InMemoryStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.texts, sessionID)
	return nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}
