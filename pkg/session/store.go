package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Store interface defines methods for session and caption persistence
type Store interface {
	CreateSession(ctx context.Context, meta Metadata) (*Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	GetSessionWithCaptions(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	AppendCaption(ctx context.Context, sessionID uuid.UUID, speaker Speaker, text string) (*CaptionFragment, error)
	EndSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	SaveAnswer(ctx context.Context, answer *Answer) error
	GetSessionAnswers(ctx context.Context, sessionID uuid.UUID) ([]*Answer, error)
	GetSessionCaptions(ctx context.Context, sessionID uuid.UUID) ([]*CaptionFragment, error)
	ExpiredSessions(ctx context.Context, cutoff time.Time) ([]*Session, error)
	Close() error
}

// MySqlStore handles session persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a new session store with GORM connection
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MySqlStore{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(&Session{}, &CaptionFragment{}, &Answer{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// CreateSession creates a new session in the database
func (s *MySqlStore) CreateSession(ctx context.Context, meta Metadata) (*Session, error) {
	session := NewSession(meta)

	result := s.db.WithContext(ctx).Create(session)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create session: %w", result.Error)
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (s *MySqlStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var session Session
	result := s.db.WithContext(ctx).First(&session, "id = ?", sessionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", result.Error)
	}

	return &session, nil
}

// GetSessionWithCaptions retrieves a session by ID with its captions preloaded
// in arrival order
func (s *MySqlStore) GetSessionWithCaptions(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var session Session
	result := s.db.WithContext(ctx).
		Preload("Captions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&session, "id = ?", sessionID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session with captions: %w", result.Error)
	}

	return &session, nil
}

// AppendCaption appends a caption fragment to an active session and bumps the
// session's last activity time
func (s *MySqlStore) AppendCaption(ctx context.Context, sessionID uuid.UUID, speaker Speaker, text string) (*CaptionFragment, error) {
	fragment := NewCaptionFragment(sessionID, speaker, text)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := lockSession(tx, sessionID)
		if err != nil {
			return err
		}
		if !session.Active() {
			return ErrSessionClosed
		}

		if err := tx.Create(fragment).Error; err != nil {
			return fmt.Errorf("failed to save caption: %w", err)
		}

		return tx.Model(&Session{}).Where("id = ?", sessionID).
			Update("last_activity", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, err
	}

	return fragment, nil
}

// EndSession marks a session as ended. Ending an already-ended session
// returns ErrSessionClosed.
func (s *MySqlStore) EndSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var session *Session

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = lockSession(tx, sessionID)
		if err != nil {
			return err
		}
		if !session.Active() {
			return ErrSessionClosed
		}

		now := time.Now().UTC()
		session.EndedAt = &now
		return tx.Model(&Session{}).Where("id = ?", sessionID).
			Update("ended_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// DeleteSession deletes a session, its captions, and its answers
func (s *MySqlStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&CaptionFragment{}).Error; err != nil {
			return fmt.Errorf("failed to delete session captions: %w", err)
		}

		if err := tx.Where("session_id = ?", sessionID).Delete(&Answer{}).Error; err != nil {
			return fmt.Errorf("failed to delete session answers: %w", err)
		}

		if err := tx.Where("id = ?", sessionID).Delete(&Session{}).Error; err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		return nil
	})
}

// SaveAnswer saves an answer, rejecting writes into closed sessions
func (s *MySqlStore) SaveAnswer(ctx context.Context, answer *Answer) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := lockSession(tx, answer.SessionID)
		if err != nil {
			return err
		}
		if !session.Active() {
			return ErrSessionClosed
		}

		if err := tx.Create(answer).Error; err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}
		return nil
	})
}

// GetSessionAnswers retrieves all answers for a session in creation order
func (s *MySqlStore) GetSessionAnswers(ctx context.Context, sessionID uuid.UUID) ([]*Answer, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	var answers []*Answer
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&answers)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query answers: %w", result.Error)
	}

	return answers, nil
}

// GetSessionCaptions retrieves all caption fragments for a session in arrival order
func (s *MySqlStore) GetSessionCaptions(ctx context.Context, sessionID uuid.UUID) ([]*CaptionFragment, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	var captions []*CaptionFragment
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&captions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query captions: %w", result.Error)
	}

	return captions, nil
}

// ExpiredSessions returns sessions whose last activity is older than the cutoff
func (s *MySqlStore) ExpiredSessions(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	var sessions []*Session
	result := s.db.WithContext(ctx).Where("last_activity < ?", cutoff).Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query expired sessions: %w", result.Error)
	}

	return sessions, nil
}

// GetDB returns the underlying GORM database connection
func (s *MySqlStore) GetDB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *MySqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

// lockSession fetches a session inside a transaction, mapping missing rows to
// ErrSessionNotFound
func lockSession(tx *gorm.DB, sessionID uuid.UUID) (*Session, error) {
	var session Session
	if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}
