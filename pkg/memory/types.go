package memory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind labels what a memory entry captured
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
	KindContext  Kind = "context"
)

// MaxEntriesPerSession caps how many entries a session retains. When the cap
// is exceeded the oldest entries are evicted first, regardless of importance.
const MaxEntriesPerSession = 50

// Entry represents one recorded interaction in a session's memory log
type Entry struct {
	*gorm.Model

	SessionID  uuid.UUID `json:"session_id" gorm:"type:char(36);not null;index"`
	Kind       Kind      `json:"kind" gorm:"size:20;not null"`
	Content    string    `json:"content" gorm:"type:text"`
	Importance float64   `json:"importance"`
}

// TableName sets the table name for GORM
func (Entry) TableName() string {
	return "memory_entries"
}

// NewEntry creates a memory entry with its importance computed from the content
func NewEntry(sessionID uuid.UUID, kind Kind, content string) *Entry {
	return &Entry{
		Model:      &gorm.Model{},
		SessionID:  sessionID,
		Kind:       kind,
		Content:    content,
		Importance: ScoreImportance(kind, content),
	}
}
