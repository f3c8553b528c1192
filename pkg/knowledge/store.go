// Package knowledge provides keyword-ranked lookup over stored reference
// snippets. Ranking is term overlap, not embeddings.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Store interface defines methods for knowledge snippet lookup
type Store interface {
	Add(ctx context.Context, snippet *Snippet) error
	Search(ctx context.Context, query string, limit int) ([]*Snippet, error)
	Close() error
}

// stopWords are filtered out of queries before matching
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"what": true, "when": true, "where": true, "why": true, "how": true,
}

// queryTerms extracts searchable terms from natural language input
func queryTerms(input string) []string {
	words := strings.Fields(strings.ToLower(input))

	var terms []string
	for _, word := range words {
		word = strings.Trim(word, ",.!?")
		if len(word) > 2 && !stopWords[word] {
			terms = append(terms, word)
		}
	}
	return terms
}

// rank orders snippets by how many query terms they contain, dropping
// snippets that match nothing
func rank(snippets []*Snippet, terms []string, limit int) []*Snippet {
	type scored struct {
		snippet *Snippet
		hits    int
	}

	var matches []scored
	for _, snippet := range snippets {
		text := strings.ToLower(snippet.Topic + " " + snippet.Content)

		hits := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				hits++
			}
		}
		if hits > 0 {
			matches = append(matches, scored{snippet: snippet, hits: hits})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].hits > matches[j].hits
	})

	results := make([]*Snippet, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.snippet)
		if len(results) == limit {
			break
		}
	}
	return results
}

// MySqlStore handles snippet persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a new knowledge store with GORM connection
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MySqlStore{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(&Snippet{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// Add stores a new snippet
func (s *MySqlStore) Add(ctx context.Context, snippet *Snippet) error {
	// Snippets loaded from a seed file arrive without a model
	if snippet.Model == nil {
		snippet.Model = &gorm.Model{}
	}

	if err := s.db.WithContext(ctx).Create(snippet).Error; err != nil {
		return fmt.Errorf("failed to save snippet: %w", err)
	}
	return nil
}

// Search returns snippets ranked by query term overlap. Candidate rows are
// narrowed with LIKE filters, then ranked in memory.
func (s *MySqlStore) Search(ctx context.Context, query string, limit int) ([]*Snippet, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	db := s.db.WithContext(ctx)
	for i, term := range terms {
		pattern := "%" + term + "%"
		if i == 0 {
			db = db.Where("topic LIKE ? OR content LIKE ?", pattern, pattern)
		} else {
			db = db.Or("topic LIKE ? OR content LIKE ?", pattern, pattern)
		}
	}

	var candidates []*Snippet
	if err := db.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to search snippets: %w", err)
	}

	return rank(candidates, terms, limit), nil
}

// Close closes the database connection
func (s *MySqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

// InMemoryStore is a slice-backed knowledge store used by tests and the
// commandline runner
type InMemoryStore struct {
	snippets []*Snippet
	nextID   uint
	mu       sync.RWMutex
}

// NewInMemoryStore creates a new in-memory knowledge store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Add stores a new snippet
func (s *InMemoryStore) Add(ctx context.Context, snippet *Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snippet.Model == nil {
		snippet.Model = &gorm.Model{}
	}

	s.nextID++
	snippet.ID = s.nextID
	s.snippets = append(s.snippets, snippet)
	return nil
}

// Search returns snippets ranked by query term overlap
func (s *InMemoryStore) Search(ctx context.Context, query string, limit int) ([]*Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	return rank(s.snippets, terms, limit), nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}
