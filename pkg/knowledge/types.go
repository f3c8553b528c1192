package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Snippet is a small unit of reference material surfaced during answer
// generation
type Snippet struct {
	*gorm.Model
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	Topic   string `json:"topic" yaml:"topic" gorm:"size:255;index"`
	Content string `json:"content" yaml:"content" gorm:"type:text"`
}

// TableName sets the table name for GORM
func (Snippet) TableName() string {
	return "knowledge_snippets"
}

// snippetsFile is the YAML shape of a knowledge seed file
type snippetsFile struct {
	Snippets []*Snippet `yaml:"snippets"`
}

// LoadSnippetsFile reads snippets from a YAML seed file
func LoadSnippetsFile(path string) ([]*Snippet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snippets file: %w", err)
	}

	var file snippetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse snippets file: %w", err)
	}

	return file.Snippets, nil
}
