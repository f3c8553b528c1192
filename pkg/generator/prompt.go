package generator

import (
	"fmt"
	"strings"
)

// PromptBuilder helps construct the generation prompt from session context
type PromptBuilder struct {
	context  []string
	snippets []string
	resume   string
	question string
}

// NewPromptBuilder creates an empty prompt builder
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		context:  make([]string, 0),
		snippets: make([]string, 0),
	}
}

// AddContext adds a recent conversation entry to the prompt
func (pb *PromptBuilder) AddContext(context string) *PromptBuilder {
	pb.context = append(pb.context, context)
	return pb
}

// AddSnippet adds a knowledge-base snippet to the prompt
func (pb *PromptBuilder) AddSnippet(snippet string) *PromptBuilder {
	pb.snippets = append(pb.snippets, snippet)
	return pb
}

// SetResume attaches resume text to the prompt
func (pb *PromptBuilder) SetResume(resume string) *PromptBuilder {
	pb.resume = resume
	return pb
}

// SetQuestion sets the question the answer should address
func (pb *PromptBuilder) SetQuestion(question string) *PromptBuilder {
	pb.question = question
	return pb
}

// Build constructs the final prompt
func (pb *PromptBuilder) Build() string {
	var parts []string

	if pb.resume != "" {
		parts = append(parts, "## Candidate Resume:")
		parts = append(parts, pb.resume)
	}

	if len(pb.snippets) > 0 {
		parts = append(parts, "\n## Reference Material:")
		for _, snippet := range pb.snippets {
			parts = append(parts, fmt.Sprintf("- %s", snippet))
		}
	}

	if len(pb.context) > 0 {
		parts = append(parts, "\n## Recent Conversation:")
		for _, ctx := range pb.context {
			parts = append(parts, fmt.Sprintf("- %s", ctx))
		}
	}

	parts = append(parts, "\n## Question:")
	parts = append(parts, pb.question)

	return strings.Join(parts, "\n")
}
