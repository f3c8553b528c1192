// Package generator builds answer prompts from session memory, resume text,
// and knowledge-base snippets, and delegates text generation to an external
// LLM provider behind a bounded retry policy.
package generator

import (
	"context"
	"fmt"
	"log"

	"github.com/ethanbaker/copilot/pkg/knowledge"
	"github.com/ethanbaker/copilot/pkg/memory"
	"github.com/ethanbaker/copilot/pkg/resume"
	"github.com/google/uuid"
)

// FallbackAnswerText is returned to clients when generation fails so the
// broadcast pipeline never stalls on a provider outage
const FallbackAnswerText = "I couldn't generate an answer for this question."

// DefaultSystemPrompt is used when no prompt file is configured
const DefaultSystemPrompt = "You are an interview copilot. Using the candidate's resume, " +
	"reference material, and the recent conversation, suggest a concise, natural " +
	"answer the candidate could give to the interviewer's question."

// Default context sizes for prompt building
const (
	defaultContextSize  = 10
	defaultSnippetLimit = 3
)

// Result holds a successfully generated answer
type Result struct {
	AnswerText string
	UsedMemory bool
}

// Options configures optional generator behavior
type Options struct {
	// ContextSize caps how many memory entries are placed into the prompt
	ContextSize int

	// SnippetLimit caps how many knowledge snippets are placed into the prompt
	SnippetLimit int

	// SystemPrompt overrides the default system prompt
	SystemPrompt string

	// Retry overrides the default bounded-retry policy
	Retry *RetryPolicy
}

// Generator produces answers for detected questions
type Generator struct {
	provider  Provider
	memories  memory.Store
	resumes   resume.Store
	snippets  knowledge.Store
	retry     RetryPolicy
	system    string
	ctxSize   int
	sniplimit int
}

// New creates a generator. The resume and knowledge stores are optional
// collaborators and may be nil.
func New(provider Provider, memories memory.Store, resumes resume.Store, snippets knowledge.Store, opts *Options) *Generator {
	g := &Generator{
		provider:  provider,
		memories:  memories,
		resumes:   resumes,
		snippets:  snippets,
		retry:     DefaultRetryPolicy,
		system:    DefaultSystemPrompt,
		ctxSize:   defaultContextSize,
		sniplimit: defaultSnippetLimit,
	}

	if opts != nil {
		if opts.ContextSize > 0 {
			g.ctxSize = opts.ContextSize
		}
		if opts.SnippetLimit > 0 {
			g.sniplimit = opts.SnippetLimit
		}
		if opts.SystemPrompt != "" {
			g.system = opts.SystemPrompt
		}
		if opts.Retry != nil {
			g.retry = *opts.Retry
		}
	}

	return g
}

// Generate builds a prompt for the question and calls the provider. A
// provider failure that survives the retry policy is returned as a
// *ProviderError; callers convert it into a fallback answer.
func (g *Generator) Generate(ctx context.Context, sessionID uuid.UUID, questionText string) (*Result, error) {
	prompt, usedMemory := g.buildPrompt(ctx, sessionID, questionText)

	answer, err := g.retry.Do(ctx, func(ctx context.Context) (string, error) {
		return g.provider.Complete(ctx, g.system, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Result{AnswerText: answer, UsedMemory: usedMemory}, nil
}

// buildPrompt gathers memory, resume, and knowledge context. Lookups in the
// optional collaborators degrade to a context-free prompt instead of failing
// the generation.
func (g *Generator) buildPrompt(ctx context.Context, sessionID uuid.UUID, questionText string) (string, bool) {
	builder := NewPromptBuilder().SetQuestion(questionText)
	usedMemory := false

	entries, err := g.memories.Context(ctx, sessionID, g.ctxSize)
	if err != nil {
		log.Printf("[GENERATOR]: Failed to load memory context: %v", err)
	}
	for _, entry := range entries {
		builder.AddContext(fmt.Sprintf("%s: %s", entry.Kind, entry.Content))
		usedMemory = true
	}

	if g.resumes != nil {
		text, err := g.resumes.Get(ctx, sessionID)
		if err != nil {
			log.Printf("[GENERATOR]: Failed to load resume text: %v", err)
		} else if text != "" {
			builder.SetResume(text)
		}
	}

	if g.snippets != nil {
		hits, err := g.snippets.Search(ctx, questionText, g.sniplimit)
		if err != nil {
			log.Printf("[GENERATOR]: Failed to search knowledge base: %v", err)
		}
		for _, hit := range hits {
			builder.AddSnippet(fmt.Sprintf("%s: %s", hit.Topic, hit.Content))
		}
	}

	return builder.Build(), usedMemory
}
