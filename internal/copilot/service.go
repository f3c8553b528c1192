// Package copilot wires the session pipeline together: caption ingest,
// question detection, answer generation, memory updates, and event broadcast.
// The service object is constructed once at process start and handed to
// request handlers; there is no module-global state.
package copilot

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ethanbaker/copilot/pkg/broadcast"
	"github.com/ethanbaker/copilot/pkg/detector"
	"github.com/ethanbaker/copilot/pkg/generator"
	"github.com/ethanbaker/copilot/pkg/memory"
	"github.com/ethanbaker/copilot/pkg/resume"
	"github.com/ethanbaker/copilot/pkg/session"
	"github.com/google/uuid"
)

// defaultGenerationTimeout bounds a single in-flight answer generation
const defaultGenerationTimeout = 30 * time.Second

// Options configures optional service behavior
type Options struct {
	// GenerationTimeout bounds how long one answer generation may run
	GenerationTimeout time.Duration
}

// Service coordinates the realtime session pipeline
type Service struct {
	sessions  session.Store
	memories  memory.Store
	resumes   resume.Store
	generator *generator.Generator
	hub       *broadcast.Hub

	genTimeout time.Duration
	inflight   sync.WaitGroup
}

// NewService creates the pipeline service from its collaborators
func NewService(sessions session.Store, memories memory.Store, resumes resume.Store, gen *generator.Generator, hub *broadcast.Hub, opts *Options) *Service {
	s := &Service{
		sessions:   sessions,
		memories:   memories,
		resumes:    resumes,
		generator:  gen,
		hub:        hub,
		genTimeout: defaultGenerationTimeout,
	}

	if opts != nil && opts.GenerationTimeout > 0 {
		s.genTimeout = opts.GenerationTimeout
	}

	return s
}

// StartSession creates a new session and announces it to subscribers
func (s *Service) StartSession(ctx context.Context, meta session.Metadata) (*session.Session, error) {
	sess, err := s.sessions.CreateSession(ctx, meta)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(broadcast.NewSessionStarted(sess.ID))
	return sess, nil
}

// GetSession retrieves a session snapshot with its captions
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	return s.sessions.GetSessionWithCaptions(ctx, sessionID)
}

// IngestCaption appends a caption fragment, classifies it, and kicks off
// answer generation when a question is detected. Generation runs off the
// request path so ingest stays fast.
func (s *Service) IngestCaption(ctx context.Context, sessionID uuid.UUID, speaker session.Speaker, text string) (*session.CaptionFragment, detector.Result, error) {
	fragment, err := s.sessions.AppendCaption(ctx, sessionID, speaker, text)
	if err != nil {
		return nil, detector.Result{}, err
	}

	s.hub.Publish(broadcast.NewCaptionAdded(fragment))

	result := detector.Detect(text)
	if result.IsQuestion {
		if _, err := s.memories.Record(ctx, sessionID, memory.KindQuestion, text); err != nil {
			log.Printf("[COPILOT]: Failed to record question in memory: %v", err)
		}

		s.inflight.Add(1)
		go s.generateAnswer(sessionID, text)
	} else {
		if _, err := s.memories.Record(ctx, sessionID, memory.KindContext, text); err != nil {
			log.Printf("[COPILOT]: Failed to record caption in memory: %v", err)
		}
	}

	return fragment, result, nil
}

// EndSession marks a session ended and notifies subscribers before detaching
// them
func (s *Service) EndSession(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.EndSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(broadcast.NewSessionEnded(sessionID))
	s.hub.CloseSession(sessionID)

	return sess, nil
}

// RemoveSession deletes a session and everything it owns. Used by the
// retention sweeper once a session passes its retention window.
func (s *Service) RemoveSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.memories.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.resumes.Delete(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, sessionID)
}

// Answers lists the answers generated for a session
func (s *Service) Answers(ctx context.Context, sessionID uuid.UUID) ([]*session.Answer, error) {
	return s.sessions.GetSessionAnswers(ctx, sessionID)
}

// Memory exposes the retained memory log with scores, for debugging
func (s *Service) Memory(ctx context.Context, sessionID uuid.UUID) ([]*memory.Entry, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.memories.Entries(ctx, sessionID)
}

// SetResume attaches resume text to an active session
func (s *Service) SetResume(ctx context.Context, sessionID uuid.UUID, text string) error {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.Active() {
		return session.ErrSessionClosed
	}

	return s.resumes.Set(ctx, sessionID, text)
}

// Subscribe attaches a streaming subscriber to an existing session
func (s *Service) Subscribe(ctx context.Context, sessionID uuid.UUID) (*broadcast.Subscription, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(sessionID), nil
}

// Sessions exposes the session store for collaborators like the retention
// sweeper
func (s *Service) Sessions() session.Store {
	return s.sessions
}

// WaitForGenerations blocks until all in-flight answer generations finish
func (s *Service) WaitForGenerations() {
	s.inflight.Wait()
}

// Stop detaches all subscribers and waits for in-flight generations
func (s *Service) Stop() {
	s.inflight.Wait()
	s.hub.Stop()
}

// generateAnswer runs one answer generation off the request path. The session
// ending first wins: answers are dropped instead of written into a closed
// session.
func (s *Service) generateAnswer(sessionID uuid.UUID, questionText string) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.genTimeout)
	defer cancel()

	answerText := generator.FallbackAnswerText
	usedMemory := false
	fallback := true

	result, err := s.generator.Generate(ctx, sessionID, questionText)
	if err != nil {
		log.Printf("[COPILOT]: Answer generation failed for session %s: %v", sessionID, err)
	} else {
		answerText = result.AnswerText
		usedMemory = result.UsedMemory
		fallback = false
	}

	answer := session.NewAnswer(sessionID, questionText, answerText, usedMemory, fallback)
	if err := s.sessions.SaveAnswer(ctx, answer); err != nil {
		if errors.Is(err, session.ErrSessionClosed) || errors.Is(err, session.ErrSessionNotFound) {
			log.Printf("[COPILOT]: Dropping answer for session %s: %v", sessionID, err)
			return
		}
		log.Printf("[COPILOT]: Failed to save answer for session %s: %v", sessionID, err)
		return
	}

	if _, err := s.memories.Record(ctx, sessionID, memory.KindAnswer, answerText); err != nil {
		log.Printf("[COPILOT]: Failed to record answer in memory: %v", err)
	}

	s.hub.Publish(broadcast.NewAnswerReady(answer))
}
