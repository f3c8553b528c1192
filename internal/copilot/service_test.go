package copilot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbaker/copilot/pkg/broadcast"
	"github.com/ethanbaker/copilot/pkg/generator"
	"github.com/ethanbaker/copilot/pkg/memory"
	"github.com/ethanbaker/copilot/pkg/resume"
	"github.com/ethanbaker/copilot/pkg/session"
)

// scriptedProvider returns a fixed answer or error for every call
type scriptedProvider struct {
	answer string
	err    error
}

func (p *scriptedProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.answer, nil
}

// newTestService builds a fully in-memory service around the given provider
func newTestService(provider generator.Provider) *Service {
	memories := memory.NewInMemoryStore()
	resumes := resume.NewInMemoryStore()

	gen := generator.New(provider, memories, resumes, nil, &generator.Options{
		Retry: &generator.RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond},
	})

	return NewService(session.NewInMemoryStore(), memories, resumes, gen, broadcast.NewHub(0), nil)
}

func TestStartAndGetSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "ok"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)
	assert.True(t, sess.Active())

	found, err := service.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
}

func TestIngestCaptionQuestionPipeline(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "a goroutine is a lightweight thread"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	fragment, detection, err := service.IngestCaption(ctx, sess.ID, session.SpeakerInterviewer, "What is a goroutine?")
	require.NoError(t, err)
	require.NotNil(t, fragment)
	assert.True(t, detection.IsQuestion)

	service.WaitForGenerations()

	answers, err := service.Answers(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)

	assert.Equal(t, "What is a goroutine?", answers[0].QuestionText)
	assert.Equal(t, "a goroutine is a lightweight thread", answers[0].AnswerText)
	assert.False(t, answers[0].Fallback)

	// Both the question and the generated answer land in memory
	entries, err := service.Memory(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, memory.KindQuestion, entries[0].Kind)
	assert.Equal(t, memory.KindAnswer, entries[1].Kind)
}

func TestIngestCaptionNonQuestion(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "unused"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, detection, err := service.IngestCaption(ctx, sess.ID, session.SpeakerCandidate, "I enjoyed working there.")
	require.NoError(t, err)
	assert.False(t, detection.IsQuestion)

	service.WaitForGenerations()

	// No answer is generated, but the caption is remembered as context
	answers, err := service.Answers(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)

	entries, err := service.Memory(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, memory.KindContext, entries[0].Kind)
}

func TestGenerationFailureProducesFallback(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{err: errors.New("provider down")})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, _, err = service.IngestCaption(ctx, sess.ID, session.SpeakerInterviewer, "What is a mutex?")
	require.NoError(t, err)

	service.WaitForGenerations()

	answers, err := service.Answers(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)

	assert.True(t, answers[0].Fallback)
	assert.Equal(t, generator.FallbackAnswerText, answers[0].AnswerText)
}

func TestIngestIntoClosedSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "ok"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, err = service.EndSession(ctx, sess.ID)
	require.NoError(t, err)

	_, _, err = service.IngestCaption(ctx, sess.ID, session.SpeakerInterviewer, "Still there?")
	assert.ErrorIs(t, err, session.ErrSessionClosed)
}

func TestSubscriberReceivesPipelineEvents(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "generated answer"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	sub, err := service.Subscribe(ctx, sess.ID)
	require.NoError(t, err)
	defer sub.Close()

	_, _, err = service.IngestCaption(ctx, sess.ID, session.SpeakerInterviewer, "What is a channel?")
	require.NoError(t, err)

	service.WaitForGenerations()

	kinds := make(map[broadcast.Kind]bool)
	for i := 0; i < 2; i++ {
		select {
		case event := <-sub.Events:
			kinds[event.Kind] = true
		case <-time.After(time.Second):
			t.Fatal("expected caption and answer events")
		}
	}

	assert.True(t, kinds[broadcast.KindCaptionAdded])
	assert.True(t, kinds[broadcast.KindAnswerReady])
}

func TestMemoryVisibleBeforeAnswerReady(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "a goroutine is a lightweight thread"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	sub, err := service.Subscribe(ctx, sess.ID)
	require.NoError(t, err)
	defer sub.Close()

	_, _, err = service.IngestCaption(ctx, sess.ID, session.SpeakerInterviewer, "What is a goroutine?")
	require.NoError(t, err)

	// By the time answer_ready reaches a subscriber, both the question and
	// the answer must already be readable from the memory log
	deadline := time.After(time.Second)
	for {
		var event broadcast.Event
		select {
		case event = <-sub.Events:
		case <-deadline:
			t.Fatal("expected an answer_ready event")
		}
		if event.Kind != broadcast.KindAnswerReady {
			continue
		}

		entries, err := service.Memory(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, memory.KindQuestion, entries[0].Kind)
		assert.Equal(t, memory.KindAnswer, entries[1].Kind)
		return
	}
}

func TestEndSessionDetachesSubscribers(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "ok"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	sub, err := service.Subscribe(ctx, sess.ID)
	require.NoError(t, err)

	_, err = service.EndSession(ctx, sess.ID)
	require.NoError(t, err)

	// The session_ended event arrives, then the channel closes
	var sawEnded bool
	for {
		event, open := <-sub.Events
		if !open {
			break
		}
		if event.Kind == broadcast.KindSessionEnded {
			sawEnded = true
		}
	}
	assert.True(t, sawEnded)
}

func TestAnswerRacingSessionEndIsDropped(t *testing.T) {
	ctx := context.Background()

	// The provider blocks until released so the session can end mid-generation
	release := make(chan struct{})
	provider := &blockingProvider{release: release, answer: "late answer"}
	service := newTestService(provider)
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, _, err = service.IngestCaption(ctx, sess.ID, session.SpeakerInterviewer, "What happens on shutdown?")
	require.NoError(t, err)

	_, err = service.EndSession(ctx, sess.ID)
	require.NoError(t, err)

	close(release)
	service.WaitForGenerations()

	answers, err := service.Answers(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

// blockingProvider waits for release before answering
type blockingProvider struct {
	release chan struct{}
	answer  string
}

func (p *blockingProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	select {
	case <-p.release:
		return p.answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestSetResume(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "ok"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	require.NoError(t, service.SetResume(ctx, sess.ID, "resume text"))

	_, err = service.EndSession(ctx, sess.ID)
	require.NoError(t, err)

	// Closed sessions reject resume updates
	assert.ErrorIs(t, service.SetResume(ctx, sess.ID, "too late"), session.ErrSessionClosed)
}

func TestRemoveSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(&scriptedProvider{answer: "ok"})
	defer service.Stop()

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, _, err = service.IngestCaption(ctx, sess.ID, session.SpeakerCandidate, "Some context.")
	require.NoError(t, err)
	require.NoError(t, service.SetResume(ctx, sess.ID, "resume text"))

	require.NoError(t, service.RemoveSession(ctx, sess.ID))

	_, err = service.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = service.Memory(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
