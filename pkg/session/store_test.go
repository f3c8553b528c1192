package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSpeaker(t *testing.T) {
	assert.True(t, ValidateSpeaker(SpeakerInterviewer))
	assert.True(t, ValidateSpeaker(SpeakerCandidate))
	assert.True(t, ValidateSpeaker(SpeakerUnknown))
	assert.False(t, ValidateSpeaker(Speaker("moderator")))
	assert.False(t, ValidateSpeaker(Speaker("")))
}

func TestCreateAndGetSession(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{
		ParticipantLabel: "candidate-1",
		Level:            "senior",
		Company:          "acme",
	})
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.NotEqual(t, uuid.Nil, sess.ID)
	assert.True(t, sess.Active())
	assert.Equal(t, "candidate-1", sess.ParticipantLabel)

	found, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
}

func TestGetSessionNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.GetSession(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppendCaption(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	before := sess.LastActivity

	fragment, err := store.AppendCaption(ctx, sess.ID, SpeakerInterviewer, "hello there")
	require.NoError(t, err)
	require.NotNil(t, fragment)

	assert.Equal(t, sess.ID, fragment.SessionID)
	assert.Equal(t, SpeakerInterviewer, fragment.Speaker)
	assert.NotZero(t, fragment.Model.ID)

	// Appending bumps the session's last activity
	updated, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, updated.LastActivity.Before(before))
}

func TestGetSessionReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	snapshot, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)

	// The snapshot is detached from the stored session in both directions
	_, err = store.EndSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.Active())

	snapshot.LastActivity = time.Now().UTC().Add(-48 * time.Hour)
	current, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotEqual(t, snapshot.LastActivity, current.LastActivity)
}

func TestAppendCaptionOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		_, err := store.AppendCaption(ctx, sess.ID, SpeakerCandidate, text)
		require.NoError(t, err)
	}

	captions, err := store.GetSessionCaptions(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, captions, 3)

	for i, text := range texts {
		assert.Equal(t, text, captions[i].Text)
	}
}

func TestAppendCaptionClosedSession(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, err = store.EndSession(ctx, sess.ID)
	require.NoError(t, err)

	_, err = store.AppendCaption(ctx, sess.ID, SpeakerInterviewer, "too late")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	ended, err := store.EndSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, ended.Active())
	assert.NotNil(t, ended.EndedAt)

	// Ending twice is a conflict, not an idempotent no-op
	_, err = store.EndSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionClosed)

	// The session remains readable after ending
	found, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, found.Active())
}

func TestSaveAnswer(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	answer := NewAnswer(sess.ID, "what is go?", "a programming language", true, false)
	require.NoError(t, store.SaveAnswer(ctx, answer))

	answers, err := store.GetSessionAnswers(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "what is go?", answers[0].QuestionText)
	assert.True(t, answers[0].UsedMemory)
}

func TestSaveAnswerClosedSession(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, err = store.EndSession(ctx, sess.ID)
	require.NoError(t, err)

	answer := NewAnswer(sess.ID, "q", "a", false, false)
	assert.ErrorIs(t, store.SaveAnswer(ctx, answer), ErrSessionClosed)
}

func TestGetSessionWithCaptions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, err = store.AppendCaption(ctx, sess.ID, SpeakerInterviewer, "welcome")
	require.NoError(t, err)

	snapshot, err := store.GetSessionWithCaptions(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Captions, 1)
	assert.Equal(t, "welcome", snapshot.Captions[0].Text)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sess, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "candidate-1"})
	require.NoError(t, err)

	_, err = store.AppendCaption(ctx, sess.ID, SpeakerInterviewer, "hello")
	require.NoError(t, err)
	require.NoError(t, store.SaveAnswer(ctx, NewAnswer(sess.ID, "q", "a", false, false)))

	require.NoError(t, store.DeleteSession(ctx, sess.ID))

	_, err = store.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.GetSessionCaptions(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.GetSessionAnswers(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	stale, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "stale"})
	require.NoError(t, err)
	stale.LastActivity = time.Now().UTC().Add(-48 * time.Hour)

	fresh, err := store.CreateSession(ctx, Metadata{ParticipantLabel: "fresh"})
	require.NoError(t, err)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	expired, err := store.ExpiredSessions(ctx, cutoff)
	require.NoError(t, err)

	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.NotEqual(t, fresh.ID, expired[0].ID)
}
