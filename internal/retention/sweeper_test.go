package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbaker/copilot/internal/copilot"
	"github.com/ethanbaker/copilot/pkg/broadcast"
	"github.com/ethanbaker/copilot/pkg/generator"
	"github.com/ethanbaker/copilot/pkg/memory"
	"github.com/ethanbaker/copilot/pkg/resume"
	"github.com/ethanbaker/copilot/pkg/session"
)

// nullProvider never answers; the sweeper tests never trigger generation
type nullProvider struct{}

func (nullProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", context.Canceled
}

func newSweeperFixture(t *testing.T, retentionDays int) (*copilot.Service, *Sweeper) {
	t.Helper()

	memories := memory.NewInMemoryStore()
	resumes := resume.NewInMemoryStore()
	gen := generator.New(nullProvider{}, memories, resumes, nil, nil)

	service := copilot.NewService(session.NewInMemoryStore(), memories, resumes, gen, broadcast.NewHub(0), nil)
	t.Cleanup(service.Stop)

	return service, NewSweeper(service, retentionDays, "")
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	ctx := context.Background()
	service, sweeper := newSweeperFixture(t, 30)

	stale, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "stale"})
	require.NoError(t, err)
	stale.LastActivity = time.Now().UTC().Add(-31 * 24 * time.Hour)

	fresh, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "fresh"})
	require.NoError(t, err)

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = service.GetSession(ctx, stale.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = service.GetSession(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestSweepNoExpiredSessions(t *testing.T) {
	ctx := context.Background()
	service, sweeper := newSweeperFixture(t, 30)

	_, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "fresh"})
	require.NoError(t, err)

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestSweepCascades(t *testing.T) {
	ctx := context.Background()
	service, sweeper := newSweeperFixture(t, 30)

	sess, err := service.StartSession(ctx, session.Metadata{ParticipantLabel: "stale"})
	require.NoError(t, err)

	_, _, err = service.IngestCaption(ctx, sess.ID, session.SpeakerCandidate, "Some earlier context.")
	require.NoError(t, err)
	require.NoError(t, service.SetResume(ctx, sess.ID, "resume text"))

	// Age the session past the window after the caption bumped its activity
	sess.LastActivity = time.Now().UTC().Add(-31 * 24 * time.Hour)

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = service.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = service.Memory(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestNewSweeperDefaults(t *testing.T) {
	_, sweeper := newSweeperFixture(t, 0)

	assert.Equal(t, time.Duration(DefaultRetentionDays)*24*time.Hour, sweeper.retention)
	assert.Equal(t, DefaultSchedule, sweeper.schedule)
}

func TestSweeperStartRejectsBadSchedule(t *testing.T) {
	service, _ := newSweeperFixture(t, 30)
	sweeper := NewSweeper(service, 30, "not a cron expression")

	assert.Error(t, sweeper.Start())
}
