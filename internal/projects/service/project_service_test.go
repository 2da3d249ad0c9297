package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

func TestProjectService_Intake(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.projects.Intake(ctx, owner, domain.IntakeInput{Title: "  Loft conversion ", Notes: "north facing"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDraft, p.Status)
	assert.Equal(t, "Loft conversion", p.Title)
	assert.Equal(t, owner.UID, p.OwnerUID)

	_, err = f.projects.Intake(ctx, owner, domain.IntakeInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.projects.Intake(ctx, payments, domain.IntakeInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// the limit counts characters, not bytes
	wide := strings.Repeat("é", maxTitleLen)
	p, err = f.projects.Intake(ctx, owner, domain.IntakeInput{Title: wide})
	require.NoError(t, err)
	assert.Equal(t, wide, p.Title)

	_, err = f.projects.Intake(ctx, owner, domain.IntakeInput{Title: wide + "é"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProjectService_GetAndList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.seed(t, lifecycle.StatusQueued)
	_, err := f.projects.Intake(ctx, stranger, domain.IntakeInput{Title: "Other"})
	require.NoError(t, err)

	_, err = f.projects.Get(ctx, stranger, p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.projects.Get(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.projects.Get(ctx, admin, "fp-00000-0000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine, err := f.projects.List(ctx, owner, domain.ListFilter{OwnerUID: stranger.UID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)

	all, err := f.projects.List(ctx, admin, domain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProjectService_Queue(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed(t, lifecycle.StatusDraft)
	queued := f.seed(t, lifecycle.StatusQueued)
	info := f.seed(t, lifecycle.StatusNeedsInfo)
	f.seed(t, lifecycle.StatusInProgress)

	items, err := f.projects.Queue(ctx, admin, nil, 0)
	require.NoError(t, err)
	ids := []string{}
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{queued.ID, info.ID}, ids)

	items, err = f.projects.Queue(ctx, admin, []lifecycle.Status{lifecycle.StatusInProgress}, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.projects.Queue(ctx, owner, nil, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProjectService_UpdateDetails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	title := "Renamed"

	draft := f.seed(t, lifecycle.StatusDraft)
	p, err := f.projects.UpdateDetails(ctx, owner, draft.ID, domain.DetailsInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Title)

	inProgress := f.seed(t, lifecycle.StatusInProgress)
	_, err = f.projects.UpdateDetails(ctx, owner, inProgress.ID, domain.DetailsInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.projects.UpdateDetails(ctx, admin, inProgress.ID, domain.DetailsInput{Title: &title})
	assert.NoError(t, err)

	empty := ""
	_, err = f.projects.UpdateDetails(ctx, owner, draft.ID, domain.DetailsInput{Title: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProjectService_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("admin triage publishes event", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusQueued)

		updated, err := f.projects.Transition(ctx, admin, p.ID, lifecycle.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusInProgress, updated.Status)

		evs := f.pub.Events()
		require.Len(t, evs, 1)
		assert.Equal(t, events.TypeStatusChanged, evs[0].Type)
		assert.Equal(t, lifecycle.StatusQueued, evs[0].From)
		assert.Equal(t, lifecycle.StatusInProgress, evs[0].To)
		assert.Equal(t, admin.UID, evs[0].ActorUID)
	})

	t.Run("table denial is a conflict and writes nothing", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusDraft)

		_, err := f.projects.Transition(ctx, admin, p.ID, lifecycle.StatusDelivered)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)

		var terr *domain.TransitionError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, lifecycle.StatusDraft, terr.Current)

		got, _ := f.store.Get(ctx, p.ID)
		assert.Equal(t, lifecycle.StatusDraft, got.Status)
		assert.Empty(t, f.pub.Events())
	})

	t.Run("self transition is denied", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusInProgress)

		_, err := f.projects.Transition(ctx, admin, p.ID, lifecycle.StatusInProgress)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("closed is terminal", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusClosed)

		_, err := f.projects.Transition(ctx, admin, p.ID, lifecycle.StatusDraft)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown status is invalid input", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusDraft)

		_, err := f.projects.Transition(ctx, admin, p.ID, lifecycle.Status("archived"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("client may only withdraw or answer", func(t *testing.T) {
		f := newFixture()
		queued := f.seed(t, lifecycle.StatusQueued)

		_, err := f.projects.Transition(ctx, owner, queued.ID, lifecycle.StatusInProgress)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		info := f.seed(t, lifecycle.StatusNeedsInfo)
		updated, err := f.projects.Transition(ctx, owner, info.ID, lifecycle.StatusQueued)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusQueued, updated.Status)

		closed, err := f.projects.Withdraw(ctx, owner, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusClosed, closed.Status)

		_, err = f.projects.Withdraw(ctx, stranger, info.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("only admins deliver", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusInProgress)

		_, err := f.projects.Transition(ctx, owner, p.ID, lifecycle.StatusDelivered)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = f.projects.Transition(ctx, payments, p.ID, lifecycle.StatusDelivered)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("payment system may queue a draft", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusDraft)

		updated, err := f.projects.Transition(ctx, payments, p.ID, lifecycle.StatusQueued)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusQueued, updated.Status)

		_, err = f.projects.Transition(ctx, payments, p.ID, lifecycle.StatusQueued)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("payment system cannot requeue a project awaiting info", func(t *testing.T) {
		f := newFixture()
		p := f.seed(t, lifecycle.StatusNeedsInfo)

		_, err := f.projects.Transition(ctx, payments, p.ID, lifecycle.StatusQueued)
		var te *domain.TransitionError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, lifecycle.StatusNeedsInfo, te.Current)

		got, err := f.store.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusNeedsInfo, got.Status)
		assert.Empty(t, f.pub.Events())
	})

	t.Run("publish failure does not fail the transition", func(t *testing.T) {
		f := newFixture()
		f.pub.err = errors.New("redis down")
		p := f.seed(t, lifecycle.StatusDraft)

		_, err := f.projects.Transition(ctx, admin, p.ID, lifecycle.StatusQueued)
		assert.NoError(t, err)
	})
}

type racingStore struct {
	*touchCountingStore
	moved lifecycle.Status
}

// CompareAndSetStatus simulates another writer landing first.
func (s *racingStore) CompareAndSetStatus(ctx context.Context, id string, from, _ lifecycle.Status) (*domain.Project, error) {
	if _, err := s.MemoryStore.CompareAndSetStatus(ctx, id, from, s.moved); err != nil {
		return nil, err
	}
	return nil, domain.ErrStatusConflict
}

func TestProjectService_TransitionLostRace(t *testing.T) {
	f := newFixture()
	p := f.seed(t, lifecycle.StatusQueued)

	racer := &racingStore{touchCountingStore: f.store, moved: lifecycle.StatusClosed}
	svc := NewProjectService(racer, f.pub)

	_, err := svc.Transition(context.Background(), admin, p.ID, lifecycle.StatusInProgress)
	require.ErrorIs(t, err, domain.ErrStatusConflict)

	var terr *domain.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, lifecycle.StatusClosed, terr.Current)
	assert.Empty(t, f.pub.Events())
}

func TestProjectService_ConcurrentTransitionsSingleWinner(t *testing.T) {
	f := newFixture()
	p := f.seed(t, lifecycle.StatusQueued)

	targets := []lifecycle.Status{lifecycle.StatusInProgress, lifecycle.StatusNeedsInfo, lifecycle.StatusClosed}
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(to lifecycle.Status) {
			defer wg.Done()
			if _, err := f.projects.Transition(context.Background(), admin, p.ID, to); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}(targets[i%len(targets)])
	}
	wg.Wait()

	// Every target except closed can chain again, so count only moves out
	// of queued: exactly one event must have from == queued.
	fromQueued := 0
	for _, ev := range f.pub.Events() {
		if ev.From == lifecycle.StatusQueued {
			fromQueued++
		}
	}
	assert.Equal(t, 1, fromQueued)
	assert.GreaterOrEqual(t, wins, int32(1))
}

func TestProjectService_AllowedTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	info := f.seed(t, lifecycle.StatusNeedsInfo)
	_, allowed, err := f.projects.AllowedTransitions(ctx, owner, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []lifecycle.Status{lifecycle.StatusQueued, lifecycle.StatusClosed}, allowed)

	_, allowed, err = f.projects.AllowedTransitions(ctx, admin, info.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Allowed(lifecycle.StatusNeedsInfo), allowed)

	closed := f.seed(t, lifecycle.StatusClosed)
	_, allowed, err = f.projects.AllowedTransitions(ctx, admin, closed.ID)
	require.NoError(t, err)
	assert.Empty(t, allowed)
}
