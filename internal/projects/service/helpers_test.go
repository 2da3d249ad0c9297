package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/projects/domain"
	"github.com/planhaus/portal-backend/internal/projects/repository"
)

var (
	owner    = domain.Actor{UID: "client-1", Role: domain.RoleClient}
	stranger = domain.Actor{UID: "client-2", Role: domain.RoleClient}
	admin    = domain.Actor{UID: "admin-1", Role: domain.RoleAdmin}
	payments = domain.SystemActor("payments")
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// touchCountingStore counts Touch calls on top of the memory store.
type touchCountingStore struct {
	*repository.MemoryStore
	touches int32
}

func (s *touchCountingStore) Touch(ctx context.Context, id string) error {
	atomic.AddInt32(&s.touches, 1)
	return s.MemoryStore.Touch(ctx, id)
}

type fakePresigner struct {
	PresignPutFunc func(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignGetFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

func (f *fakePresigner) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if f.PresignPutFunc != nil {
		return f.PresignPutFunc(ctx, key, contentType, ttl)
	}
	return "https://bucket.example/" + key + "?sig=put", nil
}

func (f *fakePresigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.PresignGetFunc != nil {
		return f.PresignGetFunc(ctx, key, ttl)
	}
	return "https://bucket.example/" + key + "?sig=get", nil
}

type fixture struct {
	store     *touchCountingStore
	activity  *repository.MemoryActivityStore
	pub       *recordingPublisher
	presigner *fakePresigner
	projects  *ProjectService
	svc       *ActivityService
}

func newFixture() *fixture {
	f := &fixture{
		store:     &touchCountingStore{MemoryStore: repository.NewMemoryStore()},
		activity:  repository.NewMemoryActivityStore(),
		pub:       &recordingPublisher{},
		presigner: &fakePresigner{},
	}
	f.projects = NewProjectService(f.store, f.pub)
	f.svc = NewActivityService(f.projects, f.store, f.activity, f.presigner, time.Minute)
	return f
}

// seed creates a project owned by `owner` and walks it to status through
// the store directly.
func (f *fixture) seed(t *testing.T, status lifecycle.Status) *domain.Project {
	t.Helper()
	ctx := context.Background()
	p, err := f.projects.Intake(ctx, owner, domain.IntakeInput{Title: "Two-bed flat"})
	require.NoError(t, err)

	path := map[lifecycle.Status][]lifecycle.Status{
		lifecycle.StatusDraft:      nil,
		lifecycle.StatusQueued:     {lifecycle.StatusQueued},
		lifecycle.StatusInProgress: {lifecycle.StatusQueued, lifecycle.StatusInProgress},
		lifecycle.StatusNeedsInfo:  {lifecycle.StatusQueued, lifecycle.StatusNeedsInfo},
		lifecycle.StatusDelivered:  {lifecycle.StatusQueued, lifecycle.StatusInProgress, lifecycle.StatusDelivered},
		lifecycle.StatusClosed:     {lifecycle.StatusClosed},
	}[status]

	from := p.Status
	for _, to := range path {
		p, err = f.store.CompareAndSetStatus(ctx, p.ID, from, to)
		require.NoError(t, err)
		from = to
	}
	return p
}
