package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

// MemoryStore is an in-process ProjectStore for demo mode and tests.
// Values are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]domain.Project),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) List(_ context.Context, filter domain.ListFilter) ([]domain.Project, error) {
	want := make(map[lifecycle.Status]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		want[st] = true
	}

	s.mu.RLock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if filter.OwnerUID != "" && p.OwnerUID != filter.OwnerUID {
			continue
		}
		if len(want) > 0 && !want[p.Status] {
			continue
		}
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if limit := listLimit(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, p *domain.Project) error {
	if p.OwnerUID == "" {
		return fmt.Errorf("owner uid required: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < 5; i++ {
		id, err := domain.NewPublicID(domain.ProjectIDPrefix)
		if err != nil {
			return err
		}
		if _, taken := s.projects[id]; taken {
			continue
		}
		now := s.now()
		p.ID = id
		p.CreatedAt = now
		p.UpdatedAt = now
		s.projects[id] = *p
		return nil
	}
	return fmt.Errorf("failed to generate unique project id")
}

func (s *MemoryStore) Update(_ context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.projects[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Title = p.Title
	cur.PropertyAddress = p.PropertyAddress
	cur.Notes = p.Notes
	cur.UpdatedAt = s.now()
	s.projects[p.ID] = cur

	p.UpdatedAt = cur.UpdatedAt
	return nil
}

func (s *MemoryStore) CompareAndSetStatus(_ context.Context, id string, from, to lifecycle.Status) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if cur.Status != from {
		return nil, domain.ErrStatusConflict
	}
	cur.Status = to
	cur.UpdatedAt = s.now()
	s.projects[id] = cur
	return &cur, nil
}

func (s *MemoryStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	cur.UpdatedAt = s.now()
	s.projects[id] = cur
	return nil
}

// MemoryActivityStore is the in-process ActivityStore.
type MemoryActivityStore struct {
	mu        sync.RWMutex
	messages  map[string][]domain.Message
	revisions map[string][]domain.Revision
	files     map[string][]domain.File
}

func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{
		messages:  make(map[string][]domain.Message),
		revisions: make(map[string][]domain.Revision),
		files:     make(map[string][]domain.File),
	}
}

func (s *MemoryActivityStore) AddMessage(_ context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.messages[m.ProjectID] = append(s.messages[m.ProjectID], *m)
	s.mu.Unlock()
	return nil
}

func (s *MemoryActivityStore) ListMessages(_ context.Context, projectID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.messages[projectID]
	if n := listLimit(limit); len(src) > n {
		src = src[:n]
	}
	out := make([]domain.Message, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryActivityStore) AddRevision(_ context.Context, r *domain.Revision) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.revisions[r.ProjectID] = append(s.revisions[r.ProjectID], *r)
	s.mu.Unlock()
	return nil
}

func (s *MemoryActivityStore) ListRevisions(_ context.Context, projectID string) ([]domain.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Revision, len(s.revisions[projectID]))
	copy(out, s.revisions[projectID])
	return out, nil
}

func (s *MemoryActivityStore) AddFile(_ context.Context, f *domain.File) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.files[f.ProjectID] = append(s.files[f.ProjectID], *f)
	s.mu.Unlock()
	return nil
}

func (s *MemoryActivityStore) GetFile(_ context.Context, projectID, fileID string) (*domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.files[projectID] {
		if f.ID == fileID {
			f := f
			return &f, nil
		}
	}
	return nil, domain.ErrFileNotFound
}

func (s *MemoryActivityStore) ListFiles(_ context.Context, projectID string) ([]domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.File, len(s.files[projectID]))
	copy(out, s.files[projectID])
	return out, nil
}
