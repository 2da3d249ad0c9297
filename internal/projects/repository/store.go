package repository

import (
	"context"

	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

// ProjectStore persists projects. PostgresStore and MemoryStore are
// interchangeable behind it.
type ProjectStore interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Project, error)
	Create(ctx context.Context, p *domain.Project) error
	// Update writes descriptive fields only. Status changes go through
	// CompareAndSetStatus.
	Update(ctx context.Context, p *domain.Project) error
	// CompareAndSetStatus sets the status to `to` only if the stored status is
	// still `from`. It returns domain.ErrStatusConflict when the stored value
	// differs and domain.ErrNotFound when the project does not exist.
	CompareAndSetStatus(ctx context.Context, id string, from, to lifecycle.Status) (*domain.Project, error)
	// Touch refreshes updated_at after a sub-resource changed.
	Touch(ctx context.Context, id string) error
}

// ActivityStore persists a project's sub-resources.
type ActivityStore interface {
	AddMessage(ctx context.Context, m *domain.Message) error
	ListMessages(ctx context.Context, projectID string, limit int) ([]domain.Message, error)
	AddRevision(ctx context.Context, r *domain.Revision) error
	ListRevisions(ctx context.Context, projectID string) ([]domain.Revision, error)
	AddFile(ctx context.Context, f *domain.File) error
	GetFile(ctx context.Context, projectID, fileID string) (*domain.File, error)
	ListFiles(ctx context.Context, projectID string) ([]domain.File, error)
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}
