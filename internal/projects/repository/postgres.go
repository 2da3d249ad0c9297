package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

const projectColumns = `public_id, owner_uid, title, property_address, notes, status, created_at, updated_at`

// PostgresStore is the production ProjectStore.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var status string
	if err := row.Scan(&p.ID, &p.OwnerUID, &p.Title, &p.PropertyAddress, &p.Notes, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = lifecycle.Status(status)
	return &p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE public_id = $1`
	p, err := scanProject(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Project, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses = append(statuses, string(st))
	}

	q := `SELECT ` + projectColumns + `
FROM projects
WHERE ($1 = '' OR owner_uid = $1)
  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
ORDER BY updated_at DESC
LIMIT $3`

	rows, err := s.db.QueryContext(ctx, q, filter.OwnerUID, pq.Array(statuses), listLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *domain.Project) error {
	if p.OwnerUID == "" {
		return fmt.Errorf("owner uid required: %w", domain.ErrInvalidInput)
	}

	const q = `
INSERT INTO projects (public_id, owner_uid, title, property_address, notes, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`

	for i := 0; i < 5; i++ {
		id, err := domain.NewPublicID(domain.ProjectIDPrefix)
		if err != nil {
			return err
		}

		err = s.db.QueryRowContext(ctx, q, id, p.OwnerUID, p.Title, p.PropertyAddress, p.Notes, string(p.Status)).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		if err == nil {
			p.ID = id
			return nil
		}

		// unique violation on public_id → retry
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return err
	}

	return fmt.Errorf("failed to generate unique project id")
}

func (s *PostgresStore) Update(ctx context.Context, p *domain.Project) error {
	const q = `
UPDATE projects
SET title = $2, property_address = $3, notes = $4, updated_at = now()
WHERE public_id = $1
RETURNING updated_at`

	err := s.db.QueryRowContext(ctx, q, p.ID, p.Title, p.PropertyAddress, p.Notes).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (s *PostgresStore) CompareAndSetStatus(ctx context.Context, id string, from, to lifecycle.Status) (*domain.Project, error) {
	q := `
UPDATE projects
SET status = $3, updated_at = now()
WHERE public_id = $1 AND status = $2
RETURNING ` + projectColumns

	p, err := scanProject(s.db.QueryRowContext(ctx, q, id, string(from), string(to)))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Nothing matched: either the row is gone or its status moved on.
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE public_id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrStatusConflict
}

func (s *PostgresStore) Touch(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE projects SET updated_at = now() WHERE public_id = $1`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
