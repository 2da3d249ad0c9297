package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/planhaus/portal-backend/internal/projects/domain"
)

// PostgresActivityStore keeps messages, revisions and file metadata in
// per-kind tables keyed by the project's public id.
type PostgresActivityStore struct {
	db *sql.DB
}

func NewPostgresActivityStore(db *sql.DB) *PostgresActivityStore {
	return &PostgresActivityStore{db: db}
}

func (s *PostgresActivityStore) AddMessage(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	const q = `
INSERT INTO project_messages (id, project_id, author_uid, author_role, body)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`
	return s.db.QueryRowContext(ctx, q, m.ID, m.ProjectID, m.AuthorUID, string(m.AuthorRole), m.Body).Scan(&m.CreatedAt)
}

func (s *PostgresActivityStore) ListMessages(ctx context.Context, projectID string, limit int) ([]domain.Message, error) {
	const q = `
SELECT id, project_id, author_uid, author_role, body, created_at
FROM project_messages
WHERE project_id = $1
ORDER BY created_at ASC
LIMIT $2`

	rows, err := s.db.QueryContext(ctx, q, projectID, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.AuthorUID, &role, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.AuthorRole = domain.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresActivityStore) AddRevision(ctx context.Context, r *domain.Revision) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	const q = `
INSERT INTO project_revisions (id, project_id, requested_by, notes)
VALUES ($1, $2, $3, $4)
RETURNING created_at`
	return s.db.QueryRowContext(ctx, q, r.ID, r.ProjectID, r.RequestedBy, r.Notes).Scan(&r.CreatedAt)
}

func (s *PostgresActivityStore) ListRevisions(ctx context.Context, projectID string) ([]domain.Revision, error) {
	const q = `
SELECT id, project_id, requested_by, notes, created_at
FROM project_revisions
WHERE project_id = $1
ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Revision{}
	for rows.Next() {
		var r domain.Revision
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.RequestedBy, &r.Notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const fileColumns = `id, project_id, kind, object_key, file_name, content_type, size_bytes, uploaded_by, created_at`

func scanFile(row rowScanner) (*domain.File, error) {
	var f domain.File
	var kind string
	if err := row.Scan(&f.ID, &f.ProjectID, &kind, &f.ObjectKey, &f.FileName, &f.ContentType, &f.SizeBytes, &f.UploadedBy, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Kind = domain.FileKind(kind)
	return &f, nil
}

func (s *PostgresActivityStore) AddFile(ctx context.Context, f *domain.File) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	const q = `
INSERT INTO project_files (id, project_id, kind, object_key, file_name, content_type, size_bytes, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`
	return s.db.QueryRowContext(ctx, q,
		f.ID, f.ProjectID, string(f.Kind), f.ObjectKey, f.FileName, f.ContentType, f.SizeBytes, f.UploadedBy,
	).Scan(&f.CreatedAt)
}

func (s *PostgresActivityStore) GetFile(ctx context.Context, projectID, fileID string) (*domain.File, error) {
	// ids are uuid columns; anything else cannot match
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, domain.ErrFileNotFound
	}
	q := `SELECT ` + fileColumns + ` FROM project_files WHERE project_id = $1 AND id = $2`
	f, err := scanFile(s.db.QueryRowContext(ctx, q, projectID, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *PostgresActivityStore) ListFiles(ctx context.Context, projectID string) ([]domain.File, error) {
	q := `SELECT ` + fileColumns + ` FROM project_files WHERE project_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}
