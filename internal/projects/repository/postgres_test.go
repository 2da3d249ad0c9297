package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

var projectCols = []string{"public_id", "owner_uid", "title", "property_address", "notes", "status", "created_at", "updated_at"}

func setupPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresStore(db), mock, db
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("inserts with generated public id", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO projects`).
			WithArgs(sqlmock.AnyArg(), "user-1", "Loft", "1 Main St", "", "draft").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		p := &domain.Project{OwnerUID: "user-1", Title: "Loft", PropertyAddress: "1 Main St", Status: lifecycle.StatusDraft}
		require.NoError(t, store.Create(ctx, p))
		assert.Regexp(t, `^fp-\d{5}-\d{4}$`, p.ID)
		assert.False(t, p.CreatedAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries on unique violation", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		p := &domain.Project{OwnerUID: "user-1", Title: "Loft", Status: lifecycle.StatusDraft}
		require.NoError(t, store.Create(ctx, p))
		assert.NotEmpty(t, p.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		err := store.Create(ctx, &domain.Project{Title: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT .+ FROM projects WHERE public_id = \$1`).
			WithArgs("fp-12345-6789").
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow("fp-12345-6789", "user-1", "Loft", "", "", "queued", now, now))

		p, err := store.Get(ctx, "fp-12345-6789")
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusQueued, p.Status)
		assert.Equal(t, "user-1", p.OwnerUID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM projects WHERE public_id = \$1`).
			WithArgs("fp-00000-0000").
			WillReturnRows(sqlmock.NewRows(projectCols))

		_, err := store.Get(ctx, "fp-00000-0000")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_List(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM projects`).
		WithArgs("", sqlmock.AnyArg(), 100).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("fp-11111-1111", "user-1", "A", "", "", "queued", now, now).
			AddRow("fp-22222-2222", "user-2", "B", "", "", "needs_info", now, now))

	out, err := store.List(context.Background(), domain.ListFilter{
		Statuses: []lifecycle.Status{lifecycle.StatusQueued, lifecycle.StatusNeedsInfo},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, lifecycle.StatusNeedsInfo, out[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompareAndSetStatus(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()
	ctx := context.Background()
	id := "fp-12345-6789"

	t.Run("applies when status matches", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`UPDATE projects\s+SET status = \$3`).
			WithArgs(id, "queued", "in_progress").
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow(id, "user-1", "Loft", "", "", "in_progress", now, now))

		p, err := store.CompareAndSetStatus(ctx, id, lifecycle.StatusQueued, lifecycle.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusInProgress, p.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict when status moved", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE projects\s+SET status = \$3`).
			WithArgs(id, "queued", "in_progress").
			WillReturnRows(sqlmock.NewRows(projectCols))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := store.CompareAndSetStatus(ctx, id, lifecycle.StatusQueued, lifecycle.StatusInProgress)
		assert.ErrorIs(t, err, domain.ErrStatusConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE projects\s+SET status = \$3`).
			WithArgs(id, "queued", "in_progress").
			WillReturnRows(sqlmock.NewRows(projectCols))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := store.CompareAndSetStatus(ctx, id, lifecycle.StatusQueued, lifecycle.StatusInProgress)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Touch(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE projects SET updated_at = now\(\)`).
		WithArgs("fp-12345-6789").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE projects SET updated_at = now\(\)`).
		WithArgs("fp-00000-0000").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Touch(context.Background(), "fp-12345-6789"))
	assert.ErrorIs(t, store.Touch(context.Background(), "fp-00000-0000"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresActivityStore_Files(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresActivityStore(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO project_files`).
		WithArgs(sqlmock.AnyArg(), "fp-12345-6789", "intake", "projects/fp-12345-6789/a-plan.pdf", "plan.pdf", "application/pdf", int64(2048), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	f := &domain.File{
		ProjectID:   "fp-12345-6789",
		Kind:        domain.FileKindIntake,
		ObjectKey:   "projects/fp-12345-6789/a-plan.pdf",
		FileName:    "plan.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		UploadedBy:  "user-1",
	}
	require.NoError(t, store.AddFile(ctx, f))
	assert.NotEmpty(t, f.ID)

	missing := "6f1c2b1e-0d7a-4c55-9a43-0b7f3c9d2e11"
	mock.ExpectQuery(`SELECT .+ FROM project_files WHERE project_id = \$1 AND id = \$2`).
		WithArgs("fp-12345-6789", missing).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = store.GetFile(ctx, "fp-12345-6789", missing)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	// not a uuid: no query is issued
	_, err = store.GetFile(ctx, "fp-12345-6789", "missing")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
