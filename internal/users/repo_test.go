package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type fakeDB struct {
	row     fakeRow
	lastSQL string
	args    []any
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.args = sql, args
	return f.row
}

func TestRepo_EnsureUser(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: []any{"42"}}}
	repo := NewRepo(db)

	id, err := repo.EnsureUser(context.Background(), UpsertUser{FirebaseUID: "uid-1", Email: "a@b.co", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Contains(t, db.lastSQL, "on conflict (firebase_uid)")
	assert.Equal(t, []any{"uid-1", "a@b.co", "", "admin"}, db.args)

	_, err = repo.EnsureUser(context.Background(), UpsertUser{})
	assert.Error(t, err)
}

func TestRepo_EmailFor(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo := NewRepo(&fakeDB{row: fakeRow{values: []any{"uid-1", "a@b.co", "Ann", "client", now, now}}})
		email, err := repo.EmailFor(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, "a@b.co", email)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := NewRepo(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})
		_, err := repo.EmailFor(context.Background(), "uid-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no email on file", func(t *testing.T) {
		repo := NewRepo(&fakeDB{row: fakeRow{values: []any{"uid-1", "", "", "client", now, now}}})
		_, err := repo.EmailFor(context.Background(), "uid-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
