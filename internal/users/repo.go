package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("user not found")

// querier is the subset of *pgxpool.Pool the repo needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type User struct {
	FirebaseUID string    `json:"firebase_uid"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repo struct {
	db querier
}

// NewRepo accepts a *pgxpool.Pool.
func NewRepo(db querier) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
	Role        string
}

// EnsureUser creates the user on first sight and refreshes profile fields
// afterwards. Empty fields never overwrite stored values.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.FirebaseUID == "" {
		return "", fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into users (firebase_uid, email, display_name, role, updated_at)
values ($1, nullif($2,''), nullif($3,''), coalesce(nullif($4,''), 'client'), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  role = coalesce(nullif($4,''), users.role),
  updated_at = now()
returning id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName, u.Role).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) Get(ctx context.Context, firebaseUID string) (*User, error) {
	const q = `
select firebase_uid, coalesce(email, ''), coalesce(display_name, ''), role, created_at, updated_at
from users
where firebase_uid = $1`

	var u User
	err := r.db.QueryRow(ctx, q, firebaseUID).Scan(&u.FirebaseUID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailFor resolves a notification address.
func (r *Repo) EmailFor(ctx context.Context, firebaseUID string) (string, error) {
	u, err := r.Get(ctx, firebaseUID)
	if err != nil {
		return "", err
	}
	if u.Email == "" {
		return "", fmt.Errorf("user %s has no email: %w", firebaseUID, ErrNotFound)
	}
	return u.Email, nil
}
