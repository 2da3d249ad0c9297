package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/planhaus/portal-backend/internal/lifecycle"
)

const TypeStatusChanged = "project.status_changed"

// Event is emitted after a committed status change.
type Event struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	ProjectID  string           `json:"project_id"`
	From       lifecycle.Status `json:"from"`
	To         lifecycle.Status `json:"to"`
	ActorUID   string           `json:"actor_uid"`
	ActorRole  string           `json:"actor_role"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func NewStatusChanged(projectID string, from, to lifecycle.Status, actorUID, actorRole string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeStatusChanged,
		ProjectID:  projectID,
		From:       from,
		To:         to,
		ActorUID:   actorUID,
		ActorRole:  actorRole,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher fans events out to subscribers and the notification worker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber delivers live events for one project until cancel is called.
type Subscriber interface {
	Subscribe(ctx context.Context, projectID string) (events <-chan Event, cancel func(), err error)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
