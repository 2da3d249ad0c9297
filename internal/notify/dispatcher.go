package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/projects/domain"
	"github.com/planhaus/portal-backend/internal/users"
)

// ProjectReader is satisfied by repository.ProjectStore.
type ProjectReader interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
}

// RecipientResolver maps an owner uid to a deliverable address.
// users.Repo satisfies it; users.ErrNotFound marks an owner who cannot be
// reached and is never retried.
type RecipientResolver interface {
	EmailFor(ctx context.Context, firebaseUID string) (string, error)
}

// envelope is the queue item format once an event has failed at least once.
// Items pushed by the publisher are bare events.
type envelope struct {
	Event     events.Event `json:"event"`
	Attempts  int          `json:"attempts"`
	LastError string       `json:"last_error,omitempty"`
	FailedAt  time.Time    `json:"failed_at,omitempty"`
}

func decodeItem(raw string) (envelope, error) {
	var probe struct {
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return envelope{}, err
	}
	if len(probe.Event) > 0 {
		var env envelope
		err := json.Unmarshal([]byte(raw), &env)
		return env, err
	}
	var ev events.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return envelope{}, err
	}
	return envelope{Event: ev}, nil
}

type Dispatcher struct {
	rdb        *redis.Client
	projects   ProjectReader
	recipients RecipientResolver
	mailer     Mailer
	templates  *Templates
	portalURL  string
	popTimeout time.Duration
	log        *zap.Logger
}

type DispatcherConfig struct {
	PortalURL  string
	PopTimeout time.Duration
}

func NewDispatcher(rdb *redis.Client, projects ProjectReader, recipients RecipientResolver, mailer Mailer, templates *Templates, cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.PopTimeout < time.Second {
		cfg.PopTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		rdb:        rdb,
		projects:   projects,
		recipients: recipients,
		mailer:     mailer,
		templates:  templates,
		portalURL:  cfg.PortalURL,
		popTimeout: cfg.PopTimeout,
		log:        log,
	}
}

// Run consumes the notify queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("notify dispatcher started", zap.String("queue", events.NotifyQueue))
	for {
		if ctx.Err() != nil {
			d.log.Info("notify dispatcher stopped")
			return nil
		}

		res, err := d.rdb.BRPop(ctx, d.popTimeout, events.NotifyQueue).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			d.log.Warn("brpop failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		// res = [key, value]
		d.process(ctx, res[1])
	}
}

func (d *Dispatcher) process(ctx context.Context, raw string) {
	env, err := decodeItem(raw)
	if err != nil {
		d.log.Error("dropping undecodable notification", zap.Error(err), zap.String("raw", raw))
		return
	}

	if err := d.deliver(ctx, env.Event); err != nil {
		env.Attempts++
		env.LastError = err.Error()
		env.FailedAt = time.Now().UTC()
		d.log.Warn("notification failed",
			zap.String("event_id", env.Event.ID),
			zap.String("project_id", env.Event.ProjectID),
			zap.Int("attempts", env.Attempts),
			zap.Error(err),
		)
		if derr := d.deadLetter(ctx, env); derr != nil {
			d.log.Error("dead letter push failed", zap.String("event_id", env.Event.ID), zap.Error(derr))
		}
	}
}

// deliver sends the email for one event. Events without a template are skipped.
func (d *Dispatcher) deliver(ctx context.Context, ev events.Event) error {
	if ev.Type != events.TypeStatusChanged || !d.templates.Has(ev.To) {
		return nil
	}

	project, err := d.projects.Get(ctx, ev.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.log.Info("project gone, skipping notification", zap.String("project_id", ev.ProjectID))
			return nil
		}
		return fmt.Errorf("load project: %w", err)
	}

	to, err := d.recipients.EmailFor(ctx, project.OwnerUID)
	if errors.Is(err, users.ErrNotFound) || (err == nil && to == "") {
		d.log.Info("owner unreachable, skipping notification", zap.String("project_id", ev.ProjectID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	subject, body, err := d.templates.Render(ev.To, TemplateData{
		ProjectID: project.ID,
		Title:     project.Title,
		From:      ev.From,
		To:        ev.To,
		PortalURL: d.portalURL,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := d.mailer.Send(ctx, Email{To: to, Subject: subject, Body: body}); err != nil {
		return err
	}
	d.log.Info("notification sent", zap.String("event_id", ev.ID), zap.String("project_id", ev.ProjectID), zap.String("status", string(ev.To)))
	return nil
}

func (d *Dispatcher) deadLetter(ctx context.Context, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, events.DeadQueue, data).Err()
}

// Requeue moves dead letters back onto the notify queue. Items that already
// failed maxAttempts times are dropped.
func (d *Dispatcher) Requeue(ctx context.Context, maxAttempts int) (moved, dropped int, err error) {
	n, err := d.rdb.LLen(ctx, events.DeadQueue).Result()
	if err != nil {
		return 0, 0, err
	}

	for i := int64(0); i < n; i++ {
		raw, err := d.rdb.RPop(ctx, events.DeadQueue).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, dropped, err
		}

		env, derr := decodeItem(raw)
		if derr != nil || (maxAttempts > 0 && env.Attempts >= maxAttempts) {
			dropped++
			d.log.Warn("dropping dead letter",
				zap.String("event_id", env.Event.ID),
				zap.Int("attempts", env.Attempts),
				zap.String("last_error", env.LastError),
			)
			continue
		}

		if err := d.rdb.LPush(ctx, events.NotifyQueue, raw).Err(); err != nil {
			// put it back so the next run sees it
			_ = d.rdb.RPush(ctx, events.DeadQueue, raw).Err()
			return moved, dropped, err
		}
		moved++
	}
	return moved, dropped, nil
}
