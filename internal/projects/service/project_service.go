package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/logging"
	"github.com/planhaus/portal-backend/internal/projects/domain"
	"github.com/planhaus/portal-backend/internal/projects/repository"
)

const maxTitleLen = 200

// DefaultQueueStatuses is what the admin operations queue shows when no
// status filter is given.
var DefaultQueueStatuses = []lifecycle.Status{lifecycle.StatusQueued, lifecycle.StatusNeedsInfo}

// ProjectService handles project-related business logic
type ProjectService struct {
	store  repository.ProjectStore
	events events.Publisher
}

// NewProjectService creates a new project service
func NewProjectService(store repository.ProjectStore, pub events.Publisher) *ProjectService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &ProjectService{store: store, events: pub}
}

// Intake opens a new draft project owned by the caller.
func (s *ProjectService) Intake(ctx context.Context, actor domain.Actor, in domain.IntakeInput) (*domain.Project, error) {
	if actor.UID == "" || actor.Role == domain.RoleSystem {
		return nil, domain.ErrForbidden
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}

	p := &domain.Project{
		OwnerUID:        actor.UID,
		Title:           title,
		PropertyAddress: strings.TrimSpace(in.PropertyAddress),
		Notes:           strings.TrimSpace(in.Notes),
		Status:          lifecycle.StatusDraft,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("project created",
		zap.String("project_id", p.ID),
		zap.String("owner_uid", p.OwnerUID),
	)
	return p, nil
}

// Get returns the project if the actor may see it.
func (s *ProjectService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Project, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.Role != domain.RoleSystem && !actor.Owns(p) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

// List returns the caller's own projects. Admins see every project matching
// the filter.
func (s *ProjectService) List(ctx context.Context, actor domain.Actor, filter domain.ListFilter) ([]domain.Project, error) {
	if !actor.IsAdmin() {
		if actor.UID == "" {
			return nil, domain.ErrForbidden
		}
		filter.OwnerUID = actor.UID
	}
	return s.store.List(ctx, filter)
}

// Queue is the admin operations queue.
func (s *ProjectService) Queue(ctx context.Context, actor domain.Actor, statuses []lifecycle.Status, limit int) ([]domain.Project, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if len(statuses) == 0 {
		statuses = DefaultQueueStatuses
	}
	return s.store.List(ctx, domain.ListFilter{Statuses: statuses, Limit: limit})
}

// UpdateDetails edits descriptive fields. Clients may only edit while the
// project is a draft or waiting on them for information.
func (s *ProjectService) UpdateDetails(ctx context.Context, actor domain.Actor, id string, in domain.DetailsInput) (*domain.Project, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if actor.Role == domain.RoleSystem {
			return nil, domain.ErrForbidden
		}
		if p.Status != lifecycle.StatusDraft && p.Status != lifecycle.StatusNeedsInfo {
			return nil, fmt.Errorf("details are locked while %s: %w", p.Status, domain.ErrForbidden)
		}
	}

	if in.Title != nil {
		title, err := cleanTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		p.Title = title
	}
	if in.PropertyAddress != nil {
		p.PropertyAddress = strings.TrimSpace(*in.PropertyAddress)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Transition moves a project to a new status. The check against the
// lifecycle table and the write are one conditional update, so two racing
// requests cannot both apply.
func (s *ProjectService) Transition(ctx context.Context, actor domain.Actor, id string, to lifecycle.Status) (*domain.Project, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", to, domain.ErrInvalidInput)
	}

	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, p, to); err != nil {
		return nil, err
	}

	from := p.Status
	if !lifecycle.CanTransition(from, to) {
		return nil, &domain.TransitionError{Current: from, Requested: to, Err: domain.ErrInvalidTransition}
	}

	updated, err := s.store.CompareAndSetStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			current := from
			if cur, gerr := s.store.Get(ctx, id); gerr == nil {
				current = cur.Status
			}
			return nil, &domain.TransitionError{Current: current, Requested: to, Err: domain.ErrStatusConflict}
		}
		return nil, err
	}

	log := logging.FromContext(ctx)
	log.Info("project status changed",
		zap.String("project_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_uid", actor.UID),
	)

	ev := events.NewStatusChanged(id, from, to, actor.UID, string(actor.Role))
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warn("failed to publish status event", zap.String("project_id", id), zap.Error(err))
	}

	return updated, nil
}

// Withdraw closes the project on the owner's behalf.
func (s *ProjectService) Withdraw(ctx context.Context, actor domain.Actor, id string) (*domain.Project, error) {
	return s.Transition(ctx, actor, id, lifecycle.StatusClosed)
}

// AllowedTransitions lists the statuses this actor could move the project to
// right now.
func (s *ProjectService) AllowedTransitions(ctx context.Context, actor domain.Actor, id string) (*domain.Project, []lifecycle.Status, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	out := []lifecycle.Status{}
	for _, to := range lifecycle.Allowed(p.Status) {
		if authorizeTransition(actor, p, to) == nil {
			out = append(out, to)
		}
	}
	return p, out, nil
}

// authorizeTransition decides who may request which target. It says nothing
// about whether the lifecycle permits the move.
func authorizeTransition(actor domain.Actor, p *domain.Project, to lifecycle.Status) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleSystem:
		if to != lifecycle.StatusQueued {
			break
		}
		// Payment confirms intake only; later states are out of its reach.
		if p.Status != lifecycle.StatusDraft {
			return &domain.TransitionError{Current: p.Status, Requested: to, Err: domain.ErrInvalidTransition}
		}
		return nil
	case domain.RoleClient:
		if !actor.Owns(p) {
			return domain.ErrForbidden
		}
		if to == lifecycle.StatusClosed {
			return nil
		}
		if to == lifecycle.StatusQueued && p.Status == lifecycle.StatusNeedsInfo {
			return nil
		}
	}
	return fmt.Errorf("%s may not move a project to %s: %w", actor.Role, to, domain.ErrForbidden)
}

func cleanTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", fmt.Errorf("title exceeds %d characters: %w", maxTitleLen, domain.ErrInvalidInput)
	}
	return title, nil
}
