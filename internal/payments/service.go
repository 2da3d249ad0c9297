package payments

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/logging"
	"github.com/planhaus/portal-backend/internal/projects/domain"
)

// Transitioner is satisfied by *service.ProjectService.
type Transitioner interface {
	Transition(ctx context.Context, actor domain.Actor, id string, to lifecycle.Status) (*domain.Project, error)
}

// Outcome describes what a delivery did. It is echoed to the processor.
type Outcome string

const (
	OutcomeQueued    Outcome = "queued"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeRejected  Outcome = "rejected"
)

type Service struct {
	secret    string
	tolerance time.Duration
	claims    Claims
	projects  Transitioner
	now       func() time.Time
}

func NewService(secret string, tolerance time.Duration, claims Claims, projects Transitioner) *Service {
	return &Service{
		secret:    secret,
		tolerance: tolerance,
		claims:    claims,
		projects:  projects,
		now:       time.Now,
	}
}

// HandleWebhook verifies and applies one delivery. A returned error means
// the processor should retry; every other case is acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, header string) (Outcome, error) {
	if err := VerifySignature(payload, header, s.secret, s.now(), s.tolerance); err != nil {
		return "", err
	}
	ev, err := ParseEvent(payload)
	if err != nil {
		return "", err
	}

	log := logging.FromContext(ctx).With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	if ev.Type != EventCheckoutCompleted && ev.Type != EventPaymentIntentSucceeded {
		return OutcomeIgnored, nil
	}
	projectID := ev.ProjectID()
	if projectID == "" {
		log.Warn("payment event without project id")
		return OutcomeIgnored, nil
	}

	first, err := s.claims.Claim(ctx, ev.ID)
	if err != nil {
		return "", err
	}
	if !first {
		log.Info("duplicate payment event")
		return OutcomeDuplicate, nil
	}

	_, err = s.projects.Transition(ctx, domain.SystemActor("payments"), projectID, lifecycle.StatusQueued)
	switch {
	case err == nil:
		log.Info("project queued after payment", zap.String("project_id", projectID))
		return OutcomeQueued, nil
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStatusConflict),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrForbidden):
		// A retry cannot change the answer.
		log.Warn("payment event not applied", zap.String("project_id", projectID), zap.Error(err))
		return OutcomeRejected, nil
	default:
		if rerr := s.claims.Release(ctx, ev.ID); rerr != nil {
			log.Error("failed to release event claim", zap.Error(rerr))
		}
		return "", err
	}
}
