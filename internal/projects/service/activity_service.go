package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/internal/lifecycle"
	"github.com/planhaus/portal-backend/internal/logging"
	"github.com/planhaus/portal-backend/internal/projects/domain"
	"github.com/planhaus/portal-backend/internal/projects/repository"
	"github.com/planhaus/portal-backend/internal/storage/objectstore"
)

const (
	maxMessageLen  = 5000
	maxFileNameLen = 120
)

// UploadTicket is handed to the client for a direct-to-bucket upload.
type UploadTicket struct {
	URL       string    `json:"url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActivityService manages messages, revisions and files attached to a
// project. Every mutation refreshes the project's updated_at.
type ActivityService struct {
	projects  *ProjectService
	store     repository.ProjectStore
	activity  repository.ActivityStore
	presigner objectstore.Presigner
	urlTTL    time.Duration
}

func NewActivityService(projects *ProjectService, store repository.ProjectStore, activity repository.ActivityStore, presigner objectstore.Presigner, urlTTL time.Duration) *ActivityService {
	if urlTTL <= 0 {
		urlTTL = objectstore.DefaultTTL
	}
	return &ActivityService{
		projects:  projects,
		store:     store,
		activity:  activity,
		presigner: presigner,
		urlTTL:    urlTTL,
	}
}

// openProject loads a project the actor may see and rejects closed ones.
func (s *ActivityService) openProject(ctx context.Context, actor domain.Actor, id string) (*domain.Project, error) {
	p, err := s.projects.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, fmt.Errorf("project %s is closed: %w", id, domain.ErrInvalidInput)
	}
	return p, nil
}

func (s *ActivityService) touch(ctx context.Context, id string) {
	if err := s.store.Touch(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("failed to touch project", zap.String("project_id", id), zap.Error(err))
	}
}

func (s *ActivityService) PostMessage(ctx context.Context, actor domain.Actor, id, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxMessageLen {
		return nil, fmt.Errorf("message body must be 1-%d characters: %w", maxMessageLen, domain.ErrInvalidInput)
	}
	if _, err := s.openProject(ctx, actor, id); err != nil {
		return nil, err
	}

	m := &domain.Message{ProjectID: id, AuthorUID: actor.UID, AuthorRole: actor.Role, Body: body}
	if err := s.activity.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	s.touch(ctx, id)
	return m, nil
}

func (s *ActivityService) ListMessages(ctx context.Context, actor domain.Actor, id string, limit int) ([]domain.Message, error) {
	if _, err := s.projects.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.activity.ListMessages(ctx, id, limit)
}

func (s *ActivityService) RequestRevision(ctx context.Context, actor domain.Actor, id, notes string) (*domain.Revision, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, fmt.Errorf("revision notes are required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.openProject(ctx, actor, id); err != nil {
		return nil, err
	}

	r := &domain.Revision{ProjectID: id, RequestedBy: actor.UID, Notes: notes}
	if err := s.activity.AddRevision(ctx, r); err != nil {
		return nil, err
	}
	s.touch(ctx, id)
	return r, nil
}

func (s *ActivityService) ListRevisions(ctx context.Context, actor domain.Actor, id string) ([]domain.Revision, error) {
	if _, err := s.projects.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.activity.ListRevisions(ctx, id)
}

// CreateUploadURL reserves an object key under the project's prefix and
// presigns a PUT for it.
func (s *ActivityService) CreateUploadURL(ctx context.Context, actor domain.Actor, id, fileName, contentType string) (*UploadTicket, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("file name is required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.openProject(ctx, actor, id); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s-%s", objectPrefix(id), uuid.NewString(), SanitizeFileName(fileName))
	url, err := s.presigner.PresignPut(ctx, key, contentType, s.urlTTL)
	if err != nil {
		return nil, err
	}
	return &UploadTicket{URL: url, ObjectKey: key, ExpiresAt: time.Now().UTC().Add(s.urlTTL)}, nil
}

// RecordFile stores metadata for an object the client finished uploading.
func (s *ActivityService) RecordFile(ctx context.Context, actor domain.Actor, id string, in domain.FileInput) (*domain.File, error) {
	if err := validateObjectKey(id, in.ObjectKey); err != nil {
		return nil, err
	}
	if _, err := s.openProject(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.addFile(ctx, actor, id, domain.FileKindIntake, in)
}

func (s *ActivityService) ListFiles(ctx context.Context, actor domain.Actor, id string) ([]domain.File, error) {
	if _, err := s.projects.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.activity.ListFiles(ctx, id)
}

func (s *ActivityService) DownloadURL(ctx context.Context, actor domain.Actor, id, fileID string) (string, error) {
	if _, err := s.projects.Get(ctx, actor, id); err != nil {
		return "", err
	}
	f, err := s.activity.GetFile(ctx, id, fileID)
	if err != nil {
		return "", err
	}
	return s.presigner.PresignGet(ctx, f.ObjectKey, s.urlTTL)
}

// PublishDeliverable records the finished plan and moves the project to
// delivered. Admin only.
func (s *ActivityService) PublishDeliverable(ctx context.Context, actor domain.Actor, id string, in domain.FileInput) (*domain.File, *domain.Project, error) {
	if !actor.IsAdmin() {
		return nil, nil, domain.ErrForbidden
	}
	if err := validateObjectKey(id, in.ObjectKey); err != nil {
		return nil, nil, err
	}

	p, err := s.projects.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if !lifecycle.CanTransition(p.Status, lifecycle.StatusDelivered) {
		return nil, nil, &domain.TransitionError{Current: p.Status, Requested: lifecycle.StatusDelivered, Err: domain.ErrInvalidTransition}
	}

	// The file is recorded only once the status write has won.
	updated, err := s.projects.Transition(ctx, actor, id, lifecycle.StatusDelivered)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.addFile(ctx, actor, id, domain.FileKindDeliverable, in)
	if err != nil {
		return nil, updated, err
	}
	return f, updated, nil
}

func (s *ActivityService) addFile(ctx context.Context, actor domain.Actor, id string, kind domain.FileKind, in domain.FileInput) (*domain.File, error) {
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = path.Base(in.ObjectKey)
	}
	f := &domain.File{
		ProjectID:   id,
		Kind:        kind,
		ObjectKey:   in.ObjectKey,
		FileName:    name,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		UploadedBy:  actor.UID,
	}
	if err := s.activity.AddFile(ctx, f); err != nil {
		return nil, err
	}
	s.touch(ctx, id)
	return f, nil
}

func objectPrefix(projectID string) string {
	return "projects/" + projectID + "/"
}

func validateObjectKey(projectID, key string) error {
	prefix := objectPrefix(projectID)
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) || strings.Contains(key, "..") {
		return fmt.Errorf("object key must live under %s: %w", prefix, domain.ErrInvalidInput)
	}
	return nil
}

// SanitizeFileName keeps letters, digits, dot, dash and underscore and
// replaces everything else with a dash.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	out := strings.Trim(b.String(), ".-")
	if len(out) > maxFileNameLen {
		out = out[len(out)-maxFileNameLen:]
	}
	if out == "" {
		return "file"
	}
	return out
}
