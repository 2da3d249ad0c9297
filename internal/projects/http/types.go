package http

import (
	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/projects/service"
)

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	projects *service.ProjectService
	activity *service.ActivityService
	events   events.Subscriber
}

// New builds the handler. subscriber may be nil, which disables the
// live event stream.
func New(projects *service.ProjectService, activity *service.ActivityService, subscriber events.Subscriber) *Handler {
	return &Handler{projects: projects, activity: activity, events: subscriber}
}

type intakeReq struct {
	Title           string `json:"title"`
	PropertyAddress string `json:"property_address"`
	Notes           string `json:"notes"`
}

type detailsReq struct {
	Title           *string `json:"title"`
	PropertyAddress *string `json:"property_address"`
	Notes           *string `json:"notes"`
}

type statusReq struct {
	Status string `json:"status"`
}

type messageReq struct {
	Body string `json:"body"`
}

type revisionReq struct {
	Notes string `json:"notes"`
}

type uploadURLReq struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type fileReq struct {
	ObjectKey   string `json:"object_key"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}
