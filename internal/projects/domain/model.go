package domain

import (
	"time"

	"github.com/planhaus/portal-backend/internal/lifecycle"
)

// Project is a client's floor-plan order. It is storage-agnostic and used
// across repository, service and HTTP layers.
type Project struct {
	ID              string           `json:"id"`
	OwnerUID        string           `json:"owner_uid"`
	Title           string           `json:"title"`
	PropertyAddress string           `json:"property_address,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Status          lifecycle.Status `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ListFilter narrows a project listing. Zero values mean "no restriction".
type ListFilter struct {
	OwnerUID string
	Statuses []lifecycle.Status
	Limit    int
}

// Message is one entry in a project's conversation thread.
type Message struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	AuthorUID  string    `json:"author_uid"`
	AuthorRole Role      `json:"author_role"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// Revision is a change request raised against a project.
type Revision struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	RequestedBy string    `json:"requested_by"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileKind separates client uploads from published deliverables.
type FileKind string

const (
	FileKindIntake      FileKind = "intake"
	FileKindDeliverable FileKind = "deliverable"
)

// File is metadata for an object uploaded through a presigned URL.
type File struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Kind        FileKind  `json:"kind"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// IntakeInput is what a client submits to open a project.
type IntakeInput struct {
	Title           string
	PropertyAddress string
	Notes           string
}

// DetailsInput carries optional edits to a project's descriptive fields.
type DetailsInput struct {
	Title           *string
	PropertyAddress *string
	Notes           *string
}

// FileInput describes an uploaded object to be recorded.
type FileInput struct {
	ObjectKey   string
	FileName    string
	ContentType string
	SizeBytes   int64
}
