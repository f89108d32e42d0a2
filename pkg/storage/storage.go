package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhin-exe/weave/pkg/project"
	"github.com/jhin-exe/weave/pkg/state"
)

// ErrProjectNotFound is returned by GetProject for an unknown file name.
var ErrProjectNotFound = errors.New("project not found")

// Session is a stored playthrough: which project it plays and where the
// player is in it.
type Session struct {
	ID        uuid.UUID     `json:"id"`
	Project   string        `json:"project"` // project file name
	State     state.Session `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Storage defines a unified interface for all storage operations.
// Sessions live in Redis; projects are read from the filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed). LoadSession returns nil, nil when
	// the session does not exist or has expired.
	SaveSession(ctx context.Context, s *Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Project operations (filesystem-backed). ListProjects maps titles to
	// file names.
	ListProjects(ctx context.Context) (map[string]string, error)
	GetProject(ctx context.Context, filename string) (*project.Project, error)
}
