package repository

import (
	"context"
	"errors"

	"studentapi/internal/model"
)

// ErrNotFound is returned by every backend when no record has the given id.
var ErrNotFound = errors.New("student not found")

// StudentRepository owns student records and their identity. Implementations
// assign ids and timestamps; callers pass only validated input.
type StudentRepository interface {
	// Create stores a new record with a fresh id, CreatedAt set and UpdatedAt unset.
	Create(ctx context.Context, in model.StudentInput) (*model.Student, error)

	// List returns every record. It never returns a nil slice.
	List(ctx context.Context) ([]model.Student, error)

	// FindByID returns ErrNotFound if the id does not exist.
	FindByID(ctx context.Context, id string) (*model.Student, error)

	// Update overwrites name, age and course and stamps UpdatedAt.
	// File fields are left untouched.
	Update(ctx context.Context, id string, in model.StudentInput) (*model.Student, error)

	// Delete removes the record irreversibly, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
