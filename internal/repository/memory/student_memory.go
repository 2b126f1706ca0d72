package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"studentapi/internal/model"
	"studentapi/internal/repository"
)

// StudentMemory keeps students in insertion order in process memory.
// Ids come from a counter that is never decremented, so deleted ids are not reused.
// All methods are safe for concurrent use and hand out copies.
type StudentMemory struct {
	mu       sync.RWMutex
	students []model.Student
	nextID   uint64
	now      func() time.Time
}

// NewStudentMemory creates an empty in-memory repository.
func NewStudentMemory() *StudentMemory {
	return &StudentMemory{now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.StudentRepository = (*StudentMemory)(nil)

func (r *StudentMemory) Create(_ context.Context, in model.StudentInput) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	s := model.Student{
		ID:        strconv.FormatUint(r.nextID, 10),
		Name:      in.Name,
		Age:       in.Age,
		Course:    in.Course,
		FileURL:   in.FileURL,
		FileKey:   in.FileKey,
		CreatedAt: r.now(),
	}
	r.students = append(r.students, s)
	return clone(s), nil
}

func (r *StudentMemory) List(_ context.Context) ([]model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Student, 0, len(r.students))
	for _, s := range r.students {
		out = append(out, *clone(s))
	}
	return out, nil
}

func (r *StudentMemory) FindByID(_ context.Context, id string) (*model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	return clone(r.students[i]), nil
}

func (r *StudentMemory) Update(_ context.Context, id string, in model.StudentInput) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	s := &r.students[i]
	s.Name = in.Name
	s.Age = in.Age
	s.Course = in.Course

	now := r.now()
	if now.Before(s.CreatedAt) {
		now = s.CreatedAt
	}
	s.UpdatedAt = &now
	return clone(*s), nil
}

func (r *StudentMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.students = append(r.students[:i], r.students[i+1:]...)
	return nil
}

func (r *StudentMemory) Ping(context.Context) error { return nil }

func (r *StudentMemory) indexOf(id string) int {
	for i := range r.students {
		if r.students[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(s model.Student) *model.Student {
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		s.UpdatedAt = &t
	}
	return &s
}
