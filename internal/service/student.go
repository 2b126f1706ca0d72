package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studentapi/internal/model"
	"studentapi/internal/repository"
	"studentapi/internal/storage"
	"studentapi/internal/validation"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("student not found")
	ErrReaderNil      = errors.New("reader is nil")
	ErrUploadDisabled = errors.New("file uploads are not configured")
	ErrNoFile         = errors.New("student has no file")
)

// Upload is an optional file attached to a create request.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// StudentService defines the use cases for handling student records.
type StudentService interface {
	// List returns every student.
	List(ctx context.Context) ([]model.Student, error)

	// Get returns a single student by its ID.
	Get(ctx context.Context, id string) (*model.Student, error)

	// Create validates the candidate, uploads the optional file and stores the record.
	// Validation failures are returned as validation.Errors and nothing is stored or uploaded.
	Create(ctx context.Context, c model.Candidate, file *Upload) (*model.Student, error)

	// Update replaces name, age and course of an existing student.
	// A missing id yields ErrNotFound before the candidate is validated.
	Update(ctx context.Context, id string, c model.Candidate) (*model.Student, error)

	// Delete removes the student and then its attached file, if any.
	Delete(ctx context.Context, id string) error

	// OpenFile streams the file attached to a student.
	OpenFile(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

type studentService struct {
	validator *validation.Validator
	repo      repository.StudentRepository
	store     storage.Storage
	log       *zap.Logger
}

// NewStudentService constructs a new StudentService. store may be nil when
// uploads are disabled.
func NewStudentService(v *validation.Validator, repo repository.StudentRepository, store storage.Storage, log *zap.Logger) StudentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &studentService{validator: v, repo: repo, store: store, log: log}
}

func (s *studentService) List(ctx context.Context) ([]model.Student, error) {
	return s.repo.List(ctx)
}

func (s *studentService) Get(ctx context.Context, id string) (*model.Student, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return st, nil
}

func (s *studentService) Create(ctx context.Context, c model.Candidate, file *Upload) (*model.Student, error) {
	in, err := s.validator.Validate(c)
	if err != nil {
		return nil, err
	}

	if file != nil {
		key, err := s.upload(ctx, file)
		if err != nil {
			return nil, err
		}
		in.FileKey = key
		in.FileURL = s.store.URL(key)
	}

	stored, err := s.repo.Create(ctx, in)
	if err != nil {
		if in.FileKey != "" {
			// Rollback: the record never existed, so neither should its file.
			if delErr := s.store.Delete(ctx, in.FileKey); delErr != nil {
				return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// upload stores the file under students/<uuid><ext> and returns its key
// only after the object store acknowledged the write.
func (s *studentService) upload(ctx context.Context, file *Upload) (string, error) {
	if s.store == nil {
		return "", ErrUploadDisabled
	}
	if file.Reader == nil {
		return "", ErrReaderNil
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := filepath.ToSlash(filepath.Join("students", uuid.New().String()+ext))

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.store.Put(ctx, key, file.Reader, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": file.Filename,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	return info.Key, nil
}

func (s *studentService) Update(ctx context.Context, id string, c model.Candidate) (*model.Student, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}

	in, err := s.validator.Validate(c)
	if err != nil {
		return nil, err
	}

	st, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return st, nil
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}

	if st.FileKey != "" && s.store != nil {
		if err := s.store.Delete(ctx, st.FileKey); err != nil {
			s.log.Warn("student_file_cleanup_failed",
				zap.String("student_id", id),
				zap.String("key", st.FileKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *studentService) OpenFile(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	if st.FileKey == "" || s.store == nil {
		return nil, storage.ObjectInfo{}, ErrNoFile
	}
	rc, info, err := s.store.Get(ctx, st.FileKey)
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("open file: %w", err)
	}
	return rc, info, nil
}

func (s *studentService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
