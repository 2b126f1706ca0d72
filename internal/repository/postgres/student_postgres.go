package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"studentapi/internal/model"
	"studentapi/internal/repository"
)

// StudentPostgres is a PostgreSQL implementation of repository.StudentRepository.
// Ids are UUIDs generated by the database; every operation is a single statement.
type StudentPostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewStudentPostgres creates a new StudentPostgres repository.
func NewStudentPostgres(db *sql.DB) *StudentPostgres {
	return &StudentPostgres{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.StudentRepository = (*StudentPostgres)(nil)

const studentColumns = `id, name, age, course, file_url, file_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*model.Student, error) {
	var (
		s         model.Student
		fileURL   sql.NullString
		fileKey   sql.NullString
		updatedAt sql.NullTime
	)
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Age,
		&s.Course,
		&fileURL,
		&fileKey,
		&s.CreatedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	s.FileURL = fileURL.String
	s.FileKey = fileKey.String
	if updatedAt.Valid {
		t := updatedAt.Time
		s.UpdatedAt = &t
	}
	return &s, nil
}

// Create inserts a new student row and returns the stored record.
func (r *StudentPostgres) Create(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	const q = `
		INSERT INTO students (name, age, course, file_url, file_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + studentColumns
	row := r.db.QueryRowContext(ctx, q,
		in.Name,
		in.Age,
		in.Course,
		nullString(in.FileURL),
		nullString(in.FileKey),
		r.now(),
	)
	return scanStudent(row)
}

// List returns all students, oldest first.
func (r *StudentPostgres) List(ctx context.Context) ([]model.Student, error) {
	const q = `
		SELECT ` + studentColumns + `
		FROM students
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single student. Ids that are not UUIDs cannot exist.
func (r *StudentPostgres) FindByID(ctx context.Context, id string) (*model.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	const q = `
		SELECT ` + studentColumns + `
		FROM students
		WHERE id = $1
	`
	s, err := scanStudent(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// Update overwrites the editable fields. updated_at never precedes created_at.
func (r *StudentPostgres) Update(ctx context.Context, id string, in model.StudentInput) (*model.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	const q = `
		UPDATE students
		SET name = $2, age = $3, course = $4, updated_at = GREATEST($5, created_at)
		WHERE id = $1
		RETURNING ` + studentColumns
	s, err := scanStudent(r.db.QueryRowContext(ctx, q, id, in.Name, in.Age, in.Course, r.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// Delete removes a student row, reporting ErrNotFound when nothing was deleted.
func (r *StudentPostgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	const q = `DELETE FROM students WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StudentPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
