// Package validation turns a caller-supplied student candidate into a
// normalized input or the full list of field problems.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"studentapi/internal/model"
)

// Field error codes.
const (
	CodeMinLength     = "min_length"
	CodeRange         = "range"
	CodeRequired      = "required"
	CodeInvalidChoice = "invalid_choice"
)

const (
	MinNameLength = 3
	MinAge        = 18
	MaxAge        = 100
)

// Courses is the fixed course enumeration used in strict mode.
var Courses = []string{
	"Full Stack Development",
	"Front-End Development",
	"Back-End Development",
	"AI/Machine Learning",
	"Data Analyst",
	"Data Science",
	"DevOps",
	"Cloud Computing",
	"Cybersecurity",
	"Mobile App Development",
	"UI/UX Design",
	"Blockchain Development",
	"Big Data",
	"Internet of Things",
	"Business Intelligence",
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors is the collected list of field errors for one candidate.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has an error with the given code.
func (e Errors) Has(field, code string) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

type Option func(*Validator)

// WithStrictCourses toggles matching course against the enumeration.
func WithStrictCourses(strict bool) Option {
	return func(v *Validator) { v.strict = strict }
}

// WithCourses replaces the course enumeration.
func WithCourses(courses []string) Option {
	return func(v *Validator) { v.courses = courses }
}

// Validator is safe for concurrent use; it holds no per-call state.
type Validator struct {
	validate *validator.Validate
	strict   bool
	courses  []string
}

const courseChoiceTag = "course_choice"

func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		strict:   true,
		courses:  Courses,
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.validate.RegisterValidation(courseChoiceTag, func(fl validator.FieldLevel) bool {
		_, ok := v.canonicalCourse(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

// Strict reports whether course must match the enumeration.
func (v *Validator) Strict() bool { return v.strict }

// Validate checks every field of c and returns either the normalized input
// or an Errors value listing every failing field.
func (v *Validator) Validate(c model.Candidate) (model.StudentInput, error) {
	var (
		out  model.StudentInput
		errs Errors
	)

	out.Name = strings.TrimSpace(toString(c.Name))
	if err := v.validate.Var(out.Name, fmt.Sprintf("min=%d", MinNameLength)); err != nil {
		errs = append(errs, fieldError("name", err))
	}

	age, ok := toInt(c.Age)
	if !ok {
		errs = append(errs, newFieldError("age", CodeRange))
	} else if err := v.validate.Var(age, fmt.Sprintf("gte=%d,lte=%d", MinAge, MaxAge)); err != nil {
		errs = append(errs, fieldError("age", err))
	}
	out.Age = age

	out.Course = strings.TrimSpace(toString(c.Course))
	tag := "required"
	if v.strict {
		tag += "," + courseChoiceTag
	}
	if err := v.validate.Var(out.Course, tag); err != nil {
		errs = append(errs, fieldError("course", err))
	} else if v.strict {
		out.Course, _ = v.canonicalCourse(out.Course)
	}

	if len(errs) > 0 {
		return model.StudentInput{}, errs
	}
	return out, nil
}

func (v *Validator) canonicalCourse(course string) (string, bool) {
	course = strings.TrimSpace(course)
	for _, c := range v.courses {
		if strings.EqualFold(c, course) {
			return c, true
		}
	}
	return "", false
}

func fieldError(field string, err error) FieldError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return newFieldError(field, CodeRequired)
	}
	switch ves[0].Tag() {
	case "min":
		return newFieldError(field, CodeMinLength)
	case "gte", "lte":
		return newFieldError(field, CodeRange)
	case courseChoiceTag:
		return newFieldError(field, CodeInvalidChoice)
	default:
		return newFieldError(field, CodeRequired)
	}
}

func newFieldError(field, code string) FieldError {
	return FieldError{Field: field, Code: code, Message: message(field, code)}
}

func message(field, code string) string {
	switch code {
	case CodeMinLength:
		return fmt.Sprintf("Name must be at least %d characters", MinNameLength)
	case CodeRange:
		return fmt.Sprintf("Age must be an integer between %d and %d", MinAge, MaxAge)
	case CodeInvalidChoice:
		return "Invalid course"
	default:
		return strings.ToUpper(field[:1]) + field[1:] + " is required"
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, float32, int, int64, int32, json.Number, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// toInt accepts JSON numbers with no fractional part and base-10 strings.
// Strings with surrounding whitespace are rejected.
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return intFromFloat(float64(t))
	case float32:
		return intFromFloat(float64(t))
	case float64:
		return intFromFloat(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return intFromFloat(float64(i))
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return intFromFloat(f)
	case string:
		i, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func intFromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
