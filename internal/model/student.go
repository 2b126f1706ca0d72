package model

import "time"

// Student is a stored student record. It carries no persistence tags; each
// repository backend maps it to its own row or document shape.
type Student struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Age       int        `json:"age"`
	Course    string     `json:"course"`
	FileURL   string     `json:"fileUrl,omitempty"`
	FileKey   string     `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Candidate is the caller-supplied body of a create or update request.
// Fields stay untyped until validation coerces them.
type Candidate struct {
	Name   any `json:"name"`
	Age    any `json:"age"`
	Course any `json:"course"`
}

// StudentInput is a Candidate that passed validation: name trimmed, age an
// integer in range, course trimmed (and canonicalized in strict mode).
type StudentInput struct {
	Name    string
	Age     int
	Course  string
	FileURL string
	FileKey string
}
