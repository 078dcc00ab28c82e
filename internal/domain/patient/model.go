package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors shared by repository and handlers.
var (
	// ErrNotFound means no patient exists for the given id.
	ErrNotFound = errors.New("patient not found")
	// ErrInvalidID means the supplied id is not a valid identifier.
	ErrInvalidID = errors.New("invalid patient ID format")
)

// Patient maps to the patients table.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Age       int       `db:"age" json:"age"`
	Diagnosis string    `db:"diagnosis" json:"diagnosis"`
	Operation string    `db:"operation" json:"operation"`
	Details   string    `db:"details" json:"details"`
	Picture   *string   `db:"picture" json:"picture"`
	Relatives []string  `db:"relatives" json:"relatives"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Stats summarizes the stored patient population.
type Stats struct {
	TotalPatients  int `json:"totalPatients"`
	AverageAge     int `json:"averageAge"`
	TotalRelatives int `json:"totalRelatives"`
}

// FieldError describes a single failed field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field failures. Error joins the messages into
// one human-readable string.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, ", ")
}

// NewValidationError builds a single-field ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

var (
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	phonePattern = regexp.MustCompile(`^\+?[1-9]?[0-9]{7,15}$`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// ValidPhone reports whether s looks like an international phone number:
// optional leading +, optional leading nonzero digit, then 7-15 digits,
// after spaces, hyphens, and parentheses are removed.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(phoneStrip.Replace(s))
}

// NormalizeRelatives trims every entry, collapses internal whitespace runs to
// single spaces, and drops entries that are blank after trimming. Order of
// the surviving entries is preserved.
func NormalizeRelatives(relatives []string) []string {
	out := make([]string, 0, len(relatives))
	for _, r := range relatives {
		r = strings.TrimSpace(spaceRuns.ReplaceAllString(r, " "))
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ParseRelatives turns raw multipart form values into a relatives list. A
// single value holding a JSON array is decoded; repeated plain values are
// taken as the list itself. Malformed JSON is a validation error, not a
// crash. The result is normalized.
func ParseRelatives(values []string) ([]string, error) {
	if len(values) == 0 {
		return []string{}, nil
	}
	if len(values) == 1 {
		v := strings.TrimSpace(values[0])
		if v == "" {
			return []string{}, nil
		}
		if strings.HasPrefix(v, "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(v), &parsed); err != nil {
				return nil, NewValidationError("relatives", "Invalid relatives data format")
			}
			return NormalizeRelatives(parsed), nil
		}
	}
	return NormalizeRelatives(values), nil
}

// Normalize trims the text fields and normalizes the relatives list in place.
func (p *Patient) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Diagnosis = strings.TrimSpace(p.Diagnosis)
	p.Operation = strings.TrimSpace(p.Operation)
	p.Details = strings.TrimSpace(p.Details)
	p.Relatives = NormalizeRelatives(p.Relatives)
}

func checkLength(errs []FieldError, field, value, label string, min, max int) []FieldError {
	n := len([]rune(value))
	switch {
	case n == 0:
		errs = append(errs, FieldError{Field: field, Message: label + " is required"})
	case n < min:
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s must be at least %d characters long", label, min)})
	case n > max:
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s cannot exceed %d characters", label, max)})
	}
	return errs
}

// Validate checks every field constraint on an already-normalized patient
// and returns a ValidationError listing each failure, or nil.
func (p *Patient) Validate() error {
	var errs []FieldError

	errs = checkLength(errs, "name", p.Name, "Name", 2, 100)

	if p.Age < 0 {
		errs = append(errs, FieldError{Field: "age", Message: "Age cannot be negative"})
	} else if p.Age > 120 {
		errs = append(errs, FieldError{Field: "age", Message: "Age cannot exceed 120"})
	}

	errs = checkLength(errs, "diagnosis", p.Diagnosis, "Diagnosis", 5, 2000)
	errs = checkLength(errs, "operation", p.Operation, "Operation", 5, 2000)
	errs = checkLength(errs, "details", p.Details, "Details", 5, 2000)

	for _, r := range p.Relatives {
		if !ValidPhone(r) {
			errs = append(errs, FieldError{Field: "relatives", Message: fmt.Sprintf("%q is not a valid phone number", r)})
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
