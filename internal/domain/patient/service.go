package patient

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrec/medrec/internal/platform/filestore"
)

const (
	// SearchMinLength is the shortest accepted search query, counted in
	// runes after trimming.
	SearchMinLength = 2
	// SearchLimit caps the dedicated search endpoint's result count.
	SearchLimit = 20
)

// Service provides business logic for the patient domain, including the
// picture upload lifecycle.
type Service struct {
	patients Repository
	files    filestore.Store
	logger   zerolog.Logger
}

func NewService(patients Repository, files filestore.Store, logger zerolog.Logger) *Service {
	return &Service{patients: patients, files: files, logger: logger}
}

// CreateInput carries the raw multipart form fields of a create request.
// Age arrives as a string and is coerced after the required-field check.
type CreateInput struct {
	Name      string
	Age       string
	Diagnosis string
	Operation string
	Details   string
	Relatives []string
}

// UpdateInput carries the form fields of an update request. Nil pointers
// mean "field not provided, keep the stored value". Relatives fully replace
// the stored list, but only when RelativesSet is true.
type UpdateInput struct {
	Name         *string
	Age          *string
	Diagnosis    *string
	Operation    *string
	Details      *string
	Relatives    []string
	RelativesSet bool
}

// discard removes a stored picture file. Deletion failures are logged and
// swallowed: record operations must not fail over filesystem housekeeping.
func (s *Service) discard(path string) {
	if path == "" {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("could not delete picture file")
	}
}

func parseAge(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, NewValidationError("age", "Age must be a whole number")
	}
	return age, nil
}

// Create validates and persists a new patient. When a picture upload is
// supplied it is stored first; if validation or the insert fails afterwards
// the stored file is removed before the error is returned, so no orphaned
// file survives a failed create.
func (s *Service) Create(ctx context.Context, in CreateInput, up *filestore.Upload) (*Patient, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Age) == "" ||
		strings.TrimSpace(in.Diagnosis) == "" || strings.TrimSpace(in.Operation) == "" ||
		strings.TrimSpace(in.Details) == "" {
		return nil, NewValidationError("", "Name, age, diagnosis, operation and details are required fields")
	}

	var path string
	if up != nil {
		p, err := s.files.Save(ctx, up)
		if err != nil {
			return nil, err
		}
		path = p
	}

	age, err := parseAge(in.Age)
	if err != nil {
		s.discard(path)
		return nil, err
	}

	relatives, err := ParseRelatives(in.Relatives)
	if err != nil {
		s.discard(path)
		return nil, err
	}

	p := &Patient{
		Name:      in.Name,
		Age:       age,
		Diagnosis: in.Diagnosis,
		Operation: in.Operation,
		Details:   in.Details,
		Relatives: relatives,
	}
	p.Normalize()
	if path != "" {
		p.Picture = &path
	}

	if err := p.Validate(); err != nil {
		s.discard(path)
		return nil, err
	}

	if err := s.patients.Create(ctx, p); err != nil {
		s.discard(path)
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// Update applies partial update semantics: provided fields replace the
// stored values, absent fields are retained. A relatives key, when present,
// fully replaces the stored list. A new picture replaces the old file; the
// old file is deleted only after the record references the new one.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, up *filestore.Upload) (*Patient, error) {
	existing, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		existing.Name = *in.Name
	}
	if in.Age != nil {
		age, err := parseAge(*in.Age)
		if err != nil {
			return nil, err
		}
		existing.Age = age
	}
	if in.Diagnosis != nil {
		existing.Diagnosis = *in.Diagnosis
	}
	if in.Operation != nil {
		existing.Operation = *in.Operation
	}
	if in.Details != nil {
		existing.Details = *in.Details
	}
	if in.RelativesSet {
		relatives, err := ParseRelatives(in.Relatives)
		if err != nil {
			return nil, err
		}
		existing.Relatives = relatives
	}

	existing.Normalize()
	if err := existing.Validate(); err != nil {
		return nil, err
	}

	var oldPicture string
	var newPath string
	if up != nil {
		newPath, err = s.files.Save(ctx, up)
		if err != nil {
			return nil, err
		}
		if existing.Picture != nil {
			oldPicture = *existing.Picture
		}
		existing.Picture = &newPath
	}

	if err := s.patients.Update(ctx, existing); err != nil {
		s.discard(newPath)
		return nil, err
	}

	// The new file is durably referenced; the replaced one can go.
	s.discard(oldPicture)
	return existing, nil
}

// UpdatePicture replaces only the stored picture.
func (s *Service) UpdatePicture(ctx context.Context, id uuid.UUID, up *filestore.Upload) (*Patient, error) {
	if up == nil {
		return nil, filestore.ErrNoFile
	}

	existing, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newPath, err := s.files.Save(ctx, up)
	if err != nil {
		return nil, err
	}

	var oldPicture string
	if existing.Picture != nil {
		oldPicture = *existing.Picture
	}
	existing.Picture = &newPath

	if err := s.patients.Update(ctx, existing); err != nil {
		s.discard(newPath)
		return nil, err
	}

	s.discard(oldPicture)
	return existing, nil
}

// Delete removes the record and, best-effort, its picture file.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}

	if existing.Picture != nil {
		s.discard(*existing.Picture)
	}
	return nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]*Patient, int, error) {
	return s.patients.List(ctx, params)
}

// Search runs the OR-substring match across name, diagnosis, operation,
// and relatives. The query must be at least SearchMinLength runes after
// trimming.
func (s *Service) Search(ctx context.Context, q string) ([]*Patient, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < SearchMinLength {
		return nil, NewValidationError("q", "Search query must be at least 2 characters long")
	}
	return s.patients.Search(ctx, q, SearchLimit)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.patients.Stats(ctx)
}
