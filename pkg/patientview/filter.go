// Package patientview provides the in-memory filtering, sorting, and view
// selection used by interactive frontends over an already-fetched patient
// list.
package patientview

import (
	"sort"
	"strings"

	"github.com/medrec/medrec/pkg/client"
)

// SortKey names a sortable patient field.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByAge       SortKey = "age"
	SortByDiagnosis SortKey = "diagnosis"
	SortByOperation SortKey = "operation"
)

// Filter selects and orders patients from an in-memory list. The zero value
// matches everything sorted by name ascending. Filters compose
// conjunctively.
type Filter struct {
	// Search matches a case-insensitive substring of the name, or an
	// exact substring of any relative.
	Search string
	// Diagnosis and Operation are case-insensitive substring filters.
	Diagnosis string
	Operation string
	// MinAge and MaxAge are inclusive bounds; nil means unbounded.
	MinAge *int
	MaxAge *int
	// SortBy falls back to name for unknown keys.
	SortBy SortKey
	// Descending reverses the sort direction.
	Descending bool
}

func (f Filter) matches(p client.Patient) bool {
	if f.Search != "" {
		nameHit := strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search))
		relativeHit := false
		for _, rel := range p.Relatives {
			if strings.Contains(rel, f.Search) {
				relativeHit = true
				break
			}
		}
		if !nameHit && !relativeHit {
			return false
		}
	}
	if f.Diagnosis != "" && !strings.Contains(strings.ToLower(p.Diagnosis), strings.ToLower(f.Diagnosis)) {
		return false
	}
	if f.Operation != "" && !strings.Contains(strings.ToLower(p.Operation), strings.ToLower(f.Operation)) {
		return false
	}
	if f.MinAge != nil && p.Age < *f.MinAge {
		return false
	}
	if f.MaxAge != nil && p.Age > *f.MaxAge {
		return false
	}
	return true
}

// less compares two patients on the sort key, ascending. String keys
// compare case-insensitively.
func (f Filter) less(a, b client.Patient) bool {
	switch f.SortBy {
	case SortByAge:
		return a.Age < b.Age
	case SortByDiagnosis:
		return strings.ToLower(a.Diagnosis) < strings.ToLower(b.Diagnosis)
	case SortByOperation:
		return strings.ToLower(a.Operation) < strings.ToLower(b.Operation)
	default:
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
}

// Apply returns the patients matching the filter, sorted. The input list is
// not modified; equal keys keep their input order.
func (f Filter) Apply(patients []client.Patient) []client.Patient {
	out := make([]client.Patient, 0, len(patients))
	for _, p := range patients {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Descending {
			return f.less(out[j], out[i])
		}
		return f.less(out[i], out[j])
	})
	return out
}
