// Package reference holds the versioned AHRQ code-set reference data the
// indicator rules are evaluated against.
package reference

import (
	"sort"
	"time"

	"github.com/psi-indicator-engine/internal/domain"
)

// SupportedVersion is the AHRQ PSI software version the indicator rules implement.
// Bundles at any other version are rejected at load time.
const SupportedVersion = "2024"

// Reference is one loaded, immutable version of the code-set reference
type Reference struct {
	version       string
	effectiveFrom time.Time
	effectiveTo   time.Time
	digest        string
	source        string
	loadedAt      time.Time
	sets          map[string]*CodeSet
}

// Info summarizes a reference for logs and API responses
type Info struct {
	Version       string    `json:"version"`
	EffectiveFrom time.Time `json:"effective_from"`
	EffectiveTo   time.Time `json:"effective_to"`
	Digest        string    `json:"digest"`
	Source        string    `json:"source"`
	LoadedAt      time.Time `json:"loaded_at"`
	CodeSets      int       `json:"code_sets"`
}

// Version returns the version identifier
func (r *Reference) Version() string {
	return r.version
}

// Digest returns the sha256 digest of the source bytes, if known
func (r *Reference) Digest() string {
	return r.digest
}

// EffectiveRange returns the inclusive effective-date range
func (r *Reference) EffectiveRange() (time.Time, time.Time) {
	return r.effectiveFrom, r.effectiveTo
}

// Info returns a summary of the reference
func (r *Reference) Info() Info {
	return Info{
		Version:       r.version,
		EffectiveFrom: r.effectiveFrom,
		EffectiveTo:   r.effectiveTo,
		Digest:        r.digest,
		Source:        r.source,
		LoadedAt:      r.loadedAt,
		CodeSets:      len(r.sets),
	}
}

// Has reports whether the set is defined in this version
func (r *Reference) Has(setName string) bool {
	_, ok := r.sets[setName]
	return ok
}

// Set returns the named code set
func (r *Reference) Set(setName string) (*CodeSet, error) {
	cs, ok := r.sets[setName]
	if !ok {
		return nil, &domain.UnknownCodeSetError{Set: setName, Version: r.version}
	}
	return cs, nil
}

// Lookup reports whether code belongs to setName.
// An undefined set is an error, never an empty match.
func (r *Reference) Lookup(setName, code string) (bool, error) {
	cs, err := r.Set(setName)
	if err != nil {
		return false, err
	}
	return cs.Contains(code), nil
}

// LookupRange reports whether code belongs to setName and dayOffset, measured
// from the caller's index event, lies inside window.
func (r *Reference) LookupRange(setName, code string, dayOffset int, window domain.DayWindow) (bool, error) {
	ok, err := r.Lookup(setName, code)
	if err != nil || !ok {
		return false, err
	}
	return window.Contains(dayOffset), nil
}

// Require returns an UnknownCodeSetError for the first missing set name
func (r *Reference) Require(names ...string) error {
	for _, name := range names {
		if !r.Has(name) {
			return &domain.UnknownCodeSetError{Set: name, Version: r.version}
		}
	}
	return nil
}

// Missing returns every name not defined in this version, sorted
func (r *Reference) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if !r.Has(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Names returns the defined set names, sorted
func (r *Reference) Names() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EffectiveOn reports whether the reference covers the given date
func (r *Reference) EffectiveOn(t time.Time) bool {
	if !r.effectiveFrom.IsZero() && t.Before(r.effectiveFrom) {
		return false
	}
	if !r.effectiveTo.IsZero() && t.After(r.effectiveTo) {
		return false
	}
	return true
}
