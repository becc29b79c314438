package reference

import (
	"fmt"
	"strings"
	"time"

	"github.com/psi-indicator-engine/internal/domain"
)

const dateLayout = "2006-01-02"

// drgCodeSets hold MS-DRG values, which encounters carry zero-padded to
// three digits
var drgCodeSets = map[string]bool{
	"SURGI2R": true,
	"MEDIC2R": true,
	"LOWMODR": true,
}

// Bundle is the logical shape of persisted reference data
type Bundle struct {
	Version       string                   `json:"version" yaml:"version"`
	EffectiveFrom string                   `json:"effective_from" yaml:"effective_from"`
	EffectiveTo   string                   `json:"effective_to" yaml:"effective_to"`
	Description   string                   `json:"description,omitempty" yaml:"description,omitempty"`
	CodeSets      map[string]BundleCodeSet `json:"code_sets" yaml:"code_sets"`
}

// BundleCodeSet is one code set as persisted
type BundleCodeSet struct {
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Codes       []string `json:"codes,omitempty" yaml:"codes,omitempty"`
	Ranges      []Range  `json:"ranges,omitempty" yaml:"ranges,omitempty"`
}

// FromBundle validates a bundle and builds an immutable Reference.
// Every problem is reported as a *domain.ReferenceLoadError.
func FromBundle(b Bundle, source, digest string) (*Reference, error) {
	version := strings.TrimSpace(b.Version)
	if version == "" {
		return nil, domain.NewReferenceLoadError(source, "bundle version is required", nil)
	}
	if version != SupportedVersion {
		return nil, domain.NewReferenceLoadError(source,
			fmt.Sprintf("unsupported reference version %q, rules implement %q", version, SupportedVersion), nil)
	}

	from, err := parseDate(b.EffectiveFrom)
	if err != nil {
		return nil, domain.NewReferenceLoadError(source, "invalid effective_from", err)
	}
	to, err := parseDate(b.EffectiveTo)
	if err != nil {
		return nil, domain.NewReferenceLoadError(source, "invalid effective_to", err)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, domain.NewReferenceLoadError(source, "effective_to precedes effective_from", nil)
	}

	if len(b.CodeSets) == 0 {
		return nil, domain.NewReferenceLoadError(source, "bundle defines no code sets", nil)
	}

	sets := make(map[string]*CodeSet, len(b.CodeSets))
	for name, def := range b.CodeSets {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, domain.NewReferenceLoadError(source, "code set with empty name", nil)
		}
		if trimmed != name {
			return nil, domain.NewReferenceLoadError(source, fmt.Sprintf("code set name %q has surrounding whitespace", name), nil)
		}
		if len(def.Codes) == 0 && len(def.Ranges) == 0 {
			return nil, domain.NewReferenceLoadError(source, fmt.Sprintf("code set %s is empty", name), nil)
		}
		for _, r := range def.Ranges {
			if err := validateRange(r); err != nil {
				return nil, domain.NewReferenceLoadError(source, fmt.Sprintf("code set %s", name), err)
			}
		}
		if drgCodeSets[name] {
			if err := validateDRGCodes(def); err != nil {
				return nil, domain.NewReferenceLoadError(source, fmt.Sprintf("code set %s", name), err)
			}
		}
		sets[name] = NewCodeSet(name, def.Codes, def.Ranges)
	}

	return &Reference{
		version:       version,
		effectiveFrom: from,
		effectiveTo:   to,
		digest:        digest,
		source:        source,
		loadedAt:      time.Now().UTC(),
		sets:          sets,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func validateRange(r Range) error {
	from, to := NormalizeCode(r.From), NormalizeCode(r.To)
	if from == "" || to == "" {
		return fmt.Errorf("range endpoints are required")
	}
	if len(from) != len(to) {
		return fmt.Errorf("range %s..%s mixes code lengths", r.From, r.To)
	}
	if from > to {
		return fmt.Errorf("range %s..%s is inverted", r.From, r.To)
	}
	return nil
}

func validateDRGCodes(def BundleCodeSet) error {
	for _, c := range def.Codes {
		if !isDRG(NormalizeCode(c)) {
			return fmt.Errorf("MS-DRG code %q must be three digits", c)
		}
	}
	for _, r := range def.Ranges {
		if !isDRG(NormalizeCode(r.From)) || !isDRG(NormalizeCode(r.To)) {
			return fmt.Errorf("MS-DRG range %s..%s must use three-digit codes", r.From, r.To)
		}
	}
	return nil
}

func isDRG(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
