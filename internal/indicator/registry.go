package indicator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/psi-indicator-engine/internal/domain"
)

// RulesVersion identifies the rule logic. Bump it whenever any rule changes
// how it classifies an encounter so cached verdicts are not reused.
const RulesVersion = "2024.2"

// Registry is the ordered collection of indicator rules
type Registry struct {
	rules []Rule
	byID  map[domain.IndicatorID]Rule
}

// NewRegistry registers every rule in PSI-02 through PSI-19 order
func NewRegistry() *Registry {
	r, err := NewRegistryFrom(
		PSI02(), PSI03(), PSI04(), PSI05(), PSI06(), PSI07(), PSI08(), PSI09(), PSI10(),
		PSI11(), PSI12(), PSI13(), PSI14(), PSI15(), PSI16(), PSI17(), PSI18(), PSI19(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistryFrom builds a registry over a subset of rules, sorted by indicator number
func NewRegistryFrom(rules ...Rule) (*Registry, error) {
	r := &Registry{
		rules: make([]Rule, 0, len(rules)),
		byID:  make(map[domain.IndicatorID]Rule, len(rules)),
	}
	for _, rule := range rules {
		if _, dup := r.byID[rule.ID()]; dup {
			return nil, fmt.Errorf("indicator %s registered twice", rule.ID())
		}
		r.byID[rule.ID()] = rule
		r.rules = append(r.rules, rule)
	}
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].ID().Number() < r.rules[j].ID().Number()
	})
	return r, nil
}

// All returns the rules in stable indicator order
func (r *Registry) All() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	return len(r.rules)
}

// Fingerprint names the rule logic and the registered indicators in order
func (r *Registry) Fingerprint() string {
	ids := make([]string, len(r.rules))
	for i, rule := range r.rules {
		ids[i] = string(rule.ID())
	}
	return RulesVersion + "/" + strings.Join(ids, ",")
}

// ByID returns the rule for id, or an error wrapping domain.ErrNotFound
func (r *Registry) ByID(id domain.IndicatorID) (Rule, error) {
	rule, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("indicator %s: %w", id, domain.ErrNotFound)
	}
	return rule, nil
}

// Lookup parses a user supplied id and returns its rule
func (r *Registry) Lookup(raw string) (Rule, error) {
	id, err := domain.ParseIndicatorID(raw)
	if err != nil {
		return nil, err
	}
	return r.ByID(id)
}

// RequiredCodeSets is the sorted union of every rule's declared code sets
func (r *Registry) RequiredCodeSets() []string {
	seen := make(map[string]struct{})
	for _, rule := range r.rules {
		for _, set := range rule.CodeSets() {
			seen[set] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Explain returns display text for the reasons behind a verdict. Callers
// wanting other wording can map the reason codes themselves.
func Explain(v domain.Verdict) string {
	switch v.Outcome {
	case domain.NOT_IN_POPULATION:
		return v.Population.Description()
	case domain.EXCLUDED:
		if len(v.Reasons) > 0 {
			return v.Reasons[0].Description()
		}
	case domain.NUMERATOR:
		return "Adverse event identified"
	case domain.DENOMINATOR:
		return "Eligible, no adverse event"
	case domain.UNEVALUABLE:
		return "Not evaluable: " + v.Failure
	}
	return string(v.Outcome)
}
