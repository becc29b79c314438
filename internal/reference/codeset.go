package reference

import (
	"sort"
	"strings"
)

// Range is an inclusive lexical range over codes of equal length, e.g. 0JH60DZ..0JH63DZ
type Range struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

func (r Range) contains(code string) bool {
	return len(code) == len(r.From) && code >= r.From && code <= r.To
}

// CodeSet is one named, immutable set of ICD-10-CM/PCS or MS-DRG codes
type CodeSet struct {
	name   string
	codes  map[string]struct{}
	ranges []Range
}

// NewCodeSet builds a code set. Codes and range endpoints are normalized.
func NewCodeSet(name string, codes []string, ranges []Range) *CodeSet {
	cs := &CodeSet{
		name:  name,
		codes: make(map[string]struct{}, len(codes)),
	}
	for _, c := range codes {
		if n := NormalizeCode(c); n != "" {
			cs.codes[n] = struct{}{}
		}
	}
	for _, r := range ranges {
		cs.ranges = append(cs.ranges, Range{From: NormalizeCode(r.From), To: NormalizeCode(r.To)})
	}
	return cs
}

// Name returns the set name
func (cs *CodeSet) Name() string {
	return cs.name
}

// Contains reports exact membership of the normalized code
func (cs *CodeSet) Contains(code string) bool {
	n := NormalizeCode(code)
	if n == "" {
		return false
	}
	if _, ok := cs.codes[n]; ok {
		return true
	}
	for _, r := range cs.ranges {
		if r.contains(n) {
			return true
		}
	}
	return false
}

// Size is the number of explicit codes plus the number of ranges
func (cs *CodeSet) Size() int {
	return len(cs.codes) + len(cs.ranges)
}

// Codes returns the explicit codes in sorted order
func (cs *CodeSet) Codes() []string {
	out := make([]string, 0, len(cs.codes))
	for c := range cs.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Ranges returns a copy of the declared ranges
func (cs *CodeSet) Ranges() []Range {
	return append([]Range(nil), cs.ranges...)
}

// NormalizeCode upper-cases a code and strips dots and whitespace.
// "T81.4XXA" and "t814xxa" normalize to the same key.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	code = strings.ReplaceAll(code, ".", "")
	return strings.ToUpper(code)
}
