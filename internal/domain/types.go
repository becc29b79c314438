package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IndicatorID identifies one AHRQ Patient Safety Indicator
type IndicatorID string

const (
	PSI_02 IndicatorID = "PSI-02"
	PSI_03 IndicatorID = "PSI-03"
	PSI_04 IndicatorID = "PSI-04"
	PSI_05 IndicatorID = "PSI-05"
	PSI_06 IndicatorID = "PSI-06"
	PSI_07 IndicatorID = "PSI-07"
	PSI_08 IndicatorID = "PSI-08"
	PSI_09 IndicatorID = "PSI-09"
	PSI_10 IndicatorID = "PSI-10"
	PSI_11 IndicatorID = "PSI-11"
	PSI_12 IndicatorID = "PSI-12"
	PSI_13 IndicatorID = "PSI-13"
	PSI_14 IndicatorID = "PSI-14"
	PSI_15 IndicatorID = "PSI-15"
	PSI_16 IndicatorID = "PSI-16"
	PSI_17 IndicatorID = "PSI-17"
	PSI_18 IndicatorID = "PSI-18"
	PSI_19 IndicatorID = "PSI-19"
)

// Number returns the numeric part of the indicator id, or 0 if malformed
func (id IndicatorID) Number() int {
	var n int
	if _, err := fmt.Sscanf(string(id), "PSI-%d", &n); err != nil {
		return 0
	}
	return n
}

// ParseIndicatorID accepts "PSI-11", "PSI_11", "psi11" or "11"
func ParseIndicatorID(s string) (IndicatorID, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "PSI")
	v = strings.TrimLeft(v, "-_ ")

	n, err := strconv.Atoi(v)
	if err != nil {
		return "", NewValidationError("indicator", "unrecognized indicator id", s)
	}
	if n < 2 || n > 19 {
		return "", NewValidationError("indicator", "indicator number out of range 02-19", s)
	}
	return IndicatorID(fmt.Sprintf("PSI-%02d", n)), nil
}

// Sex is the AHRQ closed sex enumeration
type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

// ParseSex accepts UB-04 numeric codes (1, 2) and their letter forms
func ParseSex(s string) (Sex, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "M", "MALE":
		return SexMale, nil
	case "2", "F", "FEMALE":
		return SexFemale, nil
	default:
		return "", ErrInvalidSex
	}
}

// POAStatus is the CMS present-on-admission indicator
type POAStatus string

const (
	POA_YES          POAStatus = "Y"
	POA_NO           POAStatus = "N"
	POA_UNKNOWN      POAStatus = "U"
	POA_UNDETERMINED POAStatus = "W"
	POA_EXEMPT       POAStatus = "1"
	POA_MISSING      POAStatus = ""
)

// ParsePOA normalizes a claim POA flag. "E" and "1" both mean exempt.
func ParsePOA(s string) (POAStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y":
		return POA_YES, nil
	case "N":
		return POA_NO, nil
	case "U":
		return POA_UNKNOWN, nil
	case "W":
		return POA_UNDETERMINED, nil
	case "1", "E":
		return POA_EXEMPT, nil
	case "":
		return POA_MISSING, nil
	default:
		return "", ErrInvalidPOA
	}
}

// Reported reports whether the flag states the condition was present at admission.
// Exempt codes are resolved against the reference by the indicator package.
func (p POAStatus) Reported() bool {
	return p == POA_YES || p == POA_UNDETERMINED
}

// Outcome is the coarse result of one indicator evaluation
type Outcome string

const (
	NOT_IN_POPULATION Outcome = "NOT_IN_POPULATION"
	EXCLUDED          Outcome = "EXCLUDED"
	DENOMINATOR       Outcome = "DENOMINATOR"
	NUMERATOR         Outcome = "NUMERATOR"
	UNEVALUABLE       Outcome = "UNEVALUABLE"
)

// IsValid reports whether the outcome is one of the known values
func (o Outcome) IsValid() bool {
	switch o {
	case NOT_IN_POPULATION, EXCLUDED, DENOMINATOR, NUMERATOR, UNEVALUABLE:
		return true
	default:
		return false
	}
}

// Sentinel errors
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSex        = errors.New("sex must be one of 1/M or 2/F")
	ErrInvalidPOA        = errors.New("POA flag must be one of Y, N, U, W, 1 or blank")
	ErrReferenceNotReady = errors.New("reference data not loaded")
)
