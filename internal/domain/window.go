package domain

import "fmt"

// DayBound is one end of a day window
type DayBound struct {
	Days      int  `json:"days" yaml:"days"`
	Inclusive bool `json:"inclusive" yaml:"inclusive"`
}

// DayWindow bounds a day offset relative to an index event. A nil bound is open.
type DayWindow struct {
	Min *DayBound `json:"min,omitempty" yaml:"min,omitempty"`
	Max *DayBound `json:"max,omitempty" yaml:"max,omitempty"`
}

// AnyDay accepts every offset
func AnyDay() DayWindow { return DayWindow{} }

// AtLeast accepts offset >= days
func AtLeast(days int) DayWindow {
	return DayWindow{Min: &DayBound{Days: days, Inclusive: true}}
}

// MoreThan accepts offset > days
func MoreThan(days int) DayWindow {
	return DayWindow{Min: &DayBound{Days: days}}
}

// AtMost accepts offset <= days
func AtMost(days int) DayWindow {
	return DayWindow{Max: &DayBound{Days: days, Inclusive: true}}
}

// LessThan accepts offset < days
func LessThan(days int) DayWindow {
	return DayWindow{Max: &DayBound{Days: days}}
}

// Between accepts min <= offset <= max
func Between(min, max int) DayWindow {
	return DayWindow{
		Min: &DayBound{Days: min, Inclusive: true},
		Max: &DayBound{Days: max, Inclusive: true},
	}
}

// Contains reports whether offset falls inside the window
func (w DayWindow) Contains(offset int) bool {
	if w.Min != nil {
		if w.Min.Inclusive && offset < w.Min.Days {
			return false
		}
		if !w.Min.Inclusive && offset <= w.Min.Days {
			return false
		}
	}
	if w.Max != nil {
		if w.Max.Inclusive && offset > w.Max.Days {
			return false
		}
		if !w.Max.Inclusive && offset >= w.Max.Days {
			return false
		}
	}
	return true
}

func (w DayWindow) String() string {
	lo, hi := "(-inf", "+inf)"
	if w.Min != nil {
		lo = fmt.Sprintf("(%d", w.Min.Days)
		if w.Min.Inclusive {
			lo = fmt.Sprintf("[%d", w.Min.Days)
		}
	}
	if w.Max != nil {
		hi = fmt.Sprintf("%d)", w.Max.Days)
		if w.Max.Inclusive {
			hi = fmt.Sprintf("%d]", w.Max.Days)
		}
	}
	return lo + ", " + hi
}
