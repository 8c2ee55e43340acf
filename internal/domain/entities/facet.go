package entities

import (
	"sort"
	"strings"
	"time"
)

// FacetKind tags which variant a FacetValue holds
type FacetKind int

const (
	FacetNone FacetKind = iota
	FacetScalar
	FacetSet
	FacetDateRange
	FacetNumericRange
)

func (k FacetKind) String() string {
	switch k {
	case FacetScalar:
		return "scalar"
	case FacetSet:
		return "set"
	case FacetDateRange:
		return "dates"
	case FacetNumericRange:
		return "numbers"
	default:
		return "none"
	}
}

// DateRange bounds a date filter. Either end may be open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// NumericRange bounds a numeric filter. Either end may be open.
type NumericRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsZero reports whether neither bound is set
func (r NumericRange) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// FacetValue is the value of one named filter. The zero value is the empty facet.
// Values are only built through the constructors below, which normalize them, so
// two logically equal facets always compare equal with Equal.
type FacetValue struct {
	kind    FacetKind
	scalar  string
	set     []string
	dates   DateRange
	numbers NumericRange
}

// NoFacet returns the empty facet
func NoFacet() FacetValue {
	return FacetValue{}
}

// Scalar returns a single-value facet. Blank values are empty facets.
func Scalar(v string) FacetValue {
	v = strings.TrimSpace(v)
	if v == "" {
		return FacetValue{}
	}
	return FacetValue{kind: FacetScalar, scalar: v}
}

// Set returns a multi-value facet. Members are trimmed, deduplicated and sorted;
// an empty set is the empty facet and a one-element set is a scalar.
func Set(values ...string) FacetValue {
	seen := make(map[string]struct{}, len(values))
	members := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		members = append(members, v)
	}

	switch len(members) {
	case 0:
		return FacetValue{}
	case 1:
		return FacetValue{kind: FacetScalar, scalar: members[0]}
	}

	sort.Strings(members)
	return FacetValue{kind: FacetSet, set: members}
}

// Dates returns a date-range facet truncated to whole days
func Dates(r DateRange) FacetValue {
	r = r.normalized()
	if r.IsZero() {
		return FacetValue{}
	}
	return FacetValue{kind: FacetDateRange, dates: r}
}

// Numbers returns a numeric-range facet
func Numbers(r NumericRange) FacetValue {
	if r.IsZero() {
		return FacetValue{}
	}
	return FacetValue{kind: FacetNumericRange, numbers: r.clone()}
}

// Kind returns the variant tag
func (f FacetValue) Kind() FacetKind {
	return f.kind
}

// IsEmpty reports whether the facet constrains nothing
func (f FacetValue) IsEmpty() bool {
	return f.kind == FacetNone
}

// Value returns the scalar value, or "" for other kinds
func (f FacetValue) Value() string {
	return f.scalar
}

// Values returns the members of a scalar or set facet
func (f FacetValue) Values() []string {
	switch f.kind {
	case FacetScalar:
		return []string{f.scalar}
	case FacetSet:
		out := make([]string, len(f.set))
		copy(out, f.set)
		return out
	default:
		return nil
	}
}

// DateRange returns the date bounds of a date-range facet
func (f FacetValue) DateRange() DateRange {
	return f.dates
}

// NumericRange returns the numeric bounds of a numeric-range facet
func (f FacetValue) NumericRange() NumericRange {
	return f.numbers
}

// Equal compares two facets by value
func (f FacetValue) Equal(o FacetValue) bool {
	if f.kind != o.kind {
		return false
	}
	switch f.kind {
	case FacetScalar:
		return f.scalar == o.scalar
	case FacetSet:
		if len(f.set) != len(o.set) {
			return false
		}
		for i := range f.set {
			if f.set[i] != o.set[i] {
				return false
			}
		}
		return true
	case FacetDateRange:
		return FormatDate(f.dates.From) == FormatDate(o.dates.From) &&
			FormatDate(f.dates.To) == FormatDate(o.dates.To)
	case FacetNumericRange:
		return FormatNumber(f.numbers.Min) == FormatNumber(o.numbers.Min) &&
			FormatNumber(f.numbers.Max) == FormatNumber(o.numbers.Max)
	default:
		return true
	}
}

func (r DateRange) normalized() DateRange {
	return DateRange{From: truncateDay(r.From), To: truncateDay(r.To)}
}

func (r NumericRange) clone() NumericRange {
	var out NumericRange
	if r.Min != nil {
		v := *r.Min
		out.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		out.Max = &v
	}
	return out
}

func truncateDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}
