package entities

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// Request parameter names shared by the list API client and server
const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamSearch   = "search"
	ParamDateFrom = "dateFrom"
	ParamDateTo   = "dateTo"
	ParamValueMin = "valueMin"
	ParamValueMax = "valueMax"
	ParamSort     = "sort"
	ParamOrder    = "order"

	DateLayout = "2006-01-02"

	// MaxPage bounds the page parameter so row offsets stay in range
	MaxPage = 1_000_000
)

var topLevelParams = []string{
	ParamPage, ParamPageSize, ParamSearch,
	ParamDateFrom, ParamDateTo, ParamValueMin, ParamValueMax,
	ParamSort, ParamOrder,
}

// range facets are sent as key+suffix
var facetParamSuffixes = []string{"", "From", "To", "Min", "Max"}

// IsReservedFacetKey reports whether a facet named key would be sent under the
// name of a top-level parameter. "date" and "value" are reserved this way.
func IsReservedFacetKey(key string) bool {
	for _, p := range topLevelParams {
		for _, sfx := range facetParamSuffixes {
			if key+sfx == p {
				return true
			}
		}
	}
	return false
}

// FilterState is the complete description of what a list screen is asking for.
// It is a value type: the With* methods return modified copies.
type FilterState struct {
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
	Search       string                `json:"search,omitempty"`
	Facets       map[string]FacetValue `json:"-"`
	DateRange    DateRange             `json:"dateRange"`
	NumericRange NumericRange          `json:"numericRange"`
	Sort         SortState             `json:"sort"`
}

// NewFilterState returns the empty state for the first page
func NewFilterState(pageSize int) FilterState {
	return FilterState{
		Page:     1,
		PageSize: pageSize,
		Facets:   make(map[string]FacetValue),
	}
}

// Clone returns a copy that shares no mutable state with f
func (f FilterState) Clone() FilterState {
	out := f
	out.Facets = make(map[string]FacetValue, len(f.Facets))
	for k, v := range f.Facets {
		out.Facets[k] = v
	}
	out.DateRange = f.DateRange.normalized()
	out.NumericRange = f.NumericRange.clone()
	return out
}

// Normalized returns the canonical form: empty facets dropped, search trimmed,
// page at least 1.
func (f FilterState) Normalized() FilterState {
	out := f.Clone()
	for k, v := range out.Facets {
		if v.IsEmpty() {
			delete(out.Facets, k)
		}
	}
	out.Search = strings.TrimSpace(out.Search)
	if out.Page < 1 {
		out.Page = 1
	}
	return out
}

// Facet returns the value of a named facet, or the empty facet
func (f FilterState) Facet(key string) FacetValue {
	return f.Facets[key]
}

// WithFacet replaces one facet and returns to the first page. Reserved keys
// are ignored and f is returned unchanged.
func (f FilterState) WithFacet(key string, v FacetValue) FilterState {
	out := f.Clone()
	if IsReservedFacetKey(key) {
		return out
	}
	if v.IsEmpty() {
		delete(out.Facets, key)
	} else {
		out.Facets[key] = v
	}
	out.Page = 1
	return out
}

// WithDateRange replaces the date range and returns to the first page
func (f FilterState) WithDateRange(r DateRange) FilterState {
	out := f.Clone()
	out.DateRange = r.normalized()
	out.Page = 1
	return out
}

// WithNumericRange replaces the numeric bounds and returns to the first page
func (f FilterState) WithNumericRange(r NumericRange) FilterState {
	out := f.Clone()
	out.NumericRange = r.clone()
	out.Page = 1
	return out
}

// WithSearch replaces the applied search and returns to the first page
func (f FilterState) WithSearch(s string) FilterState {
	out := f.Clone()
	out.Search = strings.TrimSpace(s)
	out.Page = 1
	return out
}

// WithSort replaces the sort and returns to the first page
func (f FilterState) WithSort(s SortState) FilterState {
	out := f.Clone()
	out.Sort = s
	out.Page = 1
	return out
}

// WithPage moves to page n without touching anything else
func (f FilterState) WithPage(n int) FilterState {
	out := f.Clone()
	if n < 1 {
		n = 1
	}
	out.Page = n
	return out
}

// Cleared drops every facet, range and search. Page size and sort survive.
func (f FilterState) Cleared() FilterState {
	out := NewFilterState(f.PageSize)
	out.Sort = f.Sort
	return out
}

// QueryParams renders the state as request parameters.
// Empty facets are omitted and a set is sent comma-joined.
func (f FilterState) QueryParams() url.Values {
	n := f.Normalized()
	params := url.Values{}
	params.Set(ParamPage, strconv.Itoa(n.Page))
	params.Set(ParamPageSize, strconv.Itoa(n.PageSize))

	if n.Search != "" {
		params.Set(ParamSearch, n.Search)
	}

	for key, v := range n.Facets {
		switch v.Kind() {
		case FacetScalar:
			params.Set(key, v.Value())
		case FacetSet:
			params.Set(key, strings.Join(v.Values(), ","))
		case FacetDateRange:
			setIf(params, key+"From", FormatDate(v.DateRange().From))
			setIf(params, key+"To", FormatDate(v.DateRange().To))
		case FacetNumericRange:
			setIf(params, key+"Min", FormatNumber(v.NumericRange().Min))
			setIf(params, key+"Max", FormatNumber(v.NumericRange().Max))
		case FacetNone:
		}
	}

	setIf(params, ParamDateFrom, FormatDate(n.DateRange.From))
	setIf(params, ParamDateTo, FormatDate(n.DateRange.To))
	setIf(params, ParamValueMin, FormatNumber(n.NumericRange.Min))
	setIf(params, ParamValueMax, FormatNumber(n.NumericRange.Max))

	if n.Sort.Field != "" {
		params.Set(ParamSort, n.Sort.Field)
		params.Set(ParamOrder, string(n.Sort.Direction.OrDefault()))
	}

	return params
}

// ParseOptions tells ParseFilterState which parameters are facets
type ParseOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	FacetKeys       []string
	SortFields      []string
}

// ParseFilterState reads request parameters back into a FilterState.
// Malformed numbers or dates are validation errors.
func ParseFilterState(q url.Values, opts ParseOptions) (FilterState, error) {
	state := NewFilterState(opts.DefaultPageSize)

	if v := q.Get(ParamPage); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 || page > MaxPage {
			return state, apperrors.NewValidationError(fmt.Sprintf("invalid %s: %q", ParamPage, v))
		}
		state.Page = page
	}

	if v := q.Get(ParamPageSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return state, apperrors.NewValidationError(fmt.Sprintf("invalid %s: %q", ParamPageSize, v))
		}
		if opts.MaxPageSize > 0 && size > opts.MaxPageSize {
			size = opts.MaxPageSize
		}
		state.PageSize = size
	}

	state.Search = strings.TrimSpace(q.Get(ParamSearch))

	for _, key := range opts.FacetKeys {
		if IsReservedFacetKey(key) {
			return state, apperrors.NewValidationError(fmt.Sprintf("facet %q clashes with a list parameter", key))
		}
		if raw := q.Get(key); raw != "" {
			state.Facets[key] = Set(strings.Split(raw, ",")...)
		}
	}

	var err error
	if state.DateRange.From, err = parseDate(q, ParamDateFrom); err != nil {
		return state, err
	}
	if state.DateRange.To, err = parseDate(q, ParamDateTo); err != nil {
		return state, err
	}
	if state.NumericRange.Min, err = parseNumber(q, ParamValueMin); err != nil {
		return state, err
	}
	if state.NumericRange.Max, err = parseNumber(q, ParamValueMax); err != nil {
		return state, err
	}

	if field := q.Get(ParamSort); field != "" {
		if !contains(opts.SortFields, field) {
			return state, apperrors.NewValidationError(fmt.Sprintf("unsupported sort field %q", field))
		}
		dir, err := ParseSortDirection(q.Get(ParamOrder))
		if err != nil {
			return state, err
		}
		state.Sort = SortState{Field: field, Direction: dir}
	}

	return state.Normalized(), nil
}

// FormatDate renders an optional date as yyyy-mm-dd, or "" when nil
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// FormatNumber renders an optional number in its shortest form, or "" when nil
func FormatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseDate(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid %s: %q", key, raw))
	}
	return &t, nil
}

func parseNumber(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid %s: %q", key, raw))
	}
	return &v, nil
}

func setIf(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
