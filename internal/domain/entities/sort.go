package entities

import (
	"fmt"
	"strings"

	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// SortDirection is the ordering of a sorted list
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// OrDefault returns d, or ascending when d is unset or unknown
func (d SortDirection) OrDefault() SortDirection {
	if d == SortDesc {
		return SortDesc
	}
	return SortAsc
}

// Valid reports whether d is one of the two known directions
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// ParseSortDirection accepts "asc" or "desc" in any case; "" is ascending
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	default:
		return SortAsc, apperrors.NewValidationError(fmt.Sprintf("invalid sort direction %q", s))
	}
}

// SortState is the sort applied to a list. Only the direction is persisted;
// the field belongs to the list definition.
type SortState struct {
	Field     string        `json:"-"`
	Direction SortDirection `json:"dir"`
}

// Toggle flips the direction
func (s SortState) Toggle() SortState {
	if s.Direction.OrDefault() == SortAsc {
		s.Direction = SortDesc
	} else {
		s.Direction = SortAsc
	}
	return s
}
