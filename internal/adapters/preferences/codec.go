// Package preferences implements providers.SortStore over memory, SQLite and Redis.
package preferences

import (
	"encoding/json"
	"fmt"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// encodeSort renders the persisted form {"dir":"asc"|"desc"}
func encodeSort(state entities.SortState) ([]byte, error) {
	if !state.Direction.Valid() {
		return nil, fmt.Errorf("invalid sort direction %q", state.Direction)
	}
	return json.Marshal(state)
}

func decodeSort(raw []byte) (*entities.SortState, error) {
	var state entities.SortState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode sort preference: %w", err)
	}
	if !state.Direction.Valid() {
		return nil, fmt.Errorf("invalid stored sort direction %q", state.Direction)
	}
	return &state, nil
}
