// Package loading classifies what a list screen should show while data is in flight.
package loading

import "sync"

// State is the loading state of a list
type State int

const (
	Idle State = iota
	InitialLoad
	Ready
	FilterRefetch
	BackgroundRefetch
)

func (s State) String() string {
	switch s {
	case InitialLoad:
		return "initial_load"
	case Ready:
		return "ready"
	case FilterRefetch:
		return "filter_refetch"
	case BackgroundRefetch:
		return "background_refetch"
	default:
		return "idle"
	}
}

// ShowSkeleton reports whether the table body should be replaced by a skeleton
func (s State) ShowSkeleton() bool {
	return s == InitialLoad || s == FilterRefetch
}

// ShowRefetchIndicator reports whether only a subtle progress hint should be shown
func (s State) ShowRefetchIndicator() bool {
	return s == BackgroundRefetch
}

// Busy reports whether a request is in flight
func (s State) Busy() bool {
	return s == InitialLoad || s == FilterRefetch || s == BackgroundRefetch
}

// Trigger says why a request started
type Trigger int

const (
	// TriggerUser is any operator-visible change: facet, page, search, sort, clear or retry
	TriggerUser Trigger = iota
	// TriggerBackground is a revalidation the operator did not ask for
	TriggerBackground
)

// Classify maps the data/in-flight situation and the trigger of the current
// request to a State. Intent wins over cache status: a user change is a
// FilterRefetch even when its result is already cached.
func Classify(hasData, inFlight bool, trigger Trigger) State {
	switch {
	case !inFlight && !hasData:
		return Idle
	case !inFlight:
		return Ready
	case !hasData:
		return InitialLoad
	case trigger == TriggerBackground:
		return BackgroundRefetch
	default:
		return FilterRefetch
	}
}

// Classifier tracks the state across requests
type Classifier struct {
	mu       sync.Mutex
	hasData  bool
	inFlight bool
	trigger  Trigger
}

// NewClassifier returns a classifier with no data and nothing in flight
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Begin records that a request started and returns the new state
func (c *Classifier) Begin(trigger Trigger) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	// a background refresh never downgrades a user-triggered request in flight
	if c.inFlight && c.trigger == TriggerUser && trigger == TriggerBackground {
		return Classify(c.hasData, c.inFlight, c.trigger)
	}
	c.inFlight = true
	c.trigger = trigger
	return Classify(c.hasData, c.inFlight, c.trigger)
}

// Settle records that the current request finished. hasData says whether a
// page is visible afterwards; errors keep whatever was visible.
func (c *Classifier) Settle(hasData bool) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	c.hasData = c.hasData || hasData
	return Classify(c.hasData, c.inFlight, c.trigger)
}

// State returns the current state
func (c *Classifier) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Classify(c.hasData, c.inFlight, c.trigger)
}
