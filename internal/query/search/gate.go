// Package search separates what the operator is typing from the search that is
// actually applied to a list.
package search

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// Gate holds a pending search (every keystroke) and an applied search (explicit
// submissions only). Typing never triggers a query; the debounce only delays
// recomputing the inline validation message.
type Gate struct {
	mu         sync.Mutex
	minLength  int
	debounce   time.Duration
	pending    string
	applied    string
	message    string
	timer      *time.Timer
	onValidate func(message string)
	stopped    bool
}

// NewGate creates a gate. onValidate, when set, receives the validation message
// each time the debounce fires; it is called without the gate's lock held.
func NewGate(minLength int, debounce time.Duration, onValidate func(message string)) *Gate {
	return &Gate{
		minLength:  minLength,
		debounce:   debounce,
		onValidate: onValidate,
	}
}

// Validate checks a candidate search. Empty input is always valid.
func (g *Gate) Validate(value string) *apperrors.AppError {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if utf8.RuneCountInString(value) < g.minLength {
		return apperrors.NewSearchTooShortError(g.minLength)
	}
	return nil
}

// SetPending records the text currently typed and restarts the debounce
func (g *Gate) SetPending(value string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pending = value
	if g.stopped {
		return
	}
	if g.timer != nil {
		g.timer.Stop()
	}
	if g.debounce <= 0 {
		g.message = g.messageFor(value)
		if g.onValidate != nil {
			go g.onValidate(g.message)
		}
		return
	}

	g.timer = time.AfterFunc(g.debounce, func() {
		g.mu.Lock()
		if g.stopped || g.pending != value {
			g.mu.Unlock()
			return
		}
		g.message = g.messageFor(value)
		msg := g.message
		cb := g.onValidate
		g.mu.Unlock()

		if cb != nil {
			cb(msg)
		}
	})
}

// Apply promotes the pending value to the applied search. A value that fails
// validation is not applied and its error is returned.
func (g *Gate) Apply() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		g.timer.Stop()
	}
	if err := g.Validate(g.pending); err != nil {
		g.message = err.UserMessage()
		return g.applied, err
	}

	g.applied = strings.TrimSpace(g.pending)
	g.message = ""
	return g.applied, nil
}

// Clear empties both values and any message
func (g *Gate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		g.timer.Stop()
	}
	g.pending = ""
	g.applied = ""
	g.message = ""
}

// Stop cancels the pending debounce. The gate keeps its values.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
	}
}

// Pending returns the text currently typed
func (g *Gate) Pending() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Applied returns the search sent with requests
func (g *Gate) Applied() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applied
}

// Message returns the current inline validation message, or ""
func (g *Gate) Message() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.message
}

func (g *Gate) messageFor(value string) string {
	if err := g.Validate(value); err != nil {
		return err.UserMessage()
	}
	return ""
}
