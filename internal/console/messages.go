package console

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/query/controller"
)

// ViewModelUpdated carries a new snapshot from the controller
type ViewModelUpdated struct {
	ViewModel controller.ViewModel[entities.AuditEntry]
}

// SubscriptionClosed is sent once the controller has been closed
type SubscriptionClosed struct{}

// RefreshTick asks the controller to revalidate the current page
type RefreshTick struct{}

func tickRefresh(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg {
		return RefreshTick{}
	})
}

// waitForViewModel blocks on the subscription until the next snapshot arrives.
// Update re-arms it after every message so exactly one read is pending.
func waitForViewModel(ch <-chan controller.ViewModel[entities.AuditEntry]) tea.Cmd {
	return func() tea.Msg {
		vm, ok := <-ch
		if !ok {
			return SubscriptionClosed{}
		}
		return ViewModelUpdated{ViewModel: vm}
	}
}
