// Package console is the terminal screen for the audit history list.
package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/query/controller"
	"github.com/zatekoja/adminconsole/internal/query/pagination"
)

// StatusFacet is the facet the f key cycles through
const StatusFacet = "status"

const skeletonRows = 5

// ListController is the part of controller.ListController the screen drives
type ListController interface {
	Start(ctx context.Context)
	Subscribe() <-chan controller.ViewModel[entities.AuditEntry]
	SetSearchInput(value string)
	ApplySearch() error
	UpdatePage(n int)
	UpdateFacet(key string, value entities.FacetValue)
	ToggleSort(ctx context.Context)
	ClearAll()
	Retry()
	Revalidate()
}

// Model is the root Bubble Tea model. It never reads list state directly;
// every render uses the last snapshot received from the subscription.
type Model struct {
	ctx     context.Context
	list    ListController
	updates <-chan controller.ViewModel[entities.AuditEntry]
	refresh time.Duration

	vm     controller.ViewModel[entities.AuditEntry]
	search textinput.Model
	title  string
	width  int
	height int
	ready  bool
	closed bool
}

// NewModel subscribes to list and returns the screen for it. Every refresh
// interval the current page is revalidated if stale; zero disables it.
func NewModel(ctx context.Context, title string, list ListController, refresh time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "buscar..."
	ti.Prompt = "/ "
	ti.CharLimit = 120

	return Model{
		ctx:     ctx,
		list:    list,
		updates: list.Subscribe(),
		refresh: refresh,
		search:  ti,
		title:   title,
	}
}

// Init starts the controller and begins listening for snapshots
func (m Model) Init() tea.Cmd {
	list, ctx := m.list, m.ctx
	return tea.Batch(
		func() tea.Msg {
			list.Start(ctx)
			return nil
		},
		waitForViewModel(m.updates),
		tickRefresh(m.refresh),
	)
}

// Update handles messages and returns the updated model and any commands
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(10, msg.Width-4)
		m.ready = true
		return m, nil

	case ViewModelUpdated:
		m.vm = msg.ViewModel
		return m, waitForViewModel(m.updates)

	case SubscriptionClosed:
		m.closed = true
		return m, nil

	case RefreshTick:
		if m.closed {
			return m, nil
		}
		m.list.Revalidate()
		return m, tickRefresh(m.refresh)

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "enter":
		// a rejected search is reported through the next snapshot
		_ = m.list.ApplySearch()
		m.search.Blur()
		return m, nil

	case "esc":
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.list.SetSearchInput(m.search.Value())
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		return m, m.search.Focus()

	case "left", "h":
		if m.vm.Window.HasPrev() {
			m.list.UpdatePage(m.vm.Window.Current - 1)
		}
		return m, nil

	case "right", "l":
		if m.vm.Window.HasNext() {
			m.list.UpdatePage(m.vm.Window.Current + 1)
		}
		return m, nil

	case "s":
		list, ctx := m.list, m.ctx
		return m, func() tea.Msg {
			list.ToggleSort(ctx)
			return nil
		}

	case "f":
		m.list.UpdateFacet(StatusFacet, nextStatus(m.vm.Filter.Facet(StatusFacet)))
		return m, nil

	case "c":
		m.search.SetValue("")
		m.list.ClearAll()
		return m, nil

	case "r":
		if m.vm.CanRetry {
			m.list.Retry()
		}
		return m, nil
	}

	return m, nil
}

// nextStatus returns the status after current, wrapping to no filter after the last one
func nextStatus(current entities.FacetValue) entities.FacetValue {
	if current.IsEmpty() {
		return entities.Scalar(entities.AuditStatuses[0])
	}
	for i, s := range entities.AuditStatuses {
		if s == current.Value() && i+1 < len(entities.AuditStatuses) {
			return entities.Scalar(entities.AuditStatuses[i+1])
		}
	}
	return entities.NoFacet()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(SearchStyle.Width(m.width).Render(m.search.View()))
	b.WriteString("\n")
	if m.vm.SearchError != "" {
		b.WriteString(ErrorStyle.Render(m.vm.SearchError))
		b.WriteString("\n")
	}
	if m.vm.ErrorText != "" {
		b.WriteString(m.renderError())
		b.WriteString("\n")
	}
	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(renderWindow(m.vm.Window))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	parts := []string{TitleStyle.Render(m.title)}
	if f := m.vm.Filter.Facet(StatusFacet); !f.IsEmpty() {
		parts = append(parts, FacetStyle.Render("status: "+f.Value()))
	}
	if m.vm.Filter.Search != "" {
		parts = append(parts, FacetStyle.Render("busca: "+m.vm.Filter.Search))
	}
	parts = append(parts, FacetStyle.Render("ordem: "+string(m.vm.Sort.Direction.OrDefault())))
	if m.vm.ShowRefetchIndicator {
		parts = append(parts, RefetchStyle.Render("atualizando..."))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderError() string {
	text := m.vm.ErrorText
	if m.vm.CanRetry {
		text += fmt.Sprintf(" [r] %s", m.vm.RetryLabel)
	}
	return ErrorStyle.Width(m.width).Render(text)
}

func (m Model) renderTable() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(formatRow("DATA", "USUÁRIO", "AÇÃO", "ENTIDADE", "STATUS", "VALOR")))

	if m.vm.ShowSkeleton {
		for i := 0; i < skeletonRows; i++ {
			b.WriteString("\n")
			b.WriteString(SkeletonStyle.Render(formatRow("░░░░░░░░░░", "░░░░░░░░", "░░░░░░", "░░░░░░░░", "░░░░░", "░░░░░")))
		}
		return b.String()
	}

	if m.vm.HasData && len(m.vm.Items) == 0 {
		b.WriteString("\n")
		b.WriteString(SkeletonStyle.Render("Nenhum registro encontrado"))
		return b.String()
	}

	for _, e := range m.vm.Items {
		b.WriteString("\n")
		b.WriteString(RowStyle.Render(formatRow(
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Actor,
			e.Action,
			e.Entity,
			e.Status,
			strconv.FormatFloat(e.Value, 'f', 2, 64),
		)))
	}
	return b.String()
}

func formatRow(cols ...string) string {
	widths := []int{16, 14, 12, 14, 10, 10}
	var b strings.Builder
	for i, c := range cols {
		b.WriteString(fit(c, widths[i]))
		if i < len(cols)-1 {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

// renderWindow draws the page controls, e.g. "‹ 1 … 4 [5] 6 … 20 ›"
func renderWindow(w pagination.Window) string {
	parts := make([]string, 0, len(w.Pages)+6)
	if w.HasPrev() {
		parts = append(parts, PageStyle.Render("‹"))
	}
	if w.ShowFirst {
		parts = append(parts, PageStyle.Render("1"))
	}
	if w.LeadingEllipsis {
		parts = append(parts, PageStyle.Render("…"))
	}
	for _, p := range w.Pages {
		if p == w.Current {
			parts = append(parts, CurrentPageStyle.Render("["+strconv.Itoa(p)+"]"))
		} else {
			parts = append(parts, PageStyle.Render(strconv.Itoa(p)))
		}
	}
	if w.TrailingEllipsis {
		parts = append(parts, PageStyle.Render("…"))
	}
	if w.ShowLast {
		parts = append(parts, PageStyle.Render(strconv.Itoa(w.TotalPages)))
	}
	if w.HasNext() {
		parts = append(parts, PageStyle.Render("›"))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatusBar() string {
	hints := []struct{ key, text string }{
		{"/", "buscar"},
		{"←/→", "página"},
		{"s", "ordem"},
		{"f", "status"},
		{"c", "limpar"},
		{"q", "sair"},
	}
	parts := make([]string, 0, len(hints)+1)
	for _, h := range hints {
		parts = append(parts, StatusBarKey.Render(h.key)+" "+StatusBarText.Render(h.text))
	}
	if m.vm.HasData {
		parts = append(parts, StatusBarText.Render(fmt.Sprintf("%d registros", m.vm.Pagination.Total)))
	}
	return StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// ViewModel returns the last snapshot received (for testing)
func (m Model) ViewModel() controller.ViewModel[entities.AuditEntry] {
	return m.vm
}

// SearchFocused reports whether the search bar has focus (for testing)
func (m Model) SearchFocused() bool {
	return m.search.Focused()
}
