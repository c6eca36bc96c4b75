package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/queue"
	"github.com/rockolahq/rockola/internal/tasks"
)

// ViewState represents the current view in the operator console.
type ViewState int

const (
	QueueView ViewState = iota
	ConfirmCancelView
)

// Model represents the operator console state.
type Model struct {
	ctx            context.Context
	view           ViewState
	engine         *queue.Engine
	poller         *tasks.Poller
	restaurantName string
	interval       time.Duration
	operatorKey    string

	width     int
	height    int
	queueList list.Model
	listReady bool
	toCancel  *models.Request
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// ModelOpts contains construction options for [Model].
type ModelOpts struct {
	Engine         *queue.Engine
	Poller         *tasks.Poller
	RestaurantName string
	Interval       time.Duration
	OperatorKey    string
}

// NewModel creates the operator console model.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.OperatorKey == "" {
		opts.OperatorKey = "operator"
	}

	return &Model{
		ctx:            ctx,
		view:           QueueView,
		engine:         opts.Engine,
		poller:         opts.Poller,
		restaurantName: opts.RestaurantName,
		interval:       opts.Interval,
		operatorKey:    opts.OperatorKey,
		help:           help.New(),
		keys:           newKeyMap(),
	}
}

// Init fetches the queue and starts the refresh cadence.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshQueue(), m.scheduleTick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.queueList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueueView:
			return m.handleQueueKeys(msg)
		case ConfirmCancelView:
			return m.handleConfirmKeys(msg)
		}

	case syncTickMsg:
		return m, tea.Batch(m.refreshQueue(), m.scheduleTick())

	case queueRefreshedMsg:
		if msg.err != nil {
			// Keep showing the last good queue; just surface the failure.
			m.status = styles.warn.Render(fmt.Sprintf("sync failed: %v", msg.err))
			return m, nil
		}
		m.setQueue(msg.requests)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("%s failed: %v", msg.label, msg.err))
		} else {
			m.status = styles.ok.Render(msg.label)
		}
		return m, m.refreshQueue()
	}

	return m.updateList(msg)
}

// View renders the console based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case QueueView:
		return m.renderQueue()
	case ConfirmCancelView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a", "enter":
		return m, m.advance()
	case "t":
		if req := m.selectedRequest(); req != nil {
			return m, m.moveToTop(req.ID)
		}
	case "x":
		if req := m.selectedRequest(); req != nil && req.Status == models.StatusPending {
			m.toCancel = req
			m.view = ConfirmCancelView
		}
		return m, nil
	case "r":
		m.status = ""
		return m, m.refreshQueue()
	}

	return m.updateList(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		req := m.toCancel
		m.toCancel = nil
		m.view = QueueView
		if req != nil {
			return m, m.cancel(req.ID)
		}
	case "n", "esc", "q":
		m.toCancel = nil
		m.view = QueueView
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.listReady {
		return m, nil
	}
	var cmd tea.Cmd
	m.queueList, cmd = m.queueList.Update(msg)
	return m, cmd
}

func (m *Model) selectedRequest() *models.Request {
	if !m.listReady {
		return nil
	}
	selected := m.queueList.SelectedItem()
	if selected == nil {
		return nil
	}
	if item, ok := selected.(requestItem); ok {
		req := item.request
		return &req
	}
	return nil
}

func (m *Model) setQueue(requests []models.Request) {
	items := make([]list.Item, 0, len(requests))
	for _, req := range requests {
		if req.Status.Active() {
			items = append(items, requestItem{request: req})
		}
	}

	if !m.listReady {
		m.queueList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.queueList.Title = fmt.Sprintf("Queue · %s", m.restaurantName)
		m.queueList.SetShowHelp(false)
		m.queueList.SetSize(m.width-4, m.height-8)
		m.listReady = true
		return
	}
	m.queueList.SetItems(items)
}

func (m *Model) refreshQueue() tea.Cmd {
	return func() tea.Msg {
		if err := m.poller.Tick(m.ctx); err != nil {
			return queueRefreshedMsg{err: err}
		}
		return queueRefreshedMsg{requests: m.engine.Snapshot()}
	}
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return syncTickMsg(t)
	})
}

func (m *Model) advance() tea.Cmd {
	return func() tea.Msg {
		promoted, err := m.engine.Advance(m.ctx)
		if err != nil {
			return actionDoneMsg{label: "advance", err: err}
		}
		if promoted == nil {
			return actionDoneMsg{label: "queue drained"}
		}
		return actionDoneMsg{label: fmt.Sprintf("now playing: %s", promoted.Song.Title)}
	}
}

func (m *Model) moveToTop(requestID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.MoveToTop(m.ctx, requestID); err != nil {
			return actionDoneMsg{label: "move to top", err: err}
		}
		return actionDoneMsg{label: "moved to top"}
	}
}

func (m *Model) cancel(requestID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Cancel(m.ctx, requestID, m.operatorKey); err != nil {
			return actionDoneMsg{label: "cancel", err: err}
		}
		return actionDoneMsg{label: "request cancelled"}
	}
}

func (m *Model) renderQueue() string {
	if !m.listReady {
		return styles.help.Render("Loading queue...")
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	status := m.status
	if status != "" {
		status += "\n"
	}
	return fmt.Sprintf("%s\n%s%s", m.queueList.View(), status, helpView)
}

func (m *Model) renderConfirm() string {
	if m.toCancel == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Cancel '%s - %s'?",
		m.toCancel.Song.Artist, m.toCancel.Song.Title))
	info := fmt.Sprintf("\nRequested by: %s\nPosition: %d\n",
		m.toCancel.RequesterKey, m.toCancel.QueuePosition)

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s%s\n%s", title, info, helpView)
}
