// Package tui provides a Bubble Tea terminal user interface for modfetch.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/modfetch/internal/config"
	"github.com/handiism/modfetch/internal/download"
	"github.com/handiism/modfetch/internal/http"
	"github.com/handiism/modfetch/internal/model"
	"github.com/handiism/modfetch/internal/modlist"
	"github.com/handiism/modfetch/internal/registry"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#95E1A3")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// maxLogLines is how many outcome lines stay on screen.
const maxLogLines = 10

// errCancelled is shown when the user aborts a batch.
var errCancelled = errors.New("cancelled by user")

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	modlist  textinput.Model
	output   textinput.Model
	spinner  spinner.Model
	overall  progress.Model
	item     progress.Model
	settings *config.Settings
	send     func(tea.Msg)
	logs     []model.Outcome
	err      error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	summary *download.Summary

	// Download progress
	completed      int
	total          int
	itemName       string
	itemDownloaded int64
	itemTotal      int64

	width  int
	height int
}

// NewModel creates a new TUI model.
//
// send delivers download events to the running program; Run wires it to
// tea.Program.Send.
func NewModel(settings *config.Settings, send func(tea.Msg)) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ml := textinput.New()
	ml.Placeholder = "modlist.json"
	ml.Prompt = "Modlist: "
	ml.CharLimit = 500
	ml.Width = 60
	ml.Focus()

	out := textinput.New()
	out.Placeholder = settings.OutputDir
	out.Prompt = "Output:  "
	out.CharLimit = 500
	out.Width = 60
	out.SetValue(settings.OutputDir)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))

	overall := progress.New(progress.WithDefaultGradient())
	overall.Width = 50
	item := progress.New(progress.WithSolidFill("#4ECDC4"))
	item.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateInput,
		modlist:  ml,
		output:   out,
		spinner:  sp,
		overall:  overall,
		item:     item,
		settings: settings,
		send:     send,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// OutcomeMsg carries one package outcome.
	OutcomeMsg struct {
		Outcome model.Outcome
	}

	// ProgressMsg reports how many packages are finished.
	ProgressMsg struct {
		Completed int
		Total     int
	}

	// ItemBytesMsg reports streaming progress of one file.
	ItemBytesMsg struct {
		Name       string
		Downloaded int64
		Total      int64
	}

	// InitDoneMsg is sent when the modlist is loaded and the pre-flight
	// checks passed.
	InitDoneMsg struct {
		Manager *download.Manager
		Total   int
		Err     error
	}

	// DownloadDoneMsg is sent when the batch finished.
	DownloadDoneMsg struct {
		Summary *download.Summary
		Err     error
	}
)

// observer forwards Manager events to the program.
type observer struct {
	send func(tea.Msg)
}

func (o observer) OnOutcome(outcome model.Outcome) { o.send(OutcomeMsg{Outcome: outcome}) }
func (o observer) OnProgress(completed, total int) {
	o.send(ProgressMsg{Completed: completed, Total: total})
}
func (o observer) OnItemBytes(name string, downloaded, total int64) {
	o.send(ItemBytesMsg{Name: name, Downloaded: downloaded, Total: total})
}

// OnBatchComplete is covered by DownloadDoneMsg, which also carries the
// summary.
func (o observer) OnBatchComplete([]string) {}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		width := msg.Width - 20
		if width > 80 {
			width = 80
		}
		if width < 20 {
			width = 20
		}
		m.overall.Width = width
		m.item.Width = width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				// Workers stop between chunks; DownloadDoneMsg follows.
				m.cancel()
			}

		case "tab", "shift+tab", "up", "down":
			if m.state == StateInput {
				if m.modlist.Focused() {
					m.modlist.Blur()
					m.output.Focus()
				} else {
					m.output.Blur()
					m.modlist.Focus()
				}
				return m, textinput.Blink
			}

		case "enter":
			if m.state == StateInput {
				if m.modlist.Value() == "" {
					m.modlist.SetValue(m.modlist.Placeholder)
				}
				m.state = StateInitializing
				return m, tea.Batch(m.initializeDownload(), m.spinner.Tick)
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new batch
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.summary = nil
				m.manager = nil
				m.completed, m.total = 0, 0
				m.itemName, m.itemDownloaded, m.itemTotal = "", 0, 0
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.modlist.Focus()
				m.output.Blur()
				return m, tea.Batch(textinput.Blink, m.overall.SetPercent(0))
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case OutcomeMsg:
		m.logs = append(m.logs, msg.Outcome)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}

	case ProgressMsg:
		m.completed, m.total = msg.Completed, msg.Total
		var percent float64
		if msg.Total > 0 {
			percent = float64(msg.Completed) / float64(msg.Total)
		}
		cmds = append(cmds, m.overall.SetPercent(percent))

	case ItemBytesMsg:
		m.itemName, m.itemDownloaded, m.itemTotal = msg.Name, msg.Downloaded, msg.Total

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.manager = msg.Manager
			m.total = msg.Total
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload())
		}

	case DownloadDoneMsg:
		m.summary = msg.Summary
		switch {
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		default:
			m.state = StateComplete
		}

	case progress.FrameMsg:
		progressModel, cmd := m.overall.Update(msg)
		m.overall = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text inputs
	if m.state == StateInput {
		var cmd tea.Cmd
		m.modlist, cmd = m.modlist.Update(msg)
		cmds = append(cmds, cmd)
		m.output, cmd = m.output.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("📦 modfetch"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Resolve and download a modlist"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Choose a modlist and an output folder:"))
	b.WriteString("\n\n")
	b.WriteString(m.modlist.View())
	b.WriteString("\n")
	b.WriteString(m.output.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"Loader: %s | Concurrency: %d", m.settings.LoaderTag, m.settings.Concurrency)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Reading modlist..."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Packages: %d/%d", m.completed, m.total)))
	b.WriteString("\n")
	b.WriteString(m.overall.View())
	b.WriteString("\n\n")

	// Current item, 0% while the size is unknown
	var percent float64
	if m.itemTotal > 0 {
		percent = float64(m.itemDownloaded) / float64(m.itemTotal)
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s %s", m.itemName, model.FormatBytes(m.itemDownloaded))))
	b.WriteString("\n")
	b.WriteString(m.item.ViewAs(percent))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	b.WriteString(m.renderLogs())
	b.WriteString("\n")

	s := m.summary
	if s == nil {
		s = &download.Summary{}
	}
	style := successStyle
	if len(s.Failed) > 0 {
		style = warningStyle
	}
	box := boxStyle.Render(fmt.Sprintf(
		"✨ Batch Complete!\n\n"+
			"Downloaded: %d\n"+
			"Skipped:    %d\n"+
			"Not found:  %d\n"+
			"Failed:     %d\n\n"+
			"%s",
		s.Count(model.OutcomeDownloaded),
		s.Count(model.OutcomeSkipped),
		s.Count(model.OutcomeNotFound),
		s.Count(model.OutcomeFailed),
		style.Render(s.String()),
	))
	b.WriteString(box)

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n")
	}
	if m.summary != nil {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.summary.String()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, o := range m.logs {
		var style lipgloss.Style
		var prefix string
		switch o.Kind {
		case model.OutcomeDownloaded:
			style, prefix = successStyle, "⬇"
		case model.OutcomeSkipped:
			style, prefix = infoStyle, "✓"
		case model.OutcomeNotFound:
			style, prefix = warningStyle, "?"
		default:
			style, prefix = errorStyle, "✗"
		}
		b.WriteString(style.Render(prefix + " " + o.String()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: switch field • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new batch • q: quit"
	}
	return ""
}

// initializeDownload loads the modlist and runs the pre-flight checks.
func (m *Model) initializeDownload() tea.Cmd {
	settings := *m.settings
	if out := strings.TrimSpace(m.output.Value()); out != "" {
		settings.OutputDir = out
	}
	path := strings.TrimSpace(m.modlist.Value())
	ctx := m.ctx
	send := m.send

	return func() tea.Msg {
		if err := settings.Validate(); err != nil {
			return InitDoneMsg{Err: err}
		}

		requests, err := modlist.Load(path)
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		var obs download.Observer = download.NopObserver{}
		if send != nil {
			obs = observer{send: send}
		}

		client := http.NewClient(settings.HTTPOptions()...)
		manager := download.NewManager(
			registry.NewSet(client, settings.Endpoints()),
			download.NewFetcher(client),
			download.Options{
				OutputDir:   settings.OutputDir,
				Concurrency: settings.Concurrency,
				LoaderTag:   settings.LoaderTag,
			},
			obs,
		)

		if err := manager.Initialize(ctx, requests); err != nil {
			return InitDoneMsg{Err: err}
		}

		return InitDoneMsg{Manager: manager, Total: len(requests)}
	}
}

// startDownload runs the batch in the background.
func (m *Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
		}
		summary, err := manager.StartDownloads(ctx)
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
}

// programRef lets the model reach the program created around it.
type programRef struct {
	p *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r.p != nil {
		r.p.Send(msg)
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	ref := &programRef{}
	p := tea.NewProgram(NewModel(settings, ref.send), tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
