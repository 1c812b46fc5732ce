// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view discovery workflow:
//  1. [QueryView] : Enter a natural-language playlist request
//  2. [ProgressView] : Watch the pipeline phases with live progress updates
//  3. [ResultListView] : Browse the ranked playlists
//  4. [DetailView] : Read one playlist's match analysis
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Progress events flow from the discovery engine's hub through a
// subscription channel, one message per event, so a slow terminal never blocks
// the pipeline.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cratedig/internal/discovery"
	"github.com/desertthunder/cratedig/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueryView ViewState = iota
	ProgressView
	ResultListView
	DetailView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	engine     *discovery.Engine
	hub        *discovery.Hub
	userID     string
	width      int
	height     int
	input      textinput.Model
	spin       spinner.Model
	progress   discovery.ProgressEvent
	events     <-chan discovery.ProgressEvent
	unsub      func()
	resultChan chan discoveryDoneMsg
	result     *models.FinalResult
	resultList list.Model
	selected   *models.RankedPlaylist
	err        error
	help       help.Model
	keys       keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new search"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.restart, k.quit},
	}
}

// playlistItem wraps [models.RankedPlaylist] to implement list.Item.
type playlistItem struct {
	playlist models.RankedPlaylist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	return fmt.Sprintf("%.2f  %s", i.playlist.MatchScore, i.playlist.Name)
}
func (i playlistItem) Description() string {
	return fmt.Sprintf("%s match • %d tracks • by %s", i.playlist.AlignmentLevel, i.playlist.TrackCount, i.playlist.Owner)
}

type discoveryDoneMsg struct {
	result *models.FinalResult
	err    error
}

type progressMsg discovery.ProgressEvent

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *discovery.Engine, hub *discovery.Hub, userID string) *Model {
	input := textinput.New()
	input.Placeholder = "e.g. chill lofi beats for studying"
	input.Focus()
	input.CharLimit = 200
	input.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:    ctx,
		view:   QueryView,
		engine: engine,
		hub:    hub,
		userID: userID,
		input:  input,
		spin:   spin,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init starts the text input cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() != 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueryView:
			return m.handleQueryKeys(msg)
		case ProgressView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultListView:
			return m.handleResultListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progressMsg:
		m.progress = discovery.ProgressEvent(msg)
		return m, m.waitForProgress()

	case discoveryDoneMsg:
		if m.unsub != nil {
			m.unsub()
			m.unsub = nil
		}
		m.result = msg.result
		m.err = msg.err
		if msg.err != nil {
			m.view = QueryView
			return m, nil
		}
		items := make([]list.Item, len(msg.result.Playlists))
		for i, pl := range msg.result.Playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("Playlists for %q", msg.result.Query)
		m.resultList.SetSize(m.width-4, m.height-8)
		m.view = ResultListView
		return m, nil
	}

	if m.view == ResultListView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case QueryView:
		return m.renderQuery()
	case ProgressView:
		return m.renderProgress()
	case ResultListView:
		return m.renderResultList()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.err = nil
		m.view = ProgressView
		m.progress = discovery.ProgressEvent{}
		return m, tea.Batch(m.spin.Tick, m.startDiscovery(query), m.waitForProgress())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = QueryView
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "enter":
		if selected := m.resultList.SelectedItem(); selected != nil {
			if item, ok := selected.(playlistItem); ok {
				m.selected = &item.playlist
				m.view = DetailView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultListView
		m.selected = nil
		return m, nil
	}
	return m, nil
}

// startDiscovery subscribes to progress events and runs the pipeline in the
// background, delivering the outcome as a [discoveryDoneMsg].
func (m *Model) startDiscovery(query string) tea.Cmd {
	m.events, m.unsub = m.hub.Subscribe(m.userID)
	m.resultChan = make(chan discoveryDoneMsg, 1)

	go func() {
		result, err := m.engine.Discover(m.ctx, m.userID, models.DiscoveryQuery{Text: query})
		m.resultChan <- discoveryDoneMsg{result: result, err: err}
	}()

	return nil
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case done := <-m.resultChan:
			return done
		case event, ok := <-m.events:
			if !ok {
				return discoveryDoneMsg{result: m.result, err: m.err}
			}
			return progressMsg(event)
		}
	}
}

func (m *Model) renderQuery() string {
	title := styles.title.Render("What are you in the mood for?")

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v\n", m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, m.input.View(), errLine, helpView)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Digging through the crates")

	step := m.progress.Step
	if step == "" {
		step = "Starting..."
	}

	var counter string
	if m.progress.TotalItems > 0 {
		counter = fmt.Sprintf(" (%d/%d)", m.progress.ItemNumber, m.progress.TotalItems)
	}

	return fmt.Sprintf("%s\n%s %s%s\n\n%s",
		title, m.spin.View(), step, counter,
		styles.help.Render(fmt.Sprintf("%.0f%% • %s", m.progress.Progress, m.progress.Phase)))
}

func (m *Model) renderResultList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.restart, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderDetail() string {
	pl := m.selected
	if pl == nil {
		return styles.err.Render("Nothing selected\n\nPress esc to go back")
	}

	title := styles.title.Render(pl.Name)
	meta := fmt.Sprintf("by %s • %d tracks • %d followers", pl.Owner, pl.TrackCount, pl.Followers)
	score := styles.success.Render(fmt.Sprintf("Match: %.2f (%s)", pl.MatchScore, pl.AlignmentLevel))

	var traits []string
	if pl.Characteristics.PrimaryGenre != "" {
		traits = append(traits, "Genre: "+pl.Characteristics.PrimaryGenre)
	}
	if pl.Characteristics.Mood != "" {
		traits = append(traits, "Mood: "+pl.Characteristics.Mood)
	}
	if pl.Characteristics.Tempo != "" {
		traits = append(traits, "Tempo: "+pl.Characteristics.Tempo)
	}

	var artists string
	if len(pl.UniqueArtists) > 0 {
		artists = "\nArtists: " + strings.Join(pl.UniqueArtists, ", ")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s%s\n\n%s",
		title, meta, score, pl.SummaryText, strings.Join(traits, "\n"), artists, helpView)
}
