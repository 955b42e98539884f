// model.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// nodeItem implements list.Item for one node of the active profile.
type nodeItem struct {
	node  *ProfileNode
	depth int
	unit  string
	title string
}

func (i nodeItem) Title() string { return i.title }

func (i nodeItem) Description() string {
	s, _ := i.node.Latest()
	return fmt.Sprintf("incl %s · excl %s",
		formatValue(int64(s.CumulativeInclusive), i.unit),
		formatValue(int64(s.CumulativeExclusive), i.unit))
}

func (i nodeItem) FilterValue() string { return i.node.Name() }

type keyMap struct {
	Select      key.Binding
	Parent      key.Binding
	Root        key.Binding
	NextProfile key.Binding
	Source      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "focus node")),
	Parent:      key.NewBinding(key.WithKeys("u", "backspace"), key.WithHelp("u", "focus parent")),
	Root:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "focus root")),
	NextProfile: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next profile")),
	Source:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "source")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "explain")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type model struct {
	db      *Database
	sources []profileSource
	view    *PartitionView
	cfg     Config
	logger  *log.Logger

	list   list.Model
	source viewport.Model
	styles Styles

	// Live sources with a fetch in flight, by profile key.
	inflight map[int]bool

	profileIdx int
	showSource bool
	showHelp   bool
	ready      bool

	width, height int
	// Size of the icicle pane in cells.
	paneWidth, paneHeight int
	canvas                string
	lastFrame             time.Time
	status                string
}

func newModel(db *Database, sources []profileSource, cfg Config, logger *log.Logger) model {
	styles := defaultStyles()

	view := NewPartitionView(logger, cfg.Animation.Duration.Duration)
	view.SetDatabase(db)

	m := model{
		db:      db,
		sources: sources,
		view:    view,
		cfg:     cfg,
		logger:  logger,
		list:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		source:  viewport.New(0, 0),
		styles:  styles,

		inflight: make(map[int]bool),
	}
	m.list.Title = "Call Tree"

	if len(sources) > 0 {
		m.view.SetActiveNode(sources[0].profileKey, 0)
		m.list.SetItems(m.nodeItems(m.activeProfile()))
	}
	return m
}

func (m model) Init() tea.Cmd {
	for _, src := range m.sources {
		if src.live {
			return tickerCmd(m.cfg.Live.RefreshInterval.Duration)
		}
	}
	return nil
}

// fetchDone clears a finished fetch and re-arms the refresh ticker once no
// fetch is left in flight.
func (m *model) fetchDone(profileKey int) tea.Cmd {
	delete(m.inflight, profileKey)
	if len(m.inflight) > 0 {
		return nil
	}
	return tickerCmd(m.cfg.Live.RefreshInterval.Duration)
}

func (m model) activeProfile() *Profile {
	return m.db.Profile(m.view.ActiveKey().ProfileKey)
}

func (m model) activeNode() *ProfileNode {
	return m.activeProfile().Node(m.view.ActiveKey().NodeKey)
}

// nodeItems lists a profile depth first, indented by depth.
func (m model) nodeItems(p *Profile) []list.Item {
	var items []list.Item
	p.Walk(func(n *ProfileNode, depth int) {
		title := strings.Repeat("  ", depth) + n.Name()
		if n.IsProjectCode() {
			title = m.styles.ProjectCode.Render(title)
		}
		items = append(items, nodeItem{node: n, depth: depth, unit: p.Unit(), title: title})
	})
	return items
}

// focus makes nodeKey of the current profile the active node and starts the
// frame loop if a transition began.
func (m *model) focus(profileKey, nodeKey int) tea.Cmd {
	wasAnimating := m.view.Animating()
	m.view.SetActiveNode(profileKey, nodeKey)
	m.updateSourceView()

	for i, it := range m.list.VisibleItems() {
		if ni, ok := it.(nodeItem); ok && ni.node.NodeKey() == nodeKey {
			m.list.Select(i)
			break
		}
	}

	if m.view.Animating() && !wasAnimating {
		m.lastFrame = time.Now()
		return frameCmd(m.cfg.Animation.FrameInterval.Duration)
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		if !m.ready {
			m.ready = true
			m.updateSourceView()
		}

	case frameMsg:
		now := time.Time(msg)
		dt := now.Sub(m.lastFrame)
		m.lastFrame = now
		if m.view.Advance(dt) {
			cmds = append(cmds, frameCmd(m.cfg.Animation.FrameInterval.Duration))
		}

	case refreshMsg:
		// The ticker is re-armed once every fetch has come back.
		started := false
		for _, src := range m.sources {
			if src.live && !m.inflight[src.profileKey] {
				m.inflight[src.profileKey] = true
				started = true
				timeout := fetchTimeout(src.location, m.cfg.Live.RefreshInterval.Duration)
				cmds = append(cmds, fetchProfileCmd(src, m.cfg.View, timeout))
			}
		}
		if !started {
			return m, nil
		}

	case profileUpdateMsg:
		before := m.db.Profile(msg.profileKey).NodeCount()
		cmds = append(cmds, m.fetchDone(msg.profileKey))
		if err := m.db.MergeSnapshot(msg.profileKey, msg.snap, msg.at); err != nil {
			m.logger.Warn("dropping snapshot", "profile", msg.profileKey, "err", err)
			m.status = err.Error()
			break
		}
		m.status = fmt.Sprintf("updated %s", msg.at.Format("15:04:05"))
		m.logger.Debug("snapshot applied", "profile", msg.profileKey, "new_nodes", m.db.Profile(msg.profileKey).NodeCount()-before)
		if msg.profileKey == m.view.ActiveKey().ProfileKey {
			// Totals changed even when no node was added.
			cmds = append(cmds, m.list.SetItems(m.nodeItems(m.activeProfile())))
		}

	case profileUpdateErr:
		cmds = append(cmds, m.fetchDone(msg.profileKey))
		m.logger.Warn("profile refresh failed", "profile", msg.profileKey, "err", msg.err)
		m.status = msg.Error()

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Select):
			if it, ok := m.list.SelectedItem().(nodeItem); ok {
				cmds = append(cmds, m.focus(m.view.ActiveKey().ProfileKey, it.node.NodeKey()))
			}
			m.repaint()
			return m, tea.Batch(cmds...)
		case key.Matches(msg, keys.Parent):
			if parent := m.activeNode().ParentKey(); parent >= 0 {
				cmds = append(cmds, m.focus(m.view.ActiveKey().ProfileKey, parent))
			}
			m.repaint()
			return m, tea.Batch(cmds...)
		case key.Matches(msg, keys.Root):
			cmds = append(cmds, m.focus(m.view.ActiveKey().ProfileKey, 0))
			m.repaint()
			return m, tea.Batch(cmds...)
		case key.Matches(msg, keys.NextProfile):
			if len(m.sources) > 1 {
				m.profileIdx = (m.profileIdx + 1) % len(m.sources)
				profileKey := m.sources[m.profileIdx].profileKey
				cmds = append(cmds, m.list.SetItems(m.nodeItems(m.db.Profile(profileKey))))
				cmds = append(cmds, m.focus(profileKey, 0))
			}
			m.repaint()
			return m, tea.Batch(cmds...)
		case key.Matches(msg, keys.Source):
			m.showSource = !m.showSource
			m.resize()
			return m, nil
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}
	}

	beforeIndex := m.list.Index()

	var listCmd, sourceCmd tea.Cmd
	m.list, listCmd = m.list.Update(msg)
	m.source, sourceCmd = m.source.Update(msg)
	cmds = append(cmds, listCmd, sourceCmd)

	if beforeIndex != m.list.Index() {
		m.updateSourceView()
	}

	m.repaint()
	return m, tea.Batch(cmds...)
}

// resize splits the screen: 35% for the call tree, the rest for the icicle
// and, when shown, the source pane below it.
func (m *model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h, v := m.styles.Base.GetFrameSize()
	contentHeight := m.height - v - 1 // status bar

	listWidth := int(float64(m.width-h)*0.35) - 2
	rightWidth := m.width - h - listWidth - 4

	m.list.SetSize(listWidth, contentHeight-2)
	m.styles.List = m.styles.List.Width(listWidth).Height(contentHeight - 2)

	paneHeight := contentHeight - 2
	if m.showSource {
		paneHeight = contentHeight*2/3 - 2
		sourceHeight := contentHeight - paneHeight - 4
		m.source.Width = rightWidth
		m.source.Height = sourceHeight
		m.styles.Source = m.styles.Source.Width(rightWidth).Height(sourceHeight)
	}
	m.paneWidth = max(rightWidth, 0)
	m.paneHeight = max(paneHeight, 0)
	m.styles.View = m.styles.View.Width(m.paneWidth).Height(m.paneHeight)

	m.canvas = ""
	m.repaint()
}

// repaint redraws the icicle pane if the view changed or the pane was
// resized.
func (m *model) repaint() {
	if m.paneWidth == 0 || m.paneHeight == 0 {
		return
	}
	if m.canvas != "" && !m.view.NeedsRedraw() {
		return
	}
	frame := m.view.Paint(m.paneWidth, m.paneHeight*2)
	m.canvas = renderTerminal(frame)
}

func (m *model) updateSourceView() {
	it, ok := m.list.SelectedItem().(nodeItem)
	if !ok {
		return
	}

	m.source.SetContent(getHighlightedSource(it.node))

	halfViewportHeight := m.source.Height / 2
	newYOffset := it.node.Line() - halfViewportHeight
	if newYOffset < 0 {
		newYOffset = 0
	}
	m.source.SetYOffset(newYOffset)
}

func (m model) sampleType() string {
	if m.profileIdx < len(m.sources) {
		return m.sources[m.profileIdx].sampleType
	}
	return ""
}

func (m model) statusLine() string {
	p := m.activeProfile()
	node := m.activeNode()
	s, _ := node.Latest()

	var crumbs []string
	for _, n := range p.PathTo(node.NodeKey()) {
		crumbs = append(crumbs, n.Name())
	}

	parts := []string{
		strings.Join(crumbs, " › "),
		fmt.Sprintf("incl %s excl %s",
			formatValue(int64(s.CumulativeInclusive), p.Unit()),
			formatValue(int64(s.CumulativeExclusive), p.Unit())),
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, "enter focus · u parent · r root · tab profile · s source · ? explain · q quit")
	return strings.Join(parts, " | ")
}

func (m model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	right := m.styles.View.Render(m.canvas)
	if m.showHelp {
		ex := getExplanationForView(m.sampleType())
		help := m.styles.Help.Width(max(m.paneWidth-4, 0)).Render(m.styles.Active.Render(ex.Title) + "\n\n" + ex.Description)
		right = m.styles.View.Render(help)
	}
	if m.showSource {
		right = lipgloss.JoinVertical(lipgloss.Left, right, m.styles.Source.Render(m.source.View()))
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.List.Render(m.list.View()),
		right,
	)

	status := m.styles.Status.Width(max(m.width-2, 0)).MaxHeight(1).Render(m.statusLine())
	return m.styles.Base.Render(lipgloss.JoinVertical(lipgloss.Left, panes, status))
}
