package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, profiles int) (model, *Database) {
	t.Helper()
	db := NewDatabase(discardLogger())
	path := writeTestPprof(t)

	var sources []profileSource
	for i := 0; i < profiles; i++ {
		src, err := loadSource(context.Background(), db, path, ViewConfig{})
		require.NoError(t, err)
		sources = append(sources, src)
	}
	return newModel(db, sources, defaultConfig(), discardLogger()), db
}

func send(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

func TestModelStartsOnRoot(t *testing.T) {
	m, _ := newTestModel(t, 1)

	assert.Equal(t, DatabaseKey{ProfileKey: 0, NodeKey: 0}, m.view.ActiveKey())
	assert.Len(t, m.list.Items(), 3)
	assert.Equal(t, "Initializing...", m.View())
	assert.Nil(t, m.Init(), "file sources are not refreshed")
}

func TestModelResizePaintsView(t *testing.T) {
	m, _ := newTestModel(t, 1)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	require.True(t, m.ready)
	assert.Positive(t, m.paneWidth)
	assert.Positive(t, m.paneHeight)
	assert.NotEmpty(t, m.canvas)
	assert.Equal(t, m.paneHeight, len(strings.Split(m.canvas, "\n")))

	out := m.View()
	assert.Contains(t, out, "Call Tree")
	assert.Contains(t, out, "cpu.pprof")
}

func TestModelSelectAnimates(t *testing.T) {
	m, db := newTestModel(t, 1)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	p := db.Profile(0)
	assert.Equal(t, findNodeByName(p, "main.main").NodeKey(), m.view.ActiveKey().NodeKey)
	assert.True(t, m.view.Animating())
	assert.NotNil(t, cmd, "a transition schedules frames")
	assert.Contains(t, m.statusLine(), "cpu.pprof › main.main")

	before := m.canvas
	m, _ = send(t, m, frameMsg(m.lastFrame.Add(time.Second)))
	assert.False(t, m.view.Animating())
	assert.Equal(t, m.view.Animator().EndValue(), m.view.Animator().CurrentValue())
	assert.NotEqual(t, before, m.canvas)
}

func TestModelParentAndRoot(t *testing.T) {
	m, db := newTestModel(t, 1)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	p := db.Profile(0)
	work := findNodeByName(p, "main.work").NodeKey()
	mainKey := findNodeByName(p, "main.main").NodeKey()

	m.focus(0, work)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	assert.Equal(t, mainKey, m.view.ActiveKey().NodeKey)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 0, m.view.ActiveKey().NodeKey)

	// The root has no parent to move to.
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	assert.Equal(t, 0, m.view.ActiveKey().NodeKey)
}

func TestModelNextProfile(t *testing.T) {
	m, _ := newTestModel(t, 2)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, DatabaseKey{ProfileKey: 1, NodeKey: 0}, m.view.ActiveKey())
	assert.Equal(t, 1, m.profileIdx)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.view.ActiveKey().ProfileKey)
}

func TestModelToggles(t *testing.T) {
	m, _ := newTestModel(t, 1)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "CPU time")

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.True(t, m.showSource)
	assert.Less(t, m.paneHeight, 37)

	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelProfileUpdate(t *testing.T) {
	m, db := newTestModel(t, 1)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	snap := &Snapshot{Root: call("root", 0, call("main.main", 5, call("main.idle", 7)))}
	m, _ = send(t, m, profileUpdateMsg{profileKey: 0, snap: snap, at: testTime(100)})

	p := db.Profile(0)
	require.NotNil(t, findNodeByName(p, "main.idle"))
	assert.Len(t, m.list.Items(), 4)
	assert.Contains(t, m.status, "updated")

	m, _ = send(t, m, profileUpdateErr{profileKey: 0, err: assert.AnError})
	assert.Equal(t, assert.AnError.Error(), m.status)
}

func TestModelRefreshWaitsForFetch(t *testing.T) {
	srv := pprofServer(t)
	db := NewDatabase(discardLogger())
	src, err := loadSource(context.Background(), db, srv.URL+"/debug/pprof/profile", ViewConfig{})
	require.NoError(t, err)

	m := newModel(db, []profileSource{src}, defaultConfig(), discardLogger())
	require.NotNil(t, m.Init(), "live sources arm the refresh ticker")

	m, cmd := send(t, m, refreshMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.True(t, m.inflight[src.profileKey])

	// The ticker is not re-armed while the fetch is out, and a stray tick
	// starts no second fetch.
	m, cmd = send(t, m, refreshMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.True(t, m.inflight[src.profileKey])

	m, cmd = send(t, m, profileUpdateErr{profileKey: src.profileKey, err: assert.AnError})
	assert.Empty(t, m.inflight)
	assert.NotNil(t, cmd, "a finished fetch re-arms the ticker")

	m, cmd = send(t, m, refreshMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.True(t, m.inflight[src.profileKey])
}
