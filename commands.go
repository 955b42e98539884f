// commands.go
package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type (
	// frameMsg advances a running view transition.
	frameMsg time.Time
	// refreshMsg asks for live sources to be refetched.
	refreshMsg time.Time
)

type profileUpdateMsg struct {
	profileKey int
	snap       *Snapshot
	at         time.Time
}

type profileUpdateErr struct {
	profileKey int
	err        error
}

func (e profileUpdateErr) Error() string { return e.err.Error() }

// frameCmd schedules the next animation frame.
func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// tickerCmd sends a refreshMsg after interval.
func tickerCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// fetchProfileCmd refetches and parses a live source in the background. The
// result is merged into the database on the event loop. The fetch gives up
// after timeout.
func fetchProfileCmd(src profileSource, view ViewConfig, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		// Stick to the sample type first seen, so merged snapshots agree.
		view.SampleType = src.sampleType

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		snap, err := fetchSnapshot(ctx, src.location, view)
		if err != nil {
			return profileUpdateErr{profileKey: src.profileKey, err: err}
		}
		return profileUpdateMsg{profileKey: src.profileKey, snap: snap, at: time.Now()}
	}
}
