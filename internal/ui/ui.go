package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lestrrat-go/strftime"

	"monthify/internal/models"
	"monthify/internal/services"
	"monthify/internal/tasks"
)

// Model is the single-view TUI: the playlist listing with month buckets
// marked, plus a status line for pass outcomes.
type Model struct {
	ctx    context.Context
	svc    services.Service
	engine tasks.SyncEngine

	keys    keyMap
	list    list.Model
	buckets map[string]struct{}

	status  string
	failed  bool
	loading bool
	syncing bool
	ready   bool
}

// NewModel builds the TUI model.
//
// nameFormat is the bucket naming pattern; playlists whose names match
// a recent month are highlighted in the listing.
func NewModel(ctx context.Context, svc services.Service, engine tasks.SyncEngine, nameFormat string) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Playlists"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return Model{
		ctx:     ctx,
		svc:     svc,
		engine:  engine,
		keys:    newKeyMap(),
		list:    l,
		buckets: recentBucketNames(nameFormat, time.Now().UTC()),
		loading: true,
		status:  "Loading playlists...",
	}
}

// recentBucketNames formats the last 24 months through the naming
// pattern so the listing can mark which playlists are buckets.
func recentBucketNames(nameFormat string, now time.Time) map[string]struct{} {
	names := make(map[string]struct{})
	pattern, err := strftime.New(nameFormat)
	if err != nil {
		return names
	}
	month := tasks.MonthStart(now)
	for i := 0; i < 24; i++ {
		names[pattern.FormatString(month)] = struct{}{}
		month = month.AddDate(0, -1, 0)
	}
	return names
}

func (m Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

func (m Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.svc.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m Model) runSync() tea.Cmd {
	return func() tea.Msg {
		report, err := m.engine.Synchronize(m.ctx, nil)
		return syncDoneMsg(report, err)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-2, msg.Height-6)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			if !m.loading && !m.syncing {
				m.loading = true
				m.status = "Refreshing playlists..."
				m.failed = false
				return m, m.fetchPlaylists()
			}
		case key.Matches(msg, m.keys.sync):
			if !m.loading && !m.syncing {
				m.syncing = true
				m.status = "Running sync pass..."
				m.failed = false
				return m, m.runSync()
			}
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		m.loading = false
		data := msg.data.(struct {
			playlists []models.Playlist
			err       error
		})
		if data.err != nil {
			m.failed = true
			m.status = fmt.Sprintf("Failed to load playlists: %v", data.err)
			return m, nil
		}
		items := make([]list.Item, 0, len(data.playlists))
		for _, playlist := range data.playlists {
			_, isBucket := m.buckets[playlist.Name]
			items = append(items, playlistItem{playlist: playlist, isBucket: isBucket})
		}
		m.status = fmt.Sprintf("%d playlists", len(items))
		return m, m.list.SetItems(items)

	case MsgSyncDone:
		m.syncing = false
		data := msg.data.(struct {
			report *tasks.SyncReport
			err    error
		})
		if data.err != nil {
			m.failed = true
			m.status = fmt.Sprintf("Sync failed: %v", data.err)
			return m, nil
		}
		if data.report.NothingToDo() {
			m.status = "No new tracks"
			return m, nil
		}
		m.status = fmt.Sprintf("Synced %d track(s) into %s (%d already present, %d failed)",
			data.report.Added, data.report.Bucket, data.report.AlreadyPresent, data.report.Failed)
		// The bucket set may have grown; reload the listing.
		m.loading = true
		return m, m.fetchPlaylists()
	}

	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	statusStyle := styles.ok
	if m.failed {
		statusStyle = styles.err
	} else if m.loading || m.syncing {
		statusStyle = styles.warn
	}

	return fmt.Sprintf("%s\n%s\n%s",
		m.list.View(),
		statusStyle.Render(m.status),
		styles.help.Render("s sync • r refresh • q quit"),
	)
}
