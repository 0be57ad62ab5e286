// Package session keeps headless browser tabs with their search state and
// history, persisted between invocations.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/trustbrowser/internal/cache"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
)

// ErrTabNotFound is returned for an unknown tab id
var ErrTabNotFound = errors.New("tab not found")

// ErrHistoryNotFound is returned for an unknown history item id
var ErrHistoryNotFound = errors.New("history item not found")

// LeaderboardTitle is the tab and history title of the leaderboard view
const LeaderboardTitle = "Leaderboard"

const defaultHistoryLimit = 20

// Runner resolves one address-bar submission
type Runner interface {
	Run(ctx context.Context, input string) pipeline.Result
}

type state struct {
	Tabs     []model.Tab `json:"tabs"`
	ActiveID string      `json:"active_id"`
}

// Manager owns the tab set. It is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	state  state
	runner Runner
	store  cache.Cache // nil keeps tabs in memory only
	key    string
	ttl    time.Duration
	limit  int
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// Option configures a Manager
type Option func(*Manager)

// WithStore persists tabs in store under the given profile name
func WithStore(store cache.Cache, profile string) Option {
	return func(m *Manager) {
		m.store = store
		m.key = cache.Key("session", profile)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager and restores persisted tabs. A session always
// has at least one tab.
func NewManager(runner Runner, cfg model.SessionConfig, opts ...Option) *Manager {
	m := &Manager{
		runner: runner,
		ttl:    cfg.TTL,
		limit:  cfg.HistoryLimit,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if m.limit <= 0 {
		m.limit = defaultHistoryLimit
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.store != nil {
		found, err := cache.GetJSON(m.store, m.key, &m.state)
		if err != nil {
			m.logger.Warn("discarding unreadable session", zap.Error(err))
			m.state = state{}
		} else if found {
			m.logger.Debug("session restored", zap.Int("tabs", len(m.state.Tabs)))
		}
	}

	if len(m.state.Tabs) == 0 {
		tab := m.blankTab()
		m.state = state{Tabs: []model.Tab{tab}, ActiveID: tab.ID}
	}
	if m.indexOf(m.state.ActiveID) < 0 {
		m.state.ActiveID = m.state.Tabs[0].ID
	}
	return m
}

// Tabs returns a snapshot of all tabs in display order
func (m *Manager) Tabs() []model.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	tabs := make([]model.Tab, len(m.state.Tabs))
	for i, t := range m.state.Tabs {
		tabs[i] = cloneTab(t)
	}
	return tabs
}

// Active returns the active tab
func (m *Manager) Active() model.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneTab(m.state.Tabs[m.indexOf(m.state.ActiveID)])
}

// Tab returns the tab with the given id
func (m *Manager) Tab(id string) (model.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return model.Tab{}, fmt.Errorf("%s: %w", id, ErrTabNotFound)
	}
	return cloneTab(m.state.Tabs[i]), nil
}

// NewTab opens a blank tab and activates it
func (m *Manager) NewTab() (model.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.blankTab()
	m.state.Tabs = append(m.state.Tabs, tab)
	m.state.ActiveID = tab.ID
	return cloneTab(tab), m.save()
}

// CloseTab closes a tab. Closing the only tab resets it to a blank tab.
func (m *Manager) CloseTab(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrTabNotFound)
	}

	if len(m.state.Tabs) == 1 {
		tab := m.blankTab()
		m.state = state{Tabs: []model.Tab{tab}, ActiveID: tab.ID}
		return m.save()
	}

	m.state.Tabs = append(m.state.Tabs[:i], m.state.Tabs[i+1:]...)
	if m.state.ActiveID == id {
		next := i
		if next >= len(m.state.Tabs) {
			next = len(m.state.Tabs) - 1
		}
		m.state.ActiveID = m.state.Tabs[next].ID
	}
	return m.save()
}

// Activate makes a tab the active one
func (m *Manager) Activate(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(id) < 0 {
		return fmt.Errorf("%s: %w", id, ErrTabNotFound)
	}
	m.state.ActiveID = id
	return m.save()
}

// Search submits input from a tab's address bar. Addresses switch the tab to
// the browser view; queries are resolved and scored into the response view.
// The tab shows the loading phase while the pipeline runs.
func (m *Manager) Search(ctx context.Context, tabID, input string) (model.Tab, error) {
	input = strings.TrimSpace(input)

	m.mu.Lock()
	i := m.indexOf(tabID)
	if i < 0 {
		m.mu.Unlock()
		return model.Tab{}, fmt.Errorf("%s: %w", tabID, ErrTabNotFound)
	}
	if input == "" {
		tab := cloneTab(m.state.Tabs[i])
		m.mu.Unlock()
		return tab, nil
	}
	tab := &m.state.Tabs[i]
	tab.Phase = model.PhaseLoading
	tab.Search = model.SearchState{Query: input, IsSearching: true}
	m.mu.Unlock()

	res := m.runner.Run(ctx, input)

	m.mu.Lock()
	defer m.mu.Unlock()

	i = m.indexOf(tabID)
	if i < 0 {
		return model.Tab{}, fmt.Errorf("%s closed during search: %w", tabID, ErrTabNotFound)
	}
	tab = &m.state.Tabs[i]
	now := m.now()

	if res.Target != nil {
		tab.Phase = model.PhaseBrowserView
		tab.Title = res.Target.Host
		tab.Search = model.SearchState{
			Query:   input,
			URL:     res.Target.URL,
			Favicon: res.Target.Favicon,
		}
		m.addHistory(tab, model.HistoryItem{
			Title:   res.Target.Host,
			URL:     res.Target.URL,
			Phase:   model.PhaseBrowserView,
			Favicon: res.Target.Favicon,
		})
	} else {
		tab.Phase = model.PhaseResponse
		tab.Title = input
		tab.Search = model.SearchState{
			Query:  input,
			Answer: res.Answer,
			Truth:  res.Truth,
		}
		m.addHistory(tab, model.HistoryItem{
			Title: input,
			Query: input,
			Phase: model.PhaseResponse,
		})
	}
	tab.Timestamp = now

	m.logger.Debug("tab updated",
		zap.String("tab", tabID),
		zap.String("phase", string(tab.Phase)))

	return cloneTab(*tab), m.save()
}

// ShowLeaderboard switches a tab to the leaderboard view
func (m *Manager) ShowLeaderboard(tabID string) (model.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(tabID)
	if i < 0 {
		return model.Tab{}, fmt.Errorf("%s: %w", tabID, ErrTabNotFound)
	}
	tab := &m.state.Tabs[i]
	m.showLeaderboard(tab)
	m.addHistory(tab, model.HistoryItem{Title: LeaderboardTitle, Phase: model.PhaseLeaderboard})
	return cloneTab(*tab), m.save()
}

// History returns a tab's history, newest first
func (m *Manager) History(tabID string) ([]model.HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(tabID)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", tabID, ErrTabNotFound)
	}
	return append([]model.HistoryItem(nil), m.state.Tabs[i].History...), nil
}

// SelectHistory revisits a history item: browser items restore their URL,
// response items re-run their query and leaderboard items switch the view.
func (m *Manager) SelectHistory(ctx context.Context, tabID, itemID string) (model.Tab, error) {
	m.mu.Lock()
	i := m.indexOf(tabID)
	if i < 0 {
		m.mu.Unlock()
		return model.Tab{}, fmt.Errorf("%s: %w", tabID, ErrTabNotFound)
	}
	tab := &m.state.Tabs[i]

	var item *model.HistoryItem
	for j := range tab.History {
		if tab.History[j].ID == itemID {
			item = &tab.History[j]
			break
		}
	}
	if item == nil {
		m.mu.Unlock()
		return model.Tab{}, fmt.Errorf("%s: %w", itemID, ErrHistoryNotFound)
	}

	if item.Phase == model.PhaseResponse {
		query := item.Query
		m.mu.Unlock()
		return m.Search(ctx, tabID, query)
	}
	defer m.mu.Unlock()

	if item.Phase == model.PhaseLeaderboard {
		m.showLeaderboard(tab)
	} else {
		tab.Phase = model.PhaseBrowserView
		tab.Title = item.Title
		tab.Search = model.SearchState{URL: item.URL, Favicon: item.Favicon}
		tab.Timestamp = m.now()
	}
	return cloneTab(*tab), m.save()
}

// Reset discards every tab and starts over with one blank tab
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab := m.blankTab()
	m.state = state{Tabs: []model.Tab{tab}, ActiveID: tab.ID}
	return m.save()
}

func (m *Manager) showLeaderboard(tab *model.Tab) {
	tab.Phase = model.PhaseLeaderboard
	tab.Title = LeaderboardTitle
	tab.Search = model.SearchState{}
	tab.Timestamp = m.now()
}

// addHistory prepends item, dropping an older entry for the same target, and
// caps the list
func (m *Manager) addHistory(tab *model.Tab, item model.HistoryItem) {
	item.ID = m.newID()
	item.Timestamp = m.now()

	history := make([]model.HistoryItem, 0, len(tab.History)+1)
	history = append(history, item)
	for _, h := range tab.History {
		if sameTarget(h, item) {
			continue
		}
		history = append(history, h)
	}
	if len(history) > m.limit {
		history = history[:m.limit]
	}
	tab.History = history
}

func sameTarget(a, b model.HistoryItem) bool {
	if a.Phase != b.Phase {
		return false
	}
	switch a.Phase {
	case model.PhaseResponse:
		return a.Query == b.Query
	case model.PhaseLeaderboard:
		return true
	default:
		return a.URL == b.URL
	}
}

func (m *Manager) blankTab() model.Tab {
	return model.Tab{
		ID:        m.newID(),
		Title:     model.NewTabTitle,
		Phase:     model.PhaseLanding,
		Timestamp: m.now(),
	}
}

func (m *Manager) indexOf(id string) int {
	for i, t := range m.state.Tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) save() error {
	if m.store == nil {
		return nil
	}
	if err := cache.SetJSON(m.store, m.key, m.state, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func cloneTab(t model.Tab) model.Tab {
	t.History = append([]model.HistoryItem(nil), t.History...)
	return t
}
