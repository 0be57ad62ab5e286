package model

import "time"

// Phase is what a tab is currently showing
type Phase string

const (
	PhaseLanding     Phase = "landing"
	PhaseLoading     Phase = "loading"
	PhaseResponse    Phase = "response"
	PhaseBrowserView Phase = "browser_view"
	PhaseLeaderboard Phase = "leaderboard"
)

// SearchState is the per-tab search/navigation state
type SearchState struct {
	Query       string            `json:"query"`
	IsSearching bool              `json:"is_searching"`
	Answer      *AnswerRecord     `json:"answer,omitempty"`
	Truth       *TruthScoreResult `json:"truth,omitempty"`
	URL         string            `json:"url,omitempty"`
	Favicon     string            `json:"favicon,omitempty"`
}

// HistoryItem is one entry in a tab's history
type HistoryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`
	Query     string    `json:"query,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Phase     Phase     `json:"phase"`
	Favicon   string    `json:"favicon,omitempty"`
}

// Tab is one browser tab
type Tab struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Phase     Phase         `json:"phase"`
	Search    SearchState   `json:"search"`
	History   []HistoryItem `json:"history"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewTabTitle is the title of a fresh tab
const NewTabTitle = "New Tab"
