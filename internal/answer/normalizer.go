// Package answer turns the heterogeneous responses of the graph backends and
// the generative fallback into a single model.AnswerRecord.
package answer

import (
	"net/url"

	"github.com/ppiankov/trustbrowser/internal/model"
)

// Source identifies one response shape, listed in priority order
type Source int

const (
	CurrentQuery Source = iota // CURRENT /query  {results: [...] | item}
	Search                     // LEGACY /search {data: [...] | item}
	AssetsSearch               // LEGACY /assets/search
	GraphSearch                // LEGACY /graph/search
	GraphQuery                 // LEGACY /graph/query pattern match
	Generated                  // Generative fallback
)

// Priority is the order sources are consulted in
var Priority = []Source{CurrentQuery, Search, AssetsSearch, GraphSearch, GraphQuery, Generated}

func (s Source) String() string {
	switch s {
	case CurrentQuery:
		return "current_query"
	case Search:
		return "search"
	case AssetsSearch:
		return "assets_search"
	case GraphSearch:
		return "graph_search"
	case GraphQuery:
		return "graph_query"
	case Generated:
		return "generated"
	default:
		return "unknown"
	}
}

// GeneratedAnswer is the schema-validated output of the generative fallback
type GeneratedAnswer struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	SourceHash  string `json:"sourceHash"`
}

// Explorers holds the explorer bases of the two asset spaces
type Explorers struct {
	Current string // links render as {Current}/explore?ual=
	Legacy  string // links render as {Legacy}/graph/explorer?ual=
}

// Responses is the raw material for one normalization. A nil body means the
// source was unavailable.
type Responses struct {
	CurrentQuery []byte
	Search       []byte
	AssetsSearch []byte
	GraphSearch  []byte
	GraphQuery   []byte
	Generated    *GeneratedAnswer
}

func (r Responses) body(s Source) []byte {
	switch s {
	case CurrentQuery:
		return r.CurrentQuery
	case Search:
		return r.Search
	case AssetsSearch:
		return r.AssetsSearch
	case GraphSearch:
		return r.GraphSearch
	case GraphQuery:
		return r.GraphQuery
	default:
		return nil
	}
}

// Normalizer extracts answer records from backend bodies
type Normalizer struct {
	explorers Explorers
}

// NewNormalizer creates a normalizer with the given explorer bases
func NewNormalizer(explorers Explorers) *Normalizer {
	return &Normalizer{explorers: explorers}
}

// Normalize walks the sources in priority order and returns the record of
// the first one that yields an item. When none does, it returns the fixed
// error record.
func (n *Normalizer) Normalize(query string, r Responses) model.AnswerRecord {
	for _, s := range Priority {
		if s == Generated {
			if r.Generated == nil {
				continue
			}
			if rec, ok := FromGenerated(*r.Generated); ok {
				return rec
			}
			continue
		}
		if rec, ok := n.Extract(s, query, r.body(s)); ok {
			return rec
		}
	}
	return model.ErrorRecord()
}

// Extract applies the extractor for one backend source to body
func (n *Normalizer) Extract(s Source, query string, body []byte) (model.AnswerRecord, bool) {
	switch s {
	case CurrentQuery:
		return n.fromCurrent(query, body)
	case Search, AssetsSearch, GraphSearch:
		return n.fromLegacySearch(query, body)
	case GraphQuery:
		return n.fromGraphQuery(query, body)
	default:
		return model.AnswerRecord{}, false
	}
}

func (n *Normalizer) fromCurrent(query string, body []byte) (model.AnswerRecord, bool) {
	item, ok := firstItem(body, "results")
	if !ok {
		return model.AnswerRecord{}, false
	}
	ual := pickOr(item, "", "ual", "asset.ual")
	return model.AnswerRecord{
		Title:       pickOr(item, query, "title", "name"),
		Explanation: pickOr(item, "", "description", "text"),
		SourceHash:  pickOr(item, model.PlaceholderHash, "id"),
		SourceKind:  model.SourceGraph,
		AssetID:     ual,
		ExplorerURL: CurrentExplorerURL(n.explorers.Current, ual),
	}, true
}

func (n *Normalizer) fromLegacySearch(query string, body []byte) (model.AnswerRecord, bool) {
	item, ok := firstItem(body, "data")
	if !ok {
		return model.AnswerRecord{}, false
	}
	ual := pickOr(item, "", "ual", "asset.ual")
	return model.AnswerRecord{
		Title:       pickOr(item, query, "title", "headline", "name"),
		Explanation: pickOr(item, "", "description", "text", "articleBody"),
		SourceHash:  pickOr(item, model.PlaceholderHash, "id"),
		SourceKind:  model.SourceGraph,
		AssetID:     ual,
		ExplorerURL: LegacyExplorerURL(n.explorers.Legacy, ual),
	}, true
}

func (n *Normalizer) fromGraphQuery(query string, body []byte) (model.AnswerRecord, bool) {
	item, ok := firstItem(body, "data")
	if !ok {
		return model.AnswerRecord{}, false
	}
	ual := pickOr(item, "", "ual")
	return model.AnswerRecord{
		Title:       pickOr(item, query, "headline"),
		Explanation: pickOr(item, "", "articleBody"),
		SourceHash:  pickOr(item, model.PlaceholderHash, "id", "@id"),
		SourceKind:  model.SourceGraph,
		AssetID:     ual,
		ExplorerURL: LegacyExplorerURL(n.explorers.Legacy, ual),
	}, true
}

// FromGenerated converts a validated generative answer. It never carries an
// asset identifier.
func FromGenerated(g GeneratedAnswer) (model.AnswerRecord, bool) {
	if g.Title == "" && g.Explanation == "" {
		return model.AnswerRecord{}, false
	}
	return model.AnswerRecord{
		Title:       g.Title,
		Explanation: g.Explanation,
		SourceHash:  g.SourceHash,
		SourceKind:  model.SourceGenerated,
	}, true
}

// CurrentExplorerURL links an asset of the CURRENT backend's asset space
func CurrentExplorerURL(base, ual string) string {
	if base == "" || ual == "" {
		return ""
	}
	return base + "/explore?ual=" + url.QueryEscape(ual)
}

// LegacyExplorerURL links an asset of the LEGACY backend's asset space
func LegacyExplorerURL(base, ual string) string {
	if base == "" || ual == "" {
		return ""
	}
	return base + "/graph/explorer?ual=" + url.QueryEscape(ual)
}
