// Package graph exposes the typed operations of the two knowledge graph
// backends on top of the candidate-falling transport.
package graph

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustbrowser/internal/answer"
	"github.com/ppiankov/trustbrowser/internal/endpoint"
	"github.com/ppiankov/trustbrowser/internal/signals"
	"github.com/ppiankov/trustbrowser/internal/transport"
)

// Backend paths
const (
	SearchPath       = "/search"
	AssetsSearchPath = "/assets/search"
	GraphSearchPath  = "/graph/search"
	GraphQueryPath   = "/graph/query"
	QueryPath        = "/query"
	PublishPath      = "/publish"
	StatsPath        = "/stats"
)

// Caller is the transport surface the graph client needs
type Caller interface {
	Post(ctx context.Context, b endpoint.Backend, path string, body any) (*transport.Response, bool)
	Fetch(ctx context.Context, rawURL string) (*transport.Response, bool)
}

// SearchRequest is the body of the LEGACY search endpoints
type SearchRequest struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
}

// SPARQLRequest is the body of LEGACY /graph/query
type SPARQLRequest struct {
	Query     string `json:"query"`
	Operation string `json:"operation"`
}

// QueryRequest is the body of CURRENT /query and /search
type QueryRequest struct {
	Query string `json:"query"`
}

// LeaderboardEntry is one asset and its posting count
type LeaderboardEntry struct {
	UAL   string `json:"ual"`
	Count int    `json:"count"`
}

// Verification is the result of a URL lookup
type Verification struct {
	Verified bool   `json:"verified"`
	UAL      string `json:"ual,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Verification messages
const (
	VerifiedMessage   = "This site is verified on the knowledge graph."
	UnverifiedMessage = "No verification record found."
)

// PublishRequest carries an asset and its detached signature
type PublishRequest struct {
	Title       string
	Explanation string
	Signature   string
	PublicKey   string
}

// PublishResult identifies a published asset
type PublishResult struct {
	UAL         string `json:"ual,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// Client performs graph operations. All operations degrade to empty results
// when the backends are unreachable.
type Client struct {
	caller    Caller
	explorers answer.Explorers
	pnsAPI    string
	logger    *zap.Logger
}

// NewClient creates a graph client
func NewClient(caller Caller, explorers answer.Explorers, pnsAPI string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		caller:    caller,
		explorers: explorers,
		pnsAPI:    strings.TrimRight(pnsAPI, "/"),
		logger:    logger,
	}
}

// Search posts query to one of the LEGACY search paths and returns the raw
// body
func (c *Client) Search(ctx context.Context, path, query string) ([]byte, bool) {
	return c.body(c.caller.Post(ctx, endpoint.Legacy, path, SearchRequest{Query: query, Page: 1, Size: 10}))
}

// SPARQL runs a SELECT against LEGACY /graph/query
func (c *Client) SPARQL(ctx context.Context, sparql string) ([]byte, bool) {
	return c.body(c.caller.Post(ctx, endpoint.Legacy, GraphQueryPath, SPARQLRequest{Query: sparql, Operation: "SELECT"}))
}

// CurrentQuery posts query to CURRENT /query
func (c *Client) CurrentQuery(ctx context.Context, query string) ([]byte, bool) {
	return c.body(c.caller.Post(ctx, endpoint.Current, QueryPath, QueryRequest{Query: query}))
}

func (c *Client) body(resp *transport.Response, ok bool) ([]byte, bool) {
	if !ok || resp == nil {
		return nil, false
	}
	return resp.Body, true
}

// rows decodes a {data: [...]} SPARQL response
func rows(body []byte) []map[string]any {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 {
		return nil
	}
	var list []map[string]any
	if err := json.Unmarshal(env.Data, &list); err == nil {
		return list
	}
	var single map[string]any
	if err := json.Unmarshal(env.Data, &single); err == nil && single != nil {
		return []map[string]any{single}
	}
	return nil
}

func str(row map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := row[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// AssetInfo implements signals.AssetLookup
func (c *Client) AssetInfo(ctx context.Context, ual string) (signals.AssetInfo, bool) {
	q, ok := AssetInfoQuery(ual)
	if !ok {
		c.logger.Debug("asset id is not a valid IRI", zap.String("ual", ual))
		return signals.AssetInfo{}, false
	}
	body, ok := c.SPARQL(ctx, q)
	if !ok {
		return signals.AssetInfo{}, false
	}
	list := rows(body)
	if len(list) == 0 {
		return signals.AssetInfo{}, false
	}
	return signals.AssetInfo{
		Headline: str(list[0], "headline"),
		Modified: parseTimestamp(str(list[0], "timestamp")),
	}, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// plain strips the datatype from a typed literal such as "5"^^<xsd:integer>
func plain(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "^^"); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, `"`)
}

func parseTimestamp(s string) time.Time {
	s = plain(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Leaderboard ranks assets by their social media posting count
func (c *Client) Leaderboard(ctx context.Context) []LeaderboardEntry {
	body, ok := c.SPARQL(ctx, LeaderboardQuery)
	if !ok {
		return nil
	}
	var out []LeaderboardEntry
	for _, row := range rows(body) {
		ual := str(row, "ual", "@graph")
		if ual == "" {
			continue
		}
		count, _ := strconv.Atoi(plain(str(row, "count")))
		out = append(out, LeaderboardEntry{UAL: ual, Count: count})
	}
	return out
}

// VerifyURL looks up an asset that declares rawURL as its address
func (c *Client) VerifyURL(ctx context.Context, rawURL string) Verification {
	body, ok := c.SPARQL(ctx, VerifyURLQuery(rawURL))
	if !ok {
		return Verification{Message: UnverifiedMessage}
	}
	if list := rows(body); len(list) > 0 {
		if ual := str(list[0], "ual"); ual != "" {
			return Verification{Verified: true, UAL: ual, Message: VerifiedMessage}
		}
	}
	return Verification{Message: UnverifiedMessage}
}

// ReverseName resolves a wallet address to its registered name
func (c *Client) ReverseName(ctx context.Context, address string) (string, bool) {
	if c.pnsAPI == "" || address == "" {
		return "", false
	}
	resp, ok := c.caller.Fetch(ctx, c.pnsAPI+"/v1/reverse?address="+url.QueryEscape(address))
	if !ok {
		return "", false
	}
	var rec map[string]any
	if err := resp.Decode(&rec); err != nil {
		c.logger.Debug("reverse lookup decode failed", zap.Error(err))
		return "", false
	}
	name := str(rec, "name", "domain")
	return name, name != ""
}

// Publish submits a signed asset to CURRENT /publish
func (c *Client) Publish(ctx context.Context, req PublishRequest) PublishResult {
	body := map[string]any{
		"asset": map[string]any{
			"data": map[string]string{
				"name":        req.Title,
				"description": req.Explanation,
			},
		},
		"signature": req.Signature,
		"publicKey": req.PublicKey,
	}
	resp, ok := c.caller.Post(ctx, endpoint.Current, PublishPath, body)
	if !ok {
		return PublishResult{}
	}
	var rec map[string]any
	if err := resp.Decode(&rec); err != nil {
		return PublishResult{}
	}
	ual := str(rec, "UAL", "ual")
	if ual == "" {
		if data, ok := rec["data"].(map[string]any); ok {
			ual = str(data, "ual")
		}
	}
	if ual == "" {
		return PublishResult{}
	}
	return PublishResult{UAL: ual, ExplorerURL: answer.CurrentExplorerURL(c.explorers.Current, ual)}
}

// Stats returns the CURRENT node statistics, empty on failure
func (c *Client) Stats(ctx context.Context) map[string]any {
	resp, ok := c.caller.Post(ctx, endpoint.Current, StatsPath, struct{}{})
	if !ok {
		return map[string]any{}
	}
	stats := map[string]any{}
	if err := resp.Decode(&stats); err != nil {
		return map[string]any{}
	}
	return stats
}

// AssetsByPublisher lists the CURRENT assets published by wallet
func (c *Client) AssetsByPublisher(ctx context.Context, wallet string) []map[string]any {
	resp, ok := c.caller.Post(ctx, endpoint.Current, SearchPath, QueryRequest{Query: "publisher:" + wallet})
	if !ok {
		return nil
	}
	var env struct {
		Results []map[string]any `json:"results"`
	}
	if err := resp.Decode(&env); err != nil {
		return nil
	}
	return env.Results
}
