package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/trustbrowser/internal/answer"
	"github.com/ppiankov/trustbrowser/internal/endpoint"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/transport"
)

type call struct {
	backend endpoint.Backend
	path    string
	body    map[string]any
}

// fakeCaller answers posts from a path table
type fakeCaller struct {
	responses map[string]string
	fetched   []string
	calls     []call
}

func (f *fakeCaller) Post(ctx context.Context, b endpoint.Backend, path string, body any) (*transport.Response, bool) {
	raw, _ := json.Marshal(body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	f.calls = append(f.calls, call{backend: b, path: path, body: decoded})

	resp, ok := f.responses[b.String()+" "+path]
	if !ok {
		return nil, false
	}
	return &transport.Response{StatusCode: 200, URL: path, Body: []byte(resp)}, true
}

func (f *fakeCaller) Fetch(ctx context.Context, rawURL string) (*transport.Response, bool) {
	f.fetched = append(f.fetched, rawURL)
	resp, ok := f.responses["GET "+rawURL]
	if !ok {
		return nil, false
	}
	return &transport.Response{StatusCode: 200, URL: rawURL, Body: []byte(resp)}, true
}

var testExplorers = answer.Explorers{Current: "https://v7.example", Legacy: "https://v6.example"}

func TestClient_SearchBody(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{"legacy /assets/search": `{"data":[]}`}}
	c := NewClient(f, testExplorers, "", nil)

	body, ok := c.Search(context.Background(), AssetsSearchPath, "penicillin")
	require.True(t, ok)
	assert.JSONEq(t, `{"data":[]}`, string(body))

	require.Len(t, f.calls, 1)
	assert.Equal(t, endpoint.Legacy, f.calls[0].backend)
	assert.Equal(t, map[string]any{"query": "penicillin", "page": float64(1), "size": float64(10)}, f.calls[0].body)
}

func TestClient_SPARQLBody(t *testing.T) {
	f := &fakeCaller{}
	c := NewClient(f, testExplorers, "", nil)

	_, ok := c.SPARQL(context.Background(), "SELECT * WHERE {}")
	assert.False(t, ok)
	require.Len(t, f.calls, 1)
	assert.Equal(t, GraphQueryPath, f.calls[0].path)
	assert.Equal(t, "SELECT", f.calls[0].body["operation"])
}

func TestClient_CurrentQuery(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{"current /query": `{"results":[]}`}}
	c := NewClient(f, testExplorers, "", nil)

	_, ok := c.CurrentQuery(context.Background(), "q")
	assert.True(t, ok)
	assert.Equal(t, endpoint.Current, f.calls[0].backend)
	assert.Equal(t, map[string]any{"query": "q"}, f.calls[0].body)
}

func TestClient_AssetInfo(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{
		"legacy /graph/query": `{"data":[{"headline":"Penicillin discovery","timestamp":"2026-10-01T00:00:00Z"}]}`,
	}}
	c := NewClient(f, testExplorers, "", nil)

	info, ok := c.AssetInfo(context.Background(), "did:dkg:otp/0xabc/1")
	require.True(t, ok)
	assert.Equal(t, "Penicillin discovery", info.Headline)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), info.Modified.UTC())
	assert.Contains(t, f.calls[0].body["query"], "GRAPH <did:dkg:otp/0xabc/1>")
}

func TestClient_AssetInfoRejectsBadIRI(t *testing.T) {
	f := &fakeCaller{}
	c := NewClient(f, testExplorers, "", nil)

	_, ok := c.AssetInfo(context.Background(), "x> } DROP ALL { <y")
	assert.False(t, ok)
	assert.Empty(t, f.calls, "no query for an injected identifier")
}

func TestClient_AssetInfoMissingTimestamp(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{"legacy /graph/query": `{"data":[{"headline":"h"}]}`}}
	info, ok := NewClient(f, testExplorers, "", nil).AssetInfo(context.Background(), "did:dkg:otp/0xabc/1")
	require.True(t, ok)
	assert.True(t, info.Modified.IsZero())
}

func TestClient_Leaderboard(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{
		"legacy /graph/query": `{"data":[
			{"ual":"did:a/1","count":"12"},
			{"@graph":"did:b/2","count":3},
			{"count":9},
			{"ual":"did:c/3","count":"\"4\"^^<http://www.w3.org/2001/XMLSchema#integer>"}
		]}`,
	}}
	c := NewClient(f, testExplorers, "", nil)

	got := c.Leaderboard(context.Background())
	assert.Equal(t, []LeaderboardEntry{
		{UAL: "did:a/1", Count: 12},
		{UAL: "did:b/2", Count: 3},
		{UAL: "did:c/3", Count: 4},
	}, got)
	assert.Contains(t, f.calls[0].body["query"], "SocialMediaPosting")
}

func TestClient_LeaderboardUnavailable(t *testing.T) {
	assert.Empty(t, NewClient(&fakeCaller{}, testExplorers, "", nil).Leaderboard(context.Background()))
}

func TestClient_VerifyURL(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{"legacy /graph/query": `{"data":[{"ual":"did:site/7"}]}`}}
	c := NewClient(f, testExplorers, "", nil)

	v := c.VerifyURL(context.Background(), `https://example.com/"quoted"`)
	assert.True(t, v.Verified)
	assert.Equal(t, "did:site/7", v.UAL)
	assert.Contains(t, f.calls[0].body["query"], `schema:url "https://example.com/\"quoted\""`)

	none := NewClient(&fakeCaller{responses: map[string]string{"legacy /graph/query": `{"data":[]}`}}, testExplorers, "", nil)
	assert.Equal(t, Verification{Message: UnverifiedMessage}, none.VerifyURL(context.Background(), "https://x.y"))
}

func TestClient_ReverseName(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{
		"GET https://pns.example/v1/reverse?address=0xabc": `{"domain":"alice.pls"}`,
	}}
	c := NewClient(f, testExplorers, "https://pns.example/", nil)

	name, ok := c.ReverseName(context.Background(), "0xabc")
	assert.True(t, ok)
	assert.Equal(t, "alice.pls", name)

	_, ok = c.ReverseName(context.Background(), "0xdef")
	assert.False(t, ok)

	_, ok = NewClient(f, testExplorers, "", nil).ReverseName(context.Background(), "0xabc")
	assert.False(t, ok, "disabled without an API base")
}

func TestClient_Publish(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{"current /publish": `{"UAL":"did:dkg:v7/0x1/5"}`}}
	c := NewClient(f, testExplorers, "", nil)

	res := c.Publish(context.Background(), PublishRequest{Title: "T", Explanation: "E", Signature: "0xsig", PublicKey: "0xpub"})
	assert.Equal(t, "did:dkg:v7/0x1/5", res.UAL)
	assert.Equal(t, "https://v7.example/explore?ual=did%3Adkg%3Av7%2F0x1%2F5", res.ExplorerURL)

	body := f.calls[0].body
	assert.Equal(t, "0xsig", body["signature"])
	assert.Equal(t, map[string]any{"data": map[string]any{"name": "T", "description": "E"}}, body["asset"])

	failed := NewClient(&fakeCaller{}, testExplorers, "", nil).Publish(context.Background(), PublishRequest{})
	assert.Equal(t, PublishResult{}, failed)
}

func TestClient_StatsAndAssetsByPublisher(t *testing.T) {
	f := &fakeCaller{responses: map[string]string{
		"current /stats":  `{"assets":42}`,
		"current /search": `{"results":[{"ual":"did:1"},{"ual":"did:2"}]}`,
	}}
	c := NewClient(f, testExplorers, "", nil)

	assert.Equal(t, map[string]any{"assets": float64(42)}, c.Stats(context.Background()))
	assets := c.AssetsByPublisher(context.Background(), "0xw")
	assert.Len(t, assets, 2)
	assert.Equal(t, "publisher:0xw", f.calls[1].body["query"])

	empty := NewClient(&fakeCaller{}, testExplorers, "", nil)
	assert.Equal(t, map[string]any{}, empty.Stats(context.Background()))
	assert.Nil(t, empty.AssetsByPublisher(context.Background(), "0xw"))
}

type staticCandidates map[endpoint.Backend][]endpoint.Candidate

func (s staticCandidates) Candidates(b endpoint.Backend) []endpoint.Candidate { return s[b] }

func TestClient_OverRealTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/graph/query" {
			http.NotFound(w, r)
			return
		}
		var req SPARQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.Query, "SocialMediaPosting") {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"ual":"did:x/1","count":2}]}`))
	}))
	defer server.Close()

	cands := staticCandidates{endpoint.Legacy: {
		{Base: server.URL, VersionPath: "/api/v2"},
		{Base: server.URL, VersionPath: "/api/v1"},
	}}
	tc := transport.NewClient(model.DefaultConfig(), cands, nil)
	c := NewClient(tc, testExplorers, "", nil)

	assert.Equal(t, []LeaderboardEntry{{UAL: "did:x/1", Count: 2}}, c.Leaderboard(context.Background()))
}
