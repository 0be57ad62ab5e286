package navigate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/trustbrowser/internal/model"
)

const samplePage = `<!doctype html>
<html><head>
<title>  Penicillin
  history </title>
<meta name="description" content="How penicillin was found">
<script>var hidden = "never shown";</script>
<style>body { color: red }</style>
</head><body>
<h1>Discovery</h1>
<p>Alexander Fleming noticed mould in 1928.</p>
<a href="/about">About us</a>
<a href="https://www.nobelprize.org/prizes/medicine/1945/">Nobel <b>1945</b></a>
<a href="https://www.nobelprize.org/prizes/medicine/1945/#top">dupe</a>
<a href="#section">anchor</a>
<a href="mailto:someone@example.com">mail</a>
<a href="javascript:void(0)">js</a>
</body></html>`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(samplePage), "https://example.com/history/penicillin")
	require.NoError(t, err)

	assert.Equal(t, "Penicillin history", doc.Title)
	assert.Equal(t, "How penicillin was found", doc.Description)
	assert.Contains(t, doc.Text, "Alexander Fleming noticed mould in 1928.")
	assert.NotContains(t, doc.Text, "never shown")
	assert.NotContains(t, doc.Text, "color: red")

	require.Len(t, doc.Links, 2)
	assert.Equal(t, Link{URL: "https://example.com/about", Host: "example.com", Text: "About us", External: false}, doc.Links[0])
	assert.Equal(t, "https://www.nobelprize.org/prizes/medicine/1945/", doc.Links[1].URL)
	assert.Equal(t, "Nobel 1945", doc.Links[1].Text)
	assert.True(t, doc.Links[1].External)
}

func httpConfig() model.HTTPConfig {
	cfg := model.DefaultConfig().HTTP
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestNavigator_Open(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = fmt.Fprint(w, samplePage)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	nav := NewNavigator(httpConfig(), nil)

	page, err := nav.Open(context.Background(), server.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "Penicillin history", page.Title)
	assert.Equal(t, server.URL+"/page", page.FinalURL)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "127.0.0.1", page.Host)
	assert.True(t, strings.HasPrefix(page.Favicon, "https://www.google.com/s2/favicons?domain="))

	_, err = nav.Open(context.Background(), server.URL+"/private/doc")
	assert.ErrorIs(t, err, ErrDisallowed)
}

func TestNavigator_OpenIgnoresRobotsWhenDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "plain body")
	}))
	defer server.Close()

	cfg := httpConfig()
	cfg.RespectRobots = false

	page, err := NewNavigator(cfg, nil).Open(context.Background(), server.URL+"/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain body", page.Text)
	assert.Equal(t, "127.0.0.1", page.Title, "non-HTML pages are titled by host")
}

func TestNavigator_OpenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewNavigator(httpConfig(), nil).Open(context.Background(), server.URL+"/missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}
