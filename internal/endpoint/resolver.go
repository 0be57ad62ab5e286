// Package endpoint builds the ordered candidate URL prefixes for the graph
// backends. It performs no I/O: the same configuration always yields the
// same candidates.
package endpoint

import (
	"net/url"
	"strings"

	"github.com/ppiankov/trustbrowser/internal/model"
)

// Backend identifies a logical graph API
type Backend int

const (
	Legacy  Backend = iota // SPARQL-style graph API (v6)
	Current                // Newer graph-query API (v7)
)

func (b Backend) String() string {
	switch b {
	case Legacy:
		return "legacy"
	case Current:
		return "current"
	default:
		return "unknown"
	}
}

// Candidate is one resolved (base, version path) pair
type Candidate struct {
	Base        string // Host URL without trailing slash, or the proxy origin
	Port        string // Empty when the URL carries no explicit port
	VersionPath string // e.g. /api/v1; empty for the current backend
	Proxy       bool   // Routed through the local proxy
}

// Prefix returns the URL prefix requests are built from
func (c Candidate) Prefix() string {
	if c.Port == "" {
		return c.Base + c.VersionPath
	}
	return c.Base + ":" + c.Port + c.VersionPath
}

// URL joins the prefix with an endpoint path such as /search
func (c Candidate) URL(path string) string {
	return c.Prefix() + path
}

const tunnelDomain = "trycloudflare.com"

// Resolver derives candidate sets from configuration
type Resolver struct {
	graph   model.GraphConfig
	current model.CurrentConfig
	proxy   model.ProxyConfig
}

// NewResolver creates a resolver over a snapshot of the configuration
func NewResolver(cfg *model.Config) *Resolver {
	graph := cfg.Graph
	graph.FallbackHosts = append([]string(nil), cfg.Graph.FallbackHosts...)
	graph.APIVersions = append([]string(nil), cfg.Graph.APIVersions...)
	return &Resolver{
		graph:   graph,
		current: cfg.Current,
		proxy:   cfg.Proxy,
	}
}

// Candidates returns the ordered candidates for a backend
func (r *Resolver) Candidates(b Backend) []Candidate {
	switch b {
	case Legacy:
		return r.legacy()
	case Current:
		return r.currentCandidates()
	default:
		return nil
	}
}

func (r *Resolver) legacy() []Candidate {
	type host struct {
		base  string
		proxy bool
	}

	var hosts []host
	if primary := r.primaryHost(); primary != "" {
		hosts = append(hosts, host{base: primary})
	}
	if r.proxy.Enabled {
		hosts = append(hosts, host{base: trimSlash(r.proxy.BaseURL) + r.proxy.LegacyPrefix, proxy: true})
	}
	for _, f := range r.graph.FallbackHosts {
		if f = trimSlash(f); f != "" {
			hosts = append(hosts, host{base: f})
		}
	}

	port := r.Port()
	candidates := make([]Candidate, 0, len(hosts)*len(r.graph.APIVersions))
	for _, h := range hosts {
		for _, v := range r.graph.APIVersions {
			c := Candidate{Base: h.base, VersionPath: v, Proxy: h.proxy}
			if !h.proxy && !hasPort(h.base) {
				c.Port = port
			}
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func (r *Resolver) currentCandidates() []Candidate {
	primary := trimSlash(r.current.PrimaryHost)
	public := trimSlash(r.current.PublicHost)

	if r.proxy.Enabled {
		origin := trimSlash(r.proxy.BaseURL)
		return []Candidate{
			{Base: origin + r.proxy.CurrentPrimaryPath, Proxy: true},
			{Base: origin + r.proxy.CurrentPublicPath, Proxy: true},
		}
	}
	var candidates []Candidate
	for _, base := range []string{primary, public} {
		if base != "" {
			candidates = append(candidates, Candidate{Base: base})
		}
	}
	return candidates
}

// primaryHost is the configured primary, or the override when unset
func (r *Resolver) primaryHost() string {
	if p := trimSlash(r.graph.PrimaryHost); p != "" {
		return p
	}
	return trimSlash(r.graph.OverrideHost)
}

// Port returns the legacy port: configured value, else 443 when the
// configured primary is a tunnel host and 8900 otherwise. The override host
// does not influence the default.
func (r *Resolver) Port() string {
	if r.graph.Port != "" {
		return r.graph.Port
	}
	if strings.Contains(r.graph.PrimaryHost, tunnelDomain) {
		return "443"
	}
	return "8900"
}

// LegacyExplorerBase is the configured explorer, the primary host, or the
// first fallback host. Empty when none are configured.
func (r *Resolver) LegacyExplorerBase() string {
	if r.graph.ExplorerBase != "" {
		return trimSlash(r.graph.ExplorerBase)
	}
	if p := trimSlash(r.graph.PrimaryHost); p != "" {
		return p
	}
	if len(r.graph.FallbackHosts) > 0 {
		return trimSlash(r.graph.FallbackHosts[0])
	}
	return ""
}

// CurrentExplorerBase is the configured explorer or the public host
func (r *Resolver) CurrentExplorerBase() string {
	if r.current.ExplorerBase != "" {
		return trimSlash(r.current.ExplorerBase)
	}
	return trimSlash(r.current.PublicHost)
}

// hasPort reports whether a host URL already names a port
func hasPort(base string) bool {
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	return u.Port() != ""
}

func trimSlash(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}
