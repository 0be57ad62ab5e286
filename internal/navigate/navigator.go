// Package navigate opens network addresses typed into the address bar: it
// normalizes the input, honors robots.txt and extracts page metadata.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/trustbrowser/internal/classify"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids the fetch
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Page is a navigated address with its extracted content
type Page struct {
	classify.Target
	FinalURL    string `json:"final_url"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Text        string `json:"-"`
	Links       []Link `json:"links,omitempty"`
}

// Navigator fetches and parses pages
type Navigator struct {
	fetcher *Fetcher
	robots  *util.RobotsChecker // nil when robots.txt is not honored
	logger  *zap.Logger
}

// NewNavigator creates a navigator from the HTTP configuration
func NewNavigator(cfg model.HTTPConfig, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	proxy := util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	n := &Navigator{
		fetcher: NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, proxy),
		logger:  logger,
	}
	if cfg.RespectRobots {
		n.robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout, proxy)
	}
	return n
}

// Open navigates to input, which is normalized like an address-bar entry
func (n *Navigator) Open(ctx context.Context, input string) (*Page, error) {
	target := classify.Normalize(input)

	if n.robots != nil {
		allowed, err := n.robots.CanFetch(ctx, target.URL)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", target.URL, ErrDisallowed)
		}
	}

	res, err := n.fetcher.FetchWithRetry(ctx, target.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.URL, err)
	}

	page := &Page{
		Target:      target,
		FinalURL:    res.FinalURL,
		StatusCode:  res.StatusCode,
		ContentType: res.ContentType,
	}

	if !isHTML(res.ContentType) {
		page.Title = target.Host
		page.Text = string(res.Body)
		return page, nil
	}

	doc, err := ParseDocument(res.Body, res.FinalURL)
	if err != nil {
		n.logger.Debug("parse failed", zap.String("url", res.FinalURL), zap.Error(err))
		page.Title = target.Host
		return page, nil
	}
	page.Title = doc.Title
	if page.Title == "" {
		page.Title = target.Host
	}
	page.Description = doc.Description
	page.Text = doc.Text
	page.Links = doc.Links
	return page, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}
