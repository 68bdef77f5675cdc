// Package remote implements the "remote page source" collaborator spec.md
// §6 treats as external: fetch_page(address) -> (page | error), bounded by
// a timeout, whose result must satisfy generator.ValidatePage. The HTTP
// shape — a client with a bounded transport, a robots.txt guard, and a
// context-scoped timeout — is adapted from the teacher's
// spider/internal/fetcher/fetcher.go; the HTML-extraction fallback is
// adapted from spider/internal/parser/parser.go's use of goquery.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/temoto/robotstxt"

	"github.com/deidaraiorek/babelsearch/internal/babel/clock"
	"github.com/deidaraiorek/babelsearch/internal/babel/generator"
)

// DefaultTimeout mirrors spec.md §6's default remote fetch timeout.
const DefaultTimeout = 5 * time.Second

// maxBodyBytes bounds how much of a remote response body is read, the way
// the teacher's scheduler.crawlURL rejects oversized downloads before
// parsing them.
const maxBodyBytes = 2 * 1024 * 1024

// robotsTTL bounds how long a fetched robots.txt is trusted before it's
// re-fetched. A crawl-lifetime cache is wrong here: an operator can tighten
// or loosen a host's crawl rules at any time, and a long-lived fetcher
// process (babelsearchd) must eventually notice.
const robotsTTL = 30 * time.Minute

// robotsHostLimit bounds how many distinct hosts' robots.txt rules are held
// at once, evicting the least-recently-consulted host first.
const robotsHostLimit = 256

// robotsEntry pairs a parsed robots.txt with the time it was fetched, so
// the cache can tell a stale entry from a fresh one instead of trusting it
// for the life of the process.
type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// PageSource is the abstract collaborator the pipeline calls in remote and
// hybrid mode.
type PageSource interface {
	FetchPage(ctx context.Context, address string) (string, error)
}

// HTTPPageSource fetches a page by resolving address against a configured
// base URL, honoring robots.txt for that host and folding whatever text it
// gets back into a valid Babel page.
type HTTPPageSource struct {
	client    *http.Client
	baseURL   string
	userAgent string
	clock     clock.Clock

	robots *lru.Cache[string, robotsEntry]
}

// NewHTTPPageSource builds a PageSource that resolves addresses under
// baseURL (e.g. "https://corpus.example.internal/pages/"). timeout <= 0
// falls back to DefaultTimeout.
func NewHTTPPageSource(baseURL, userAgent string, timeout time.Duration) *HTTPPageSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = "BabelSearchBot/1.0"
	}
	robots, err := lru.New[string, robotsEntry](robotsHostLimit)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// robotsHostLimit never is.
		panic(fmt.Sprintf("remote: build robots cache: %v", err))
	}
	return &HTTPPageSource{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		clock:     clock.Real{},
		robots:    robots,
	}
}

// FetchPage retrieves the remote content for address and canonicalizes it
// into a valid 3200-symbol page. It returns an error (wrapped, never a
// sentinel — the pipeline classifies and swallows it) on any fetch,
// robots-disallow, or non-200 failure.
func (s *HTTPPageSource) FetchPage(ctx context.Context, address string) (string, error) {
	target := s.baseURL + "/" + url.PathEscape(address)

	if !s.isAllowed(ctx, target) {
		return "", fmt.Errorf("remote: disallowed by robots.txt: %s", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/plain,text/html;q=0.9,*/*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote: fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote: %s returned status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("remote: read body: %w", err)
	}

	text := body2text(resp.Header.Get("Content-Type"), body)
	page := Canonicalize(text)

	if ok, reason := generator.ValidatePage(page); !ok {
		return "", fmt.Errorf("remote: canonicalized page invalid: %s", reason)
	}
	return page, nil
}

func body2text(contentType string, body []byte) string {
	if strings.Contains(strings.ToLower(contentType), "html") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
		if err == nil {
			return doc.Find("body").Text()
		}
	}
	return string(body)
}

// isAllowed reports whether target may be fetched under the robots.txt rule
// set for its host. Rules are cached per host, bounded to robotsHostLimit
// hosts and refreshed once older than robotsTTL, so a long-lived process
// like babelsearchd eventually picks up a host tightening or loosening its
// crawl policy instead of trusting the first answer forever.
func (s *HTTPPageSource) isAllowed(ctx context.Context, target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	host := u.Scheme + "://" + u.Host

	if entry, ok := s.robots.Get(host); ok && s.clock.Now().Sub(entry.fetchedAt) < robotsTTL {
		if entry.data == nil {
			return true
		}
		return entry.data.FindGroup(s.userAgent).Test(u.Path)
	}

	data := s.fetchRobots(ctx, host+"/robots.txt")
	s.robots.Add(host, robotsEntry{data: data, fetchedAt: s.clock.Now()})
	if data == nil {
		return true
	}
	return data.FindGroup(s.userAgent).Test(u.Path)
}

func (s *HTTPPageSource) fetchRobots(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots
}

// Canonicalize folds arbitrary text into a valid Babel page: lowercase,
// map any character outside generator.Alphabet to a space, then pad with
// spaces or truncate to exactly generator.PageLength runes.
func Canonicalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(generator.PageLength)

	allowed := make(map[rune]struct{}, len(generator.Alphabet))
	for _, c := range generator.Alphabet {
		allowed[rune(c)] = struct{}{}
	}

	count := 0
	for _, r := range lower {
		if count >= generator.PageLength {
			break
		}
		if _, ok := allowed[r]; ok {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
		count++
	}
	out := b.String()
	if len(out) < generator.PageLength {
		out += strings.Repeat(" ", generator.PageLength-len(out))
	}
	return out
}

// StaticPageSource is a fixed address->page map, useful for tests and for
// wiring a hybrid deployment against a pre-fetched snapshot instead of a
// live HTTP endpoint.
type StaticPageSource struct {
	Pages map[string]string
}

func (s StaticPageSource) FetchPage(_ context.Context, address string) (string, error) {
	page, ok := s.Pages[address]
	if !ok {
		return "", fmt.Errorf("remote: no static page for address %q", address)
	}
	return page, nil
}
