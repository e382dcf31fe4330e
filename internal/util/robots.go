package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"

	"github.com/ppiankov/aontas/internal/cache"
)

const (
	robotsTTL      = 6 * time.Hour
	robotsMaxBytes = 512 << 10
)

// RobotsChecker checks robots.txt compliance. Parsed files are not cached;
// the raw status and body are, so the cache stays a plain byte store.
type RobotsChecker struct {
	cache      cache.Cache
	httpClient *http.Client
	userAgent  string
	agent      string // product token matched against robots groups
}

// NewRobotsChecker creates a new robots.txt checker. Timeouts come from the
// context passed to CanFetch.
func NewRobotsChecker(userAgent string, httpClient *http.Client, store cache.Cache) *RobotsChecker {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if store == nil {
		store = cache.NewMemoryCache(robotsTTL, time.Hour)
	}
	return &RobotsChecker{
		cache:      store,
		httpClient: httpClient,
		userAgent:  userAgent,
		agent:      NormalizeUserAgent(userAgent),
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt
// Returns (allowed, crawlDelay, error)
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, eris.Wrap(err, "parse URL")
	}

	data, err := r.getRobotsData(ctx, parsed)
	if err != nil {
		// An unreachable robots.txt allows by default
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	allowed := data.TestAgent(path, r.agent)

	crawlDelay := time.Duration(0)
	if group := data.FindGroup(r.agent); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return allowed, crawlDelay, nil
}

// IsAllowed is a convenience method that returns only the allowed status
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	allowed, _, _ := r.CanFetch(ctx, rawURL)
	return allowed
}

func (r *RobotsChecker) getRobotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	key := cache.CacheKey("robots", target.Scheme+"://"+target.Host)
	if raw, ok := r.cache.Get(key); ok {
		if status, body, ok := decodeEntry(raw); ok {
			return robotstxt.FromStatusAndBytes(status, body)
		}
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch robots.txt")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read robots.txt")
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, eris.Wrap(err, "parse robots.txt")
	}

	_ = r.cache.Set(key, encodeEntry(resp.StatusCode, body), robotsTTL)
	return data, nil
}

// encodeEntry stores the status on the first line and the body after it
func encodeEntry(status int, body []byte) []byte {
	return append([]byte(strconv.Itoa(status)+"\n"), body...)
}

func decodeEntry(raw []byte) (int, []byte, bool) {
	head, body, found := strings.Cut(string(raw), "\n")
	if !found {
		return 0, nil, false
	}
	status, err := strconv.Atoi(head)
	if err != nil {
		return 0, nil, false
	}
	return status, []byte(body), true
}

// NormalizeUserAgent normalizes the user agent string for robots.txt matching
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
