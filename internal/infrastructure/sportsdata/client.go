package sportsdata

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/standings"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/cache"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/logging"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/resilience"
	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultBaseURL     = "https://stats.league-feed.io/v1"
	defaultTimeout     = 10 * time.Second
	defaultStandingTTL = 30 * time.Second
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errFeedTransient = crerr.New("stats feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	StandingsTTL   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads per-manager standings and live match status from the stats
// feed. Standings snapshots are cached briefly so a resolution run's retries
// do not hammer the feed; live status is always fetched fresh.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	standingsCache *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	standingsTTL := cfg.StandingsTTL
	if standingsTTL <= 0 {
		standingsTTL = defaultStandingTTL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		standingsCache: cache.NewStore(standingsTTL),
	}
}

type standingsEnvelope struct {
	Data []standingRow `json:"data"`
}

type standingRow struct {
	ManagerID     string  `json:"manager_id"`
	TablePoints   int     `json:"table_points"`
	FantasyPoints float64 `json:"fantasy_points"`
}

type liveStatusEnvelope struct {
	Data liveStatusData `json:"data"`
}

type liveStatusData struct {
	LivePlayerIDs []string `json:"live_player_ids"`
}

// ForRoom implements standings.Provider.
func (c *Client) ForRoom(ctx context.Context, roomID string) (map[string]standings.Entry, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}

	key := "standings:" + roomID
	out, err := c.standingsCache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		var envelope standingsEnvelope
		if err := c.doJSON(ctx, "/rooms/"+url.PathEscape(roomID)+"/standings", &envelope); err != nil {
			return nil, fmt.Errorf("fetch standings room_id=%s: %w", roomID, err)
		}

		entries := make(map[string]standings.Entry, len(envelope.Data))
		for _, row := range envelope.Data {
			managerID := strings.TrimSpace(row.ManagerID)
			if managerID == "" {
				continue
			}
			entries[managerID] = standings.Entry{
				ManagerID:          managerID,
				TablePoints:        row.TablePoints,
				TotalFantasyPoints: row.FantasyPoints,
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	entries, ok := out.(map[string]standings.Entry)
	if !ok {
		return nil, fmt.Errorf("unexpected standings cache payload type %T", out)
	}
	return entries, nil
}

// LiveStarters implements standings.LiveStatusProvider. No caching: a stale
// live set would let a manager swap out a player mid-match.
func (c *Client) LiveStarters(ctx context.Context, roomID string) (map[string]struct{}, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}

	var envelope liveStatusEnvelope
	if err := c.doJSON(ctx, "/rooms/"+url.PathEscape(roomID)+"/live", &envelope); err != nil {
		return nil, fmt.Errorf("fetch live status room_id=%s: %w", roomID, err)
	}

	live := make(map[string]struct{}, len(envelope.Data.LivePlayerIDs))
	for _, playerID := range envelope.Data.LivePlayerIDs {
		playerID = strings.TrimSpace(playerID)
		if playerID == "" {
			continue
		}
		live[playerID] = struct{}{}
	}
	return live, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "stats feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: stats feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.buildRequestURL(path)
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) buildRequestURL(path string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString(path)
	if c.token != "" {
		_, _ = buf.WriteString("?api_token=")
		_, _ = buf.WriteString(url.QueryEscape(c.token))
	}
	return buf.String()
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "stats feed request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errFeedTransient)
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func redactAPIURL(fullURL string) string {
	return apiTokenParamRegex.ReplaceAllString(fullURL, "api_token=REDACTED")
}

func abbreviateBody(raw []byte) string {
	const limit = 512
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
