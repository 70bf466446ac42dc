package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://stats.nba.com/stats"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s: %s", e.Code, e.URL, e.Body)
}

func (e *StatusError) StatusCode() int { return e.Code }

// HTTPTransport fetches artifacts from the stats web service.
// It does no retrying or pacing; wrap it in a client.Client for that.
type HTTPTransport struct {
	baseURL string
	http    *http.Client
}

// NewHTTPTransport builds a transport against baseURL (DefaultBaseURL when empty).
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch implements Transport.
func (t *HTTPTransport) Fetch(ctx context.Context, req Request) ([]byte, error) {
	endpoint, params, err := t.route(req)
	if err != nil {
		return nil, err
	}
	target := fmt.Sprintf("%s/%s?%s", t.baseURL, endpoint, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	setBrowserHeaders(httpReq)

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: target, Body: truncate(string(body), 200)}
	}

	// An HTML page in place of JSON means we were bounced to an error page.
	if len(body) > 0 && body[0] == '<' {
		return nil, &StatusError{Code: http.StatusServiceUnavailable, URL: target, Body: truncate(string(body), 200)}
	}

	return body, nil
}

func (t *HTTPTransport) route(req Request) (string, url.Values, error) {
	params := url.Values{}
	switch req.Kind {
	case KindScoreboard:
		params.Set("GameDate", req.Date.String())
		params.Set("LeagueID", "00")
		params.Set("DayOffset", "0")
		return "scoreboardv2", params, nil
	case KindBoxscore:
		params.Set("GameID", req.ID)
		for _, p := range []string{"StartPeriod", "EndPeriod", "StartRange", "EndRange", "RangeType"} {
			params.Set(p, "0")
		}
		return "boxscoreadvancedv3", params, nil
	case KindPlayByPlay:
		params.Set("GameID", req.ID)
		params.Set("StartPeriod", "0")
		params.Set("EndPeriod", "0")
		return "playbyplayv3", params, nil
	case KindShotChart:
		params.Set("GameID", req.ID)
		params.Set("TeamID", "0")
		params.Set("PlayerID", "0")
		params.Set("ContextMeasure", "FGA")
		params.Set("LeagueID", "00")
		params.Set("SeasonType", "Regular Season")
		for _, p := range []string{"LastNGames", "Month", "OpponentTeamID", "Period"} {
			params.Set(p, "0")
		}
		return "shotchartdetail", params, nil
	case KindTeamHistory:
		params.Set("PlayerOrTeam", "T")
		params.Set("TeamID", req.ID)
		params.Set("LeagueID", "00")
		return "leaguegamefinder", params, nil
	case KindPlayerList:
		params.Set("LeagueID", "00")
		params.Set("IsOnlyCurrentSeason", "0")
		return "commonallplayers", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported request kind %q", req.Kind)
	}
}

func setBrowserHeaders(r *http.Request) {
	r.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	r.Header.Set("Accept", "application/json, text/plain, */*")
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	r.Header.Set("Referer", "https://www.nba.com/")
	r.Header.Set("Origin", "https://www.nba.com")
	r.Header.Set("x-nba-stats-origin", "stats")
	r.Header.Set("x-nba-stats-token", "true")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
