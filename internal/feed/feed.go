// Package feed fetches dice session results from the upstream draw feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Quang17112009/apiluck/pkg/models"
)

// DefaultTimeout bounds a single feed request when the config does not.
const DefaultTimeout = 10 * time.Second

// ErrUnhealthy is returned when the feed's envelope reports a non-ok
// state. The payload is not parsed in that case.
var ErrUnhealthy = errors.New("feed reported unhealthy state")

// Config holds the feed client settings.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client polls the upstream feed over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a feed client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// envelope is the top-level feed response. State is optional; feeds
// that carry it use 1 for healthy.
type envelope struct {
	State *int     `json:"state"`
	List  []Record `json:"list"`
}

// Record is one raw draw result as reported by the feed. Fields stay
// unparsed so that a single malformed record cannot fail the batch.
type Record struct {
	Expect       string          `json:"expect"`
	OpenCode     string          `json:"openCode"`
	KaiJiangTime json.RawMessage `json:"kaiJiangTime"`
}

// Fetch retrieves the current batch of draw records. Network errors,
// non-OK statuses, undecodable bodies, and an unhealthy envelope state
// all fail the whole fetch; per-record problems do not.
func (c *Client) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	if env.State != nil && *env.State != 1 {
		return nil, fmt.Errorf("%w: state=%d", ErrUnhealthy, *env.State)
	}
	return env.List, nil
}

// Session converts a raw record into a domain session. A missing or
// malformed field returns an error; callers skip such records and move
// on to the next one.
func (r Record) Session() (*models.Session, error) {
	if r.Expect == "" {
		return nil, errors.New("missing expect")
	}
	if r.OpenCode == "" {
		return nil, errors.New("missing openCode")
	}
	if len(r.KaiJiangTime) == 0 {
		return nil, errors.New("missing kaiJiangTime")
	}

	dice, err := parseOpenCode(r.OpenCode)
	if err != nil {
		return nil, fmt.Errorf("parse openCode %q: %w", r.OpenCode, err)
	}

	openedAt, err := parseEpochMillis(r.KaiJiangTime)
	if err != nil {
		return nil, fmt.Errorf("parse kaiJiangTime %s: %w", r.KaiJiangTime, err)
	}

	// Feeds issue numeric draw identifiers; non-numeric ones keep a
	// zero sequence number and rely on opened_at for ordering.
	seq, _ := strconv.ParseInt(r.Expect, 10, 64)

	return models.NewSession(r.Expect, seq, openedAt, dice), nil
}

// parseOpenCode splits a comma-delimited dice string and requires
// exactly three die values in [1,6].
func parseOpenCode(code string) ([3]int, error) {
	parts := strings.Split(code, ",")
	if len(parts) != 3 {
		return [3]int{}, fmt.Errorf("want 3 dice, got %d", len(parts))
	}
	var dice [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return [3]int{}, fmt.Errorf("die %d: %w", i+1, err)
		}
		if v < 1 || v > 6 {
			return [3]int{}, fmt.Errorf("die %d out of range: %d", i+1, v)
		}
		dice[i] = v
	}
	return dice, nil
}

// parseEpochMillis reads a millisecond Unix timestamp that the feed
// reports either as a JSON number or as a numeric string.
func parseEpochMillis(raw json.RawMessage) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
