package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pitchside/streaming/internal/domain"
)

// TokenSource supplies the bearer token attached to every feed request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// HTTPClient is the production feed client. Endpoints embed the outlet key
// in the path, following the provider's URL scheme.
type HTTPClient struct {
	baseURL   string
	outletKey string
	tokens    TokenSource
	client    *http.Client
}

// NewHTTPClient builds a feed client with a 30 second request timeout.
func NewHTTPClient(baseURL, outletKey string, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		outletKey: outletKey,
		tokens:    tokens,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) MatchEvents(ctx context.Context, matchID string) (domain.FeedSnapshot, error) {
	endpoint := fmt.Sprintf("%s/matchevent/%s?fx=%s&_fmt=json&_rt=b",
		c.baseURL, c.outletKey, url.QueryEscape(matchID))

	var snapshot domain.FeedSnapshot
	if err := c.getJSON(ctx, endpoint, &snapshot); err != nil {
		return domain.FeedSnapshot{}, fmt.Errorf("fetch match events for %s: %w", matchID, err)
	}
	return snapshot, nil
}

func (c *HTTPClient) TournamentSchedule(ctx context.Context, tournamentID string) (Schedule, error) {
	endpoint := fmt.Sprintf("%s/tournamentschedule/%s?tmcl=%s&_fmt=json&_rt=b",
		c.baseURL, c.outletKey, url.QueryEscape(tournamentID))

	var schedule Schedule
	if err := c.getJSON(ctx, endpoint, &schedule); err != nil {
		return Schedule{}, fmt.Errorf("fetch tournament schedule for %s: %w", tournamentID, err)
	}
	return schedule, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire feed token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode feed response: %w", err)
	}
	return nil
}
