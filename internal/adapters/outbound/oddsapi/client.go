package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/jcalloway/tipwire/internal/model"
	"github.com/jcalloway/tipwire/internal/namekey"
	"github.com/jcalloway/tipwire/internal/odds"
	"github.com/jcalloway/tipwire/internal/telemetry"
)

const fixtureCacheTTL = 10 * time.Minute

// Client fetches pregame totals prices from the odds API and converts
// them into an expected-total-goals baseline per fixture. Fixture lists
// are cached and refreshed behind a singleflight so concurrent lookups
// cost one HTTP call.
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu        sync.RWMutex
	baselines map[string]float64 // matchup key -> pregame mu
	lastFetch time.Time

	sfGroup singleflight.Group
}

func NewClient(baseURL, apiKey, sport string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		sport:      sport,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		baselines:  make(map[string]float64),
	}
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

// PregameTotalMu returns the market's pregame expected total goals for
// the fixture, derived from the totals line and its over price.
func (c *Client) PregameTotalMu(ctx context.Context, home, away string) (float64, error) {
	if !c.Enabled() {
		return 0, fmt.Errorf("odds api disabled")
	}

	c.ensureFresh(ctx)

	key := namekey.Matchup(home, away)
	c.mu.RLock()
	mu, ok := c.baselines[key]
	c.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("no pregame totals for %q", key)
	}
	return mu, nil
}

func (c *Client) ensureFresh(ctx context.Context) {
	c.mu.RLock()
	last := c.lastFetch
	c.mu.RUnlock()

	if time.Since(last) > fixtureCacheTTL {
		c.sfGroup.Do("fixtures", func() (any, error) {
			return nil, c.refresh(ctx)
		})
	}
}

// Wire types for the odds API events endpoint.
type apiEvent struct {
	HomeTeam   string      `json:"home_team"`
	AwayTeam   string      `json:"away_team"`
	Bookmakers []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Point float64 `json:"point"`
}

func (c *Client) refresh(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := fmt.Sprintf("%s/v4/sports/%s/odds?%s", c.baseURL, url.PathEscape(c.sport), url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {"eu"},
		"markets":    {"totals"},
		"oddsFormat": {"decimal"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("odds api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("odds api: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("odds api read: %w", err)
	}

	var evs []apiEvent
	if err := json.Unmarshal(body, &evs); err != nil {
		return fmt.Errorf("odds api parse: %w", err)
	}

	fresh := make(map[string]float64, len(evs))
	for _, ev := range evs {
		if mu, ok := baselineFromEvent(ev); ok {
			fresh[namekey.Matchup(ev.HomeTeam, ev.AwayTeam)] = mu
		}
	}

	c.mu.Lock()
	c.baselines = fresh
	c.lastFetch = time.Now()
	c.mu.Unlock()

	telemetry.Infof("oddsapi: refreshed %d pregame baselines (%d fixtures)", len(fresh), len(evs))
	return nil
}

// baselineFromEvent inverts the first bookmaker's totals market into an
// expected total goals figure.
func baselineFromEvent(ev apiEvent) (float64, bool) {
	for _, bk := range ev.Bookmakers {
		for _, mkt := range bk.Markets {
			if mkt.Key != "totals" {
				continue
			}

			var line, overPrice, underPrice float64
			for _, o := range mkt.Outcomes {
				switch o.Name {
				case "Over":
					line, overPrice = o.Point, o.Price
				case "Under":
					underPrice = o.Price
				}
			}
			if overPrice <= 1.0 || line <= 0 {
				continue
			}

			pOver := odds.Implied(overPrice)
			if underPrice > 1.0 {
				pOver, _ = odds.RemoveVig2(overPrice, underPrice)
			}

			needed := model.NeededGoalsForOver(line, 0)
			mu := model.InvertTailForMu(needed, pOver)
			if mu <= 0 || math.IsNaN(mu) {
				continue
			}
			return mu, true
		}
	}
	return 0, false
}
