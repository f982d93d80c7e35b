package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/ingest"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// maxBody bounds a single feed response
const maxBody = 16 << 20

// HTTPConfig configures the HTTP feeds. Token fields are optional; when
// TokenURL is set requests carry a client-credentials bearer token.
type HTTPConfig struct {
	Timeout      time.Duration
	TokenURL     string
	ClientID     string
	ClientSecret string

	// BreakerFailures is the consecutive failure count that opens the breaker
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open
	BreakerCooldown time.Duration
}

func (c HTTPConfig) withDefaults() HTTPConfig {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = time.Minute
	}
	return c
}

// httpFetcher performs GETs through a circuit breaker
type httpFetcher struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func newHTTPFetcher(name string, cfg HTTPConfig) *httpFetcher {
	cfg = cfg.withDefaults()
	base := &http.Client{Timeout: cfg.Timeout}

	client := base
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = cc.Client(ctx)
		client.Timeout = cfg.Timeout
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Feed circuit breaker state changed", "feed", name, "from", from.String(), "to", to.String())
		},
	})
	return &httpFetcher{client: client, breaker: breaker}
}

func (f *httpFetcher) get(ctx context.Context, url string) ([]byte, error) {
	body, err := f.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBody))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return body.([]byte), nil
}

// HTTPMarketFeed fetches a market value document over HTTP
type HTTPMarketFeed struct {
	url     string
	fetcher *httpFetcher
}

// NewHTTPMarketFeed creates a market feed for url
func NewHTTPMarketFeed(url string, cfg HTTPConfig) *HTTPMarketFeed {
	return &HTTPMarketFeed{url: url, fetcher: newHTTPFetcher("market", cfg)}
}

func (f *HTTPMarketFeed) Name() string { return "http-market" }

func (f *HTTPMarketFeed) FetchMarket(ctx context.Context) (models.MarketSnapshot, error) {
	body, err := f.fetcher.get(ctx, f.url)
	if err != nil {
		return models.MarketSnapshot{}, err
	}
	snap, _, err := ingest.ParseMarket(body)
	if err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	snap.FetchedAt = time.Now().UTC()
	snap.Source = f.Name()
	return snap, nil
}

// HTTPRosterFeed fetches the team document and the pick ledger over HTTP.
// The two requests run concurrently and both must succeed.
type HTTPRosterFeed struct {
	teamsURL string
	picksURL string
	fetcher  *httpFetcher
}

// NewHTTPRosterFeed creates a roster feed rooted at baseURL, which serves
// /teams and /picks
func NewHTTPRosterFeed(baseURL string, cfg HTTPConfig) *HTTPRosterFeed {
	return &HTTPRosterFeed{
		teamsURL: baseURL + "/teams",
		picksURL: baseURL + "/picks",
		fetcher:  newHTTPFetcher("roster", cfg),
	}
}

func (f *HTTPRosterFeed) Name() string { return "http-roster" }

func (f *HTTPRosterFeed) FetchLeague(ctx context.Context) (models.LeagueState, []ingest.Issue, error) {
	var teamsBody, picksBody []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teamsBody, err = f.fetcher.get(gctx, f.teamsURL)
		return err
	})
	g.Go(func() error {
		var err error
		picksBody, err = f.fetcher.get(gctx, f.picksURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.LeagueState{}, nil, err
	}

	teams, issues, err := ingest.ParseTeams(teamsBody)
	if err != nil {
		return models.LeagueState{}, nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	picks, pickIssues, err := ingest.ParsePicks(picksBody)
	if err != nil {
		return models.LeagueState{}, nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return models.LeagueState{Teams: teams, Picks: picks}, append(issues, pickIssues...), nil
}
