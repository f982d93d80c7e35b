package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// Client reads market values from the ClickHouse warehouse. It satisfies
// feeds.MarketFeed.
type Client struct {
	conn driver.Conn
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Name identifies the feed in logs and snapshots
func (c *Client) Name() string { return "clickhouse" }

// FetchMarket returns the latest value per player and per pick name. The
// warehouse keeps one row per observation; argMax picks the newest.
func (c *Client) FetchMarket(ctx context.Context) (models.MarketSnapshot, error) {
	players, err := c.latestPlayerValues(ctx)
	if err != nil {
		return models.MarketSnapshot{}, err
	}
	picks, err := c.latestPickValues(ctx)
	if err != nil {
		return models.MarketSnapshot{}, err
	}
	return models.MarketSnapshot{
		Players:   players,
		Picks:     picks,
		FetchedAt: time.Now().UTC(),
		Source:    c.Name(),
	}, nil
}

func (c *Client) latestPlayerValues(ctx context.Context) ([]models.MarketValue, error) {
	query := `
		SELECT
			name,
			argMax(position, observed_at) AS position,
			argMax(team, observed_at)     AS team,
			argMax(age, observed_at)      AS age,
			argMax(value, observed_at)    AS value,
			argMax(trend, observed_at)    AS trend
		FROM dynasty_market_values
		WHERE observed_at >= now() - INTERVAL 7 DAY
		GROUP BY name
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query market values: %w", err)
	}
	defer rows.Close()

	var out []models.MarketValue
	for rows.Next() {
		var (
			mv    models.MarketValue
			age   float64
			value int32
			trend int32
		)
		if err := rows.Scan(&mv.Name, &mv.Position, &mv.Team, &age, &value, &trend); err != nil {
			return nil, fmt.Errorf("scan market value: %w", err)
		}
		mv.Age = age
		mv.Value = int(value)
		mv.Trend = int(trend)
		out = append(out, mv)
	}
	return out, rows.Err()
}

func (c *Client) latestPickValues(ctx context.Context) ([]models.PickMarketValue, error) {
	query := `
		SELECT pick_name, argMax(value, observed_at) AS value
		FROM dynasty_pick_values
		WHERE observed_at >= now() - INTERVAL 7 DAY
		GROUP BY pick_name
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pick values: %w", err)
	}
	defer rows.Close()

	var out []models.PickMarketValue
	for rows.Next() {
		var (
			name  string
			value int32
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan pick value: %w", err)
		}
		out = append(out, models.PickMarketValue{PickName: name, Value: int(value)})
	}
	return out, rows.Err()
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
