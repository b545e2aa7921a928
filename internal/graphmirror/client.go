// Package graphmirror exports a RequestGraph to Neo4j for inspection.
// It is optional, write-only, and best-effort: nothing in the tracker
// depends on it, and a mirror failure never fails a request run.
package graphmirror

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
)

// Client wraps the Neo4j driver with the connection-pool tuning and
// fail-fast connectivity check the mirror needs.
type Client struct {
	driver   neo4j.DriverWithContext
	logger   *logrus.Logger
	database string
}

// NewClient dials uri and verifies connectivity before returning, so
// callers that enable the mirror learn about a bad config immediately
// instead of on the first export.
func NewClient(ctx context.Context, uri, user, password, database string) (*Client, error) {
	if uri == "" || user == "" || password == "" {
		return nil, fmt.Errorf("graphmirror: uri, user, and password are all required")
	}
	if database == "" {
		database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(uri,
		neo4j.BasicAuth(user, password, ""),
		func(config *neo4j.Config) {
			config.MaxConnectionPoolSize = 50
			config.ConnectionAcquisitionTimeout = 60 * time.Second
			config.MaxConnectionLifetime = 3600 * time.Second
			config.SocketConnectTimeout = 5 * time.Second
			config.SocketKeepalive = true
		})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j at %s: %w", uri, err)
	}

	return &Client{driver: driver, logger: logrus.StandardLogger(), database: database}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("close neo4j driver: %w", err)
	}
	return nil
}

// HealthCheck verifies the mirror's connection is still alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graphmirror health check: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database))
	return err
}
