package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velvetrowhq/velvetrow-backend/pkg/config"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 2 * time.Second
)

// ErrNotConfigured is returned when no Mongo URI is present; the document
// backend is optional and callers fall through to another store.
var ErrNotConfigured = errors.New("mongodb is not configured")

// Client lazily maintains a single connection to the document store. Connect
// is idempotent: the first successful dial is reused afterwards.
type Client struct {
	mu       sync.Mutex
	uri      string
	database string
	client   *mongo.Client
	logg     *logger.Logger
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New builds an unconnected client. No network traffic happens until
// Connect or Ping is called.
func New(cfg config.MongoConfig, logg *logger.Logger) *Client {
	return &Client{
		uri:      cfg.URI,
		database: cfg.Database,
		logg:     logg,
	}
}

// Configured reports whether a connection URI is present.
func (c *Client) Configured() bool {
	return c.uri != ""
}

// Connect establishes the connection if needed and verifies it with a ping.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.uri == "" {
		return ErrNotConfigured
	}
	if c.client != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.uri))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("ping mongodb: %w", err)
	}

	c.client = client
	if c.logg != nil {
		c.logg.Info(ctx, "mongodb connection established")
	}
	return nil
}

// Database returns a handle to the configured database, connecting first if
// necessary.
func (c *Client) Database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c.client.Database(c.database), nil
}

// Ping verifies the connection, dialing lazily when needed.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
