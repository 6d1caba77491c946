// Package db implements the execution store on SurrealDB, over an
// auto-reconnecting WebSocket connection.
package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/agentwatch/internal/metrics"
	"github.com/raphaelgruber/agentwatch/internal/store"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// WebSocket upgrade needs HTTP/1.1; stop wss:// from negotiating HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Reconnect defaults.
const (
	dialTimeout      = 5 * time.Second
	reconnectInitial = time.Second
	reconnectMax     = 30 * time.Second
	reconnectRetries = 10
)

// tables in child-to-parent order, so deletes never orphan a reference.
var tables = []string{"correlation", "entity", "execution", "agent"}

// Config holds SurrealDB connection configuration.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"
}

// baseURL strips the /rpc suffix; gorillaws appends it itself.
func (c Config) baseURL() string {
	return strings.TrimSuffix(c.URL, "/rpc")
}

func (c Config) auth() surrealdb.Auth {
	if c.AuthLevel == "database" {
		return surrealdb.Auth{
			Namespace: c.Namespace,
			Database:  c.Database,
			Username:  c.Username,
			Password:  c.Password,
		}
	}
	return surrealdb.Auth{Username: c.Username, Password: c.Password}
}

var _ store.Store = (*Client)(nil)

// Client is a store.Store backed by SurrealDB.
type Client struct {
	conn    *rews.Connection[*gorillaws.Connection]
	db      *surrealdb.DB
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Collector
}

// NewClient connects, signs in, and selects the namespace and database.
// The schema is not touched; call InitSchema. mc may be nil.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger, mc *metrics.Collector) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "surrealdb")

	// SDK logs go through our handler so they land in the same sinks
	conn := dial(cfg, logger.New(log.Handler()))
	log.Info("connecting", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	// Create DB wrapper, sign in, select ns/db
	c := &Client{conn: conn, cfg: cfg, log: log, metrics: mc}
	if err := c.open(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	log.Info("connection established", "namespace", cfg.Namespace, "database", cfg.Database)
	return c, nil
}

// dial builds the reconnecting connection with exponential backoff.
func dial(cfg Config, sdkLogger logger.Logger) *rews.Connection[*gorillaws.Connection] {
	codec := surrealcbor.New()
	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     cfg.baseURL(),
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			}), nil
		},
		dialTimeout,
		codec,
		sdkLogger,
	)

	// Reconnect with backoff: 1s, 2s, 4s ... capped at reconnectMax
	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = reconnectInitial
	retryer.MaxDelay = reconnectMax
	retryer.Multiplier = 2.0
	retryer.MaxRetries = reconnectRetries
	conn.Retryer = retryer
	return conn
}

// open wraps the connection, authenticates, and selects ns/db.
func (c *Client) open(ctx context.Context) error {
	db, err := surrealdb.FromConnection(ctx, c.conn)
	if err != nil {
		return fmt.Errorf("from connection: %w", err)
	}

	// Authenticate
	c.log.Debug("authenticating", "user", c.cfg.Username, "auth_level", c.cfg.AuthLevel)
	if _, err := db.SignIn(ctx, c.cfg.auth()); err != nil {
		return fmt.Errorf("signin: %w", err)
	}
	// Select namespace and database
	if err := db.Use(ctx, c.cfg.Namespace, c.cfg.Database); err != nil {
		return fmt.Errorf("use %s/%s: %w", c.cfg.Namespace, c.cfg.Database, err)
	}
	c.db = db
	return nil
}

// Close closes the SurrealDB connection.
func (c *Client) Close(ctx context.Context) error {
	c.log.Info("closing connection")
	return c.conn.Close(ctx)
}

// DB returns the underlying SurrealDB client.
func (c *Client) DB() *surrealdb.DB {
	return c.db
}

// InitSchema applies SchemaSQL. Every statement is IF NOT EXISTS, so it is
// safe on every start.
func (c *Client) InitSchema(ctx context.Context) error {
	defer c.metrics.Since(metrics.OpStoreWrite, time.Now())
	if _, err := surrealdb.Query[any](ctx, c.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	c.log.Debug("schema ready", "tables", tables)
	return nil
}

// Query executes a SurrealQL query with parameters.
func (c *Client) Query(ctx context.Context, sql string, vars map[string]any) (*[]surrealdb.QueryResult[any], error) {
	defer c.metrics.Since(metrics.OpStoreQuery, time.Now())
	return surrealdb.Query[any](ctx, c.db, sql, vars)
}

// WipeData deletes every record but keeps the schema. Tests only.
func (c *Client) WipeData(ctx context.Context) error {
	// One round trip; children first so nothing dangles mid-wipe
	var b strings.Builder
	for _, t := range tables {
		fmt.Fprintf(&b, "DELETE %s;\n", t)
	}
	if _, err := surrealdb.Query[any](ctx, c.db, b.String(), nil); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	c.log.Warn("wiped all data", "tables", tables)
	return nil
}
