// Package evolve is the public entry point for the evolve schema migration
// engine. It ties the snapshot builder, diff engine, and migration runner
// together behind a single client.
//
// Example:
//
//	client, err := evolve.New(
//	    evolve.WithDatabaseURL("postgres://localhost/mydb"),
//	    evolve.WithMigrationsDir("./migrations"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if _, err := client.Migrate(); err != nil {
//	    log.Fatal(err)
//	}
package evolve

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/xo/dburl"

	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
	"github.com/evolvedb/evolve/internal/migrate"
	"github.com/evolvedb/evolve/internal/probe"
)

// Client is the main entry point. Create one with New and close it with
// Close when done.
type Client struct {
	db      *sql.DB
	dialect dialect.Dialect
	config  *Config
	runner  *migrate.Runner
}

// New creates a new Client with the given options.
//
// At minimum, WithDatabaseURL must be provided. The dialect is auto-detected
// from the URL if not explicitly set.
//
// The read-write connection opens lazily, on the first operation that
// mutates the store. Read-only operations (Plan, Status, VerifyChecksums,
// Probe) go through a separate read-only handle, so none of them can create
// a missing sqlite file or its WAL sidecars.
func New(opts ...Option) (*Client, error) {
	cfg := &Config{
		MigrationsDir: "./migrations",
		Timeout:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = filepath.Join(cfg.MigrationsDir, "schema_snapshot.yaml")
	}

	if cfg.DatabaseURL == "" {
		return nil, everr.New(everr.ErrSQLConnection, "database URL is required")
	}
	if cfg.Dialect == "" {
		cfg.Dialect = detectDialect(cfg.DatabaseURL)
	}

	d := dialect.Get(cfg.Dialect)
	if d == nil {
		return nil, everr.Newf(everr.ErrSQLConnection, "unsupported dialect %q", cfg.Dialect)
	}

	return &Client{
		dialect: d,
		config:  cfg,
	}, nil
}

// connect opens the read-write connection on first use.
func (c *Client) connect() (*migrate.Runner, error) {
	if c.runner != nil {
		return c.runner, nil
	}

	db, err := openDatabase(c.config.DatabaseURL, c.config.Dialect)
	if err != nil {
		return nil, everr.Wrap(everr.ErrSQLConnection, err, "failed to open database").
			With("dialect", c.config.Dialect)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if c.config.Dialect == "sqlite" {
		// In-memory and file sqlite both want a single writer.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := c.context()
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, everr.Wrap(everr.ErrSQLConnection, err, "failed to connect").
			With("dialect", c.config.Dialect)
	}

	c.db = db
	c.runner = migrate.NewRunner(db, c.dialect, c.config.Callbacks)
	return c.runner, nil
}

// readOnlyDB opens a handle that cannot write to the store. A nil handle with
// a nil error means the store does not exist yet, so nothing is applied.
// sqlite opens the file with mode=ro&immutable=1; server engines pin a single
// session forced read-only. In-memory sqlite has no file a second handle
// could see, so an already-open connection is shared (with a no-op cleanup).
// Callers must call cleanup when done.
func (c *Client) readOnlyDB(ctx context.Context) (*sql.DB, func(), error) {
	noop := func() {}

	if c.dialect.Name() == "sqlite" {
		path := c.sqliteFile()
		if strings.Contains(path, ":memory:") {
			return c.db, noop, nil
		}
		dsn, err := probe.SQLiteReadOnlyDSN(path)
		if err != nil {
			return nil, noop, nil
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, noop, everr.Wrap(everr.ErrSQLConnection, err, "failed to open read-only database")
		}
		db.SetMaxOpenConns(1)
		return db, func() { db.Close() }, nil
	}

	db, err := openDatabase(c.config.DatabaseURL, c.config.Dialect)
	if err != nil {
		return nil, noop, everr.Wrap(everr.ErrSQLConnection, err, "failed to open database").
			With("dialect", c.config.Dialect)
	}
	db.SetMaxOpenConns(1)

	stmt := "SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY"
	if c.dialect.Name() == "mysql" {
		stmt = "SET SESSION TRANSACTION READ ONLY"
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		db.Close()
		return nil, noop, everr.Wrap(everr.ErrSQLConnection, err, "failed to open read-only session").
			With("dialect", c.config.Dialect)
	}
	return db, func() { db.Close() }, nil
}

// sqliteFile returns the bare file path of a sqlite database URL.
func (c *Client) sqliteFile() string {
	path := sqlitePath(c.config.DatabaseURL)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimPrefix(path, "file:")
}

// Close closes the database connection and releases resources.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying read-write database connection, opening it on
// first use. Use with caution, the high-level methods are usually what you
// want.
func (c *Client) DB() (*sql.DB, error) {
	if _, err := c.connect(); err != nil {
		return nil, err
	}
	return c.db, nil
}

// Dialect returns the database dialect name.
func (c *Client) Dialect() string {
	return c.dialect.Name()
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return *c.config
}

func (c *Client) log(format string, v ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Printf(format, v...)
	}
}

func (c *Client) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.config.Timeout)
}

// detectDialect auto-detects the database dialect from the connection URL.
//
// Detection rules:
//   - postgres:// or postgresql:// -> postgres
//   - mysql:// or mariadb:// -> mysql
//   - sqlite:, file:, or a path ending with .db/.sqlite/.sqlite3 -> sqlite
func detectDialect(url string) string {
	url = strings.ToLower(url)

	switch {
	case strings.HasPrefix(url, "postgres://"),
		strings.HasPrefix(url, "postgresql://"):
		return "postgres"

	case strings.HasPrefix(url, "mysql://"),
		strings.HasPrefix(url, "mariadb://"):
		return "mysql"

	case strings.HasPrefix(url, "sqlite:"),
		strings.HasPrefix(url, "sqlite3:"),
		strings.HasPrefix(url, "file:"):
		return "sqlite"

	case strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"),
		url == ":memory:":
		return "sqlite"
	}

	return "postgres"
}

// openDatabase opens a connection from a URL. Server engines go through
// dburl so the full scheme zoo (postgres://, pg://, mysql://, ...) resolves
// to the right driver DSN; sqlite takes the path directly.
func openDatabase(rawURL, dialectName string) (*sql.DB, error) {
	if dialectName == "sqlite" {
		return sql.Open("sqlite", sqlitePath(rawURL))
	}

	u, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return sql.Open(driverName(u.Driver), u.DSN)
}

// driverName maps dburl's driver keys onto the drivers this module links.
func driverName(key string) string {
	switch key {
	case "sqlite3", "moderncsqlite":
		return "sqlite"
	default:
		return key
	}
}

// sqlitePath strips URL decoration from a sqlite DSN, leaving a file path
// (query parameters are kept, the driver understands them).
func sqlitePath(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	url = strings.TrimPrefix(url, "sqlite3://")
	url = strings.TrimPrefix(url, "sqlite:")
	return url
}
