package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Dialect identifies the engine behind a Store
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DatabaseFile is the name of the embedded database inside the store directory
const DatabaseFile = "export.db"

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Endpoint is a resolved store location
type Endpoint struct {
	Dialect Dialect
	// Location is a directory for sqlite and a DSN for postgres
	Location string
	User     string
	Password string
}

func (e Endpoint) String() string {
	if e.Dialect == DialectSQLite {
		return filepath.Join(e.Location, DatabaseFile)
	}
	return e.Location
}

// ResolveEndpoint decides where the store lives. DBPATH unset or "1" selects
// the default cache directory, "remote" selects the network endpoint and any
// other value names a directory. A directory that cannot be created falls
// back to the network endpoint.
func ResolveEndpoint(conf *internal.Config) Endpoint {
	remote := Endpoint{
		Dialect:  DialectPostgres,
		Location: conf.DBRemote,
		User:     conf.DBUser,
		Password: conf.DBPass,
	}

	var dir string
	switch {
	case conf.DBPath == "" || conf.DBPath == "1":
		dir = internal.DefaultStoreDir()
	case conf.DBPath == "remote":
		return remote
	case isPeerTarget(conf.DBPath):
		internal.LogWarn("DBPATH %s names a peer, not a store directory; using %s", conf.DBPath, internal.DefaultStoreDir())
		dir = internal.DefaultStoreDir()
	default:
		dir = conf.DBPath
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		internal.LogWarn("Cannot create store directory %s, using %s: %v", dir, conf.DBRemote, err)
		return remote
	}
	return Endpoint{Dialect: DialectSQLite, Location: dir}
}

// isPeerTarget reports whether a DBPATH value addresses an HTTP or socket
// peer rather than a store directory
func isPeerTarget(dbPath string) bool {
	if u, err := url.Parse(dbPath); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return true
	}
	if strings.HasSuffix(dbPath, ".sock") {
		return true
	}
	info, err := os.Stat(dbPath)
	return err == nil && info.Mode()&os.ModeSocket != 0
}

// Store is the embedded graph-capable message store. It is owned by exactly
// one caller and is not safe for concurrent writers.
type Store struct {
	db       *sqlx.DB
	dialect  Dialect
	location string
}

// Open opens the store at a resolved endpoint
func Open(ctx context.Context, ep Endpoint) (*Store, error) {
	switch ep.Dialect {
	case DialectSQLite:
		return OpenSQLite(ctx, ep.String())
	case DialectPostgres:
		return OpenPostgres(ctx, ep.Location, ep.User, ep.Password)
	default:
		return nil, fmt.Errorf("unsupported store dialect: %s", ep.Dialect)
	}
}

// OpenSQLite opens or creates the sqlite database file at path
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// One connection keeps transactions and pragmas on the same handle
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &Store{db: db, dialect: DialectSQLite, location: path}, nil
}

// OpenPostgres connects to the network store. Non-empty user and password
// override the credentials in dsn.
func OpenPostgres(ctx context.Context, dsn, user, password string) (*Store, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid store dsn: %w", err)
	}
	if user != "" && password != "" {
		config.User = user
		config.Password = password
	}

	db := sqlx.NewDb(stdlib.OpenDB(*config), "pgx")
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", config.Host, config.Port, err)
	}

	return &Store{db: db, dialect: DialectPostgres, location: dsn}, nil
}

// Dialect returns the engine behind the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Location returns the database file or DSN the store was opened with
func (s *Store) Location() string {
	return s.location
}

// DB returns the underlying sqlx handle
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks the store is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Flush is a durability barrier: a WAL checkpoint for sqlite, a no-op for postgres
func (s *Store) Flush(ctx context.Context) error {
	if s.dialect != DialectSQLite {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Counts reports the number of rows in each collection
type Counts struct {
	Persons    int `json:"persons" db:"persons"`
	Threads    int `json:"threads" db:"threads"`
	Messages   int `json:"messages" db:"messages"`
	Sent       int `json:"sent" db:"sent"`
	MessagedIn int `json:"messaged_in" db:"messaged_in"`
	InThread   int `json:"in_thread" db:"in_thread"`
}

// Counts returns the number of rows in every collection
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	return countCollections(ctx, s.db)
}

func countCollections(ctx context.Context, q sqlx.QueryerContext) (*Counts, error) {
	var c Counts
	err := sqlx.GetContext(ctx, q, &c, `
		SELECT
			(SELECT COUNT(*) FROM persons) AS persons,
			(SELECT COUNT(*) FROM threads) AS threads,
			(SELECT COUNT(*) FROM messages) AS messages,
			(SELECT COUNT(*) FROM sent) AS sent,
			(SELECT COUNT(*) FROM messaged_in) AS messaged_in,
			(SELECT COUNT(*) FROM in_thread) AS in_thread
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}
	return &c, nil
}
