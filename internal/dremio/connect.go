// Package dremio speaks to a Dremio coordinator over Arrow Flight SQL and
// maps its namespace onto the entity model: spaces and sources become
// databases, folder chains become schemas, relations become tables and views.
package dremio

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/apache/arrow-go/v18/arrow/flight/flightsql/driver" // flightsql driver
)

// Config is an immutable connection record. Build it once from the workflow
// file; nothing mutates it after Validate.
type Config struct {
	// HostPort is the coordinator's Flight endpoint, host:port.
	HostPort string `koanf:"hostPort" yaml:"hostPort"`
	Username string `koanf:"username" yaml:"username"`
	Password string `koanf:"password" yaml:"password"`
	// UseEncryption enables TLS on the Flight channel. Off by default,
	// matching unencrypted local dev stacks. The workflow key keeps its
	// odd casing for compatibility with existing ingestion configs.
	UseEncryption bool `koanf:"UseEncryption" yaml:"UseEncryption"`
	// DisableCertificateVerification skips server certificate checks when
	// encryption is on. Defaults to true because self-signed coordinator
	// certs are the common case.
	DisableCertificateVerification bool `koanf:"disableCertificateVerification" yaml:"disableCertificateVerification"`
	// Timeout bounds individual Flight calls. Zero means driver default.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	// Options are passed through to the driver DSN untouched.
	Options map[string]string `koanf:"options" yaml:"options"`
}

// Validate enforces the required fields. The driver would fail later anyway,
// but failing here gives the operator a message naming the workflow key.
func (c Config) Validate() error {
	if c.HostPort == "" {
		return fmt.Errorf("connection: hostPort is required")
	}
	if c.Username == "" {
		return fmt.Errorf("connection: username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("connection: password is required")
	}
	return nil
}

// DSN builds the Flight SQL driver DSN. Query parameters are encoded in
// sorted key order so the same config always yields the same string.
func (c Config) DSN() string {
	params := url.Values{}
	switch {
	case !c.UseEncryption:
		params.Set("tls", "disabled")
	case c.DisableCertificateVerification:
		params.Set("tls", "skip-verify")
	default:
		params.Set("tls", "enabled")
	}
	if c.Timeout > 0 {
		params.Set("timeout", c.Timeout.String())
	}
	for k, v := range c.Options {
		params.Set(k, v)
	}

	u := url.URL{
		Scheme:   "flightsql",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.HostPort,
		RawQuery: params.Encode(),
	}
	return u.String()
}

// Conn is the single live connection every component queries through.
type Conn struct {
	db     *sql.DB
	logger *slog.Logger
}

// Connect opens and verifies a connection. Any failure is returned as a
// *ConnectionError; there are no retries at this layer, the caller owns
// retry policy.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConnectionError{HostPort: cfg.HostPort, Err: err}
	}

	db, err := sql.Open("flightsql", cfg.DSN())
	if err != nil {
		return nil, &ConnectionError{HostPort: cfg.HostPort, Err: err}
	}

	// One connection to the source, ever. The whole pipeline is sequential
	// and must not overwhelm the coordinator.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{HostPort: cfg.HostPort, Err: err}
	}

	logger.Debug("connected", slog.String("hostPort", cfg.HostPort))
	return &Conn{db: db, logger: logger}, nil
}

// NewConnFromDB wraps an existing database handle. Tests use this to
// substitute a mock for the Flight driver.
func NewConnFromDB(db *sql.DB, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Conn{db: db, logger: logger}
}

// DB exposes the underlying handle for components issuing their own queries.
func (c *Conn) DB() *sql.DB {
	return c.db
}

// Close closes the connection.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
