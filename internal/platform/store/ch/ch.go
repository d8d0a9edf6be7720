// Package ch provides a clickhouse client over the native protocol
package ch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL         string
	ClientName  string
	ClientTag   string
	DialTimeout time.Duration
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// Batch collects rows for one INSERT
type Batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// session is the slice of driver.Conn the client uses
type session interface {
	Prepare(ctx context.Context, query string) (Batch, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// CH is a clickhouse client
type CH struct {
	s session
}

type native struct{ c driver.Conn }

func (n native) Prepare(ctx context.Context, query string) (Batch, error) {
	return n.c.PrepareBatch(ctx, query)
}

func (n native) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return n.c.Query(ctx, query, args...)
}

func (n native) Ping(ctx context.Context) error { return n.c.Ping(ctx) }
func (n native) Close() error                   { return n.c.Close() }

var dial = func(o *clickhouse.Options) (session, error) {
	c, err := clickhouse.Open(o)
	if err != nil {
		return nil, err
	}
	return native{c: c}, nil
}

// Open parses the DSN, attaches client info and pings the server once
func Open(ctx context.Context, cfg Config) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	s, err := dial(opts)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("ch: ping: %w", err)
	}
	return &CH{s: s}, nil
}

// Insert appends rows to one batch and sends it; nothing is written when any row fails to append
func (c *CH) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if table == "" || len(columns) == 0 {
		return errors.New("ch: insert needs a table and columns")
	}
	b, err := c.s.Prepare(ctx, fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", ")))
	if err != nil {
		return fmt.Errorf("ch: prepare %s: %w", table, err)
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			_ = b.Abort()
			return fmt.Errorf("ch: row %d has %d values, want %d", i, len(r), len(columns))
		}
		if err := b.Append(r...); err != nil {
			_ = b.Abort()
			return fmt.Errorf("ch: append row %d: %w", i, err)
		}
	}
	if err := b.Send(); err != nil {
		return fmt.Errorf("ch: send %s: %w", table, err)
	}
	return nil
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return c.s.Query(ctx, query, args...)
}

// Ping checks the connection
func (c *CH) Ping(ctx context.Context) error { return c.s.Ping(ctx) }

// Close closes resources
func (c *CH) Close() error {
	if c == nil || c.s == nil {
		return nil
	}
	return c.s.Close()
}
