package sqlfn

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool lends connections from one pgx pool per connection string. Its
// Connect method is a Connector; closing a lent connection returns it to the
// pool instead of ending the session.
type Pool struct {
	// MaxConns and MinConns size each pool. Zero keeps the pgxpool defaults.
	MaxConns int32
	MinConns int32

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// Connect acquires a connection from the pool for dsn, creating and pinging
// the pool on first use.
func (p *Pool) Connect(ctx context.Context, dsn string) (Conn, error) {
	pool, err := p.pool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	c, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}
	return &pooledConn{c: c}, nil
}

func (p *Pool) pool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok := p.pools[dsn]; ok {
		return pool, nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if p.MaxConns > 0 {
		cfg.MaxConns = p.MaxConns
	}
	if p.MinConns > 0 {
		cfg.MinConns = min(p.MinConns, cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if p.pools == nil {
		p.pools = make(map[string]*pgxpool.Pool)
	}
	p.pools[dsn] = pool
	return pool, nil
}

// Close closes every pool. It blocks until lent connections are returned.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for dsn, pool := range p.pools {
		pool.Close()
		delete(p.pools, dsn)
	}
}

// pooledConn adapts an acquired pool connection to Conn.
type pooledConn struct {
	c        *pgxpool.Conn
	released bool
}

func (pc *pooledConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return pc.c.Query(ctx, sql, args...)
}

func (pc *pooledConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pc.c.Exec(ctx, sql, args...)
}

func (pc *pooledConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return pc.c.Begin(ctx)
}

func (pc *pooledConn) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return pc.c.Conn().Prepare(ctx, name, sql)
}

func (pc *pooledConn) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	return pc.c.CopyFrom(ctx, table, columns, src)
}

// Close releases the connection back to its pool.
func (pc *pooledConn) Close(context.Context) error {
	if !pc.released {
		pc.released = true
		pc.c.Release()
	}
	return nil
}
