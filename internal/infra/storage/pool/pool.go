// Package pool maintains a bounded set of live database connections shared
// across concurrent callers. Connections are handed out through a blocking
// acquire with a fixed wait, grown lazily up to a cap, health-checked on
// release, and evicted by a background sweeper when idle too long.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/warekit/scantrack/pkg/common/logger"
)

// Defaults applied by New when the config leaves them zero.
const (
	DefaultMinConns    = 2
	DefaultMaxConns    = 10
	DefaultMaxIdleTime = 5 * time.Minute

	acquireTimeout = 5 * time.Second
	sweepInterval  = 60 * time.Second
	probeTimeout   = 2 * time.Second
)

// ErrPoolExhausted is returned by Acquire when no connection frees up within
// the wait window and the pool is already at its cap.
var ErrPoolExhausted = errors.New("connection pool exhausted")

// ErrPoolClosed is returned for any operation after Close.
var ErrPoolClosed = errors.New("connection pool is closed")

// Conn is the subset of *pgx.Conn the pool and gateway rely on.
type Conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Dialer opens one new database connection.
type Dialer func(ctx context.Context) (Conn, error)

// Config controls pool sizing and eviction.
type Config struct {
	DSN         string
	MinConns    int
	MaxConns    int
	MaxIdleTime time.Duration
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Total       int
	Available   int
	Max         int
	Utilization float64
}

type connMeta struct {
	createdAt time.Time
	lastUsed  time.Time
	inUse     bool
}

// ConnectionPool hands out database connections to concurrent callers.
// Bookkeeping (created count, per-connection metadata) is guarded by one
// mutex; the idle channel is the handoff structure between callers.
type ConnectionPool struct {
	log  *logger.Logger
	dial Dialer
	cfg  Config

	mu       sync.Mutex
	tracked  map[Conn]*connMeta
	creating int
	closed   bool

	idle chan Conn

	acquireTimeout time.Duration
	sweepInterval  time.Duration

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// New creates a pool. The dialer may be nil, in which case connections are
// opened from cfg.DSN with the otelpgx query tracer attached. Connections
// are not created until Start.
func New(cfg Config, dial Dialer, log *logger.Logger) (*ConnectionPool, error) {
	if cfg.MinConns <= 0 {
		cfg.MinConns = DefaultMinConns
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	if cfg.MaxIdleTime <= 0 {
		cfg.MaxIdleTime = DefaultMaxIdleTime
	}
	if cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("min connections %d exceeds max %d", cfg.MinConns, cfg.MaxConns)
	}
	if dial == nil {
		if cfg.DSN == "" {
			return nil, errors.New("either a dialer or a DSN is required")
		}
		dial = pgxDialer(cfg.DSN)
	}

	return &ConnectionPool{
		log:            log,
		dial:           dial,
		cfg:            cfg,
		tracked:        make(map[Conn]*connMeta),
		idle:           make(chan Conn, cfg.MaxConns),
		acquireTimeout: acquireTimeout,
		sweepInterval:  sweepInterval,
		stopSweep:      make(chan struct{}),
		sweepDone:      make(chan struct{}),
	}, nil
}

func pgxDialer(dsn string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		connCfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parsing dsn: %w", err)
		}
		connCfg.RuntimeParams["client_encoding"] = "UTF8"
		connCfg.Tracer = otelpgx.NewTracer()
		return pgx.ConnectConfig(ctx, connCfg)
	}
}

// Start eagerly opens MinConns connections and launches the idle sweeper.
// Individual creation failures are logged and tolerated; the pool may start
// below its minimum and later acquires will retry creation.
func (p *ConnectionPool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	for i := 0; i < p.cfg.MinConns; i++ {
		conn, err := p.dial(ctx)
		if err != nil {
			p.log.Warn(ctx, "pool: initial connection failed", "index", i, "error", err)
			continue
		}
		p.track(conn)
		p.idle <- conn
	}

	go p.sweep()
	return nil
}

// Acquire returns a connection, blocking up to the fixed wait window for one
// to free up. On timeout the pool grows by one connection if under the cap;
// at the cap the caller gets ErrPoolExhausted.
func (p *ConnectionPool) Acquire(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case conn := <-p.idle:
		p.touch(conn)
		return conn, nil
	default:
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case conn := <-p.idle:
		p.touch(conn)
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return p.grow(ctx)
	}
}

// grow opens one extra connection when the wait window expired with nothing
// available, provided the pool is under its cap.
func (p *ConnectionPool) grow(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if len(p.tracked)+p.creating >= p.cfg.MaxConns {
		p.mu.Unlock()
		return nil, ErrPoolExhausted
	}
	p.creating++
	p.mu.Unlock()

	conn, err := p.dial(ctx)

	p.mu.Lock()
	p.creating--
	p.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("growing pool: %w", err)
	}
	p.track(conn)
	p.touch(conn)
	p.log.Debug(ctx, "pool: grew beyond minimum", "total", p.Stats().Total)
	return conn, nil
}

// Release returns a connection to the pool after a liveness probe. A failed
// probe discards the connection instead of recycling it. Releasing a
// connection the pool no longer tracks (already discarded, or a double
// release) is a no-op.
func (p *ConnectionPool) Release(ctx context.Context, conn Conn) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	meta, ok := p.tracked[conn]
	if !ok || p.closed || !meta.inUse {
		// Already discarded, a double release, or the pool shut down and
		// closed the connection itself.
		p.mu.Unlock()
		return
	}
	meta.inUse = false
	p.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
	defer cancel()
	if err := conn.Ping(probeCtx); err != nil {
		p.log.Warn(ctx, "pool: discarding dead connection", "error", err)
		p.discard(ctx, conn)
		return
	}

	p.mu.Lock()
	meta.lastUsed = time.Now()
	p.mu.Unlock()

	select {
	case p.idle <- conn:
	default:
		// The idle channel is sized to the cap, so this only happens on a
		// double release of a connection that is already idle.
		p.discard(ctx, conn)
	}
}

// Stats returns a lock-protected snapshot of pool occupancy.
func (p *ConnectionPool) Stats() Stats {
	p.mu.Lock()
	total := len(p.tracked)
	p.mu.Unlock()

	s := Stats{Total: total, Available: len(p.idle), Max: p.cfg.MaxConns}
	if s.Max > 0 {
		s.Utilization = float64(s.Total-s.Available) / float64(s.Max) * 100
	}
	return s
}

// Close stops the sweeper and force-closes every tracked connection,
// including ones currently held by callers. Safe to call once.
func (p *ConnectionPool) Close(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	conns := make([]Conn, 0, len(p.tracked))
	for c := range p.tracked {
		conns = append(conns, c)
	}
	p.tracked = make(map[Conn]*connMeta)
	p.mu.Unlock()

	close(p.stopSweep)
	<-p.sweepDone

	for {
		select {
		case <-p.idle:
			continue
		default:
		}
		break
	}

	for _, c := range conns {
		if err := c.Close(ctx); err != nil {
			p.log.Warn(ctx, "pool: error closing connection", "error", err)
		}
	}
	p.log.Info(ctx, "pool: closed", "connections", len(conns))
}

// sweep periodically discards idle connections that outlived MaxIdleTime,
// never shrinking below MinConns.
func (p *ConnectionPool) sweep() {
	defer close(p.sweepDone)

	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopSweep:
			return
		case <-ticker.C:
			p.evictIdle()
		}
	}
}

func (p *ConnectionPool) evictIdle() {
	ctx := context.Background()
	now := time.Now()

	// Drain the idle channel so each candidate is inspected exactly once.
	var keep []Conn
	var stale []Conn
	for {
		select {
		case conn := <-p.idle:
			p.mu.Lock()
			meta, ok := p.tracked[conn]
			total := len(p.tracked)
			expired := ok && now.Sub(meta.lastUsed) > p.cfg.MaxIdleTime
			canEvict := total-len(stale) > p.cfg.MinConns
			p.mu.Unlock()

			if ok && expired && canEvict {
				stale = append(stale, conn)
			} else {
				keep = append(keep, conn)
			}
		default:
			for _, conn := range keep {
				p.idle <- conn
			}
			for _, conn := range stale {
				p.discard(ctx, conn)
			}
			if len(stale) > 0 {
				p.log.Debug(ctx, "pool: evicted idle connections", "count", len(stale))
			}
			return
		}
	}
}

// track registers a connection under the bookkeeping lock.
func (p *ConnectionPool) track(conn Conn) {
	now := time.Now()
	p.mu.Lock()
	p.tracked[conn] = &connMeta{createdAt: now, lastUsed: now}
	p.mu.Unlock()
}

// touch marks a connection checked out and refreshes its last-used time.
func (p *ConnectionPool) touch(conn Conn) {
	p.mu.Lock()
	if meta, ok := p.tracked[conn]; ok {
		meta.lastUsed = time.Now()
		meta.inUse = true
	}
	p.mu.Unlock()
}

// discard closes a connection and removes it from all tracking structures.
func (p *ConnectionPool) discard(ctx context.Context, conn Conn) {
	p.mu.Lock()
	delete(p.tracked, conn)
	p.mu.Unlock()

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
	defer cancel()
	_ = conn.Close(closeCtx)
}
