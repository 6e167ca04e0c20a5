package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/warekit/scantrack/pkg/common/logger"
)

// ConnectWithRetry creates and starts a pool, retrying with exponential
// backoff until the database accepts at least one probe connection. Used at
// process startup where the database may still be coming up.
func ConnectWithRetry(ctx context.Context, cfg Config, log *logger.Logger) (*ConnectionPool, error) {
	var p *ConnectionPool

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 2 * time.Second
	expBackoff.MaxElapsedTime = 2 * time.Minute

	operation := func() error {
		candidate, err := New(cfg, nil, log)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := candidate.Start(ctx); err != nil {
			return fmt.Errorf("starting pool: %w", err)
		}
		if candidate.Stats().Total == 0 {
			// Start tolerates creation failures; verify the database is
			// actually reachable before declaring success.
			candidate.Close(ctx)
			return fmt.Errorf("no connections could be established")
		}
		p = candidate
		return nil
	}

	if err := backoff.Retry(operation, expBackoff); err != nil {
		return nil, fmt.Errorf("connecting to database after retries: %w", err)
	}

	log.Info(ctx, "pool: connected", "connections", p.Stats().Total, "max", cfg.MaxConns)
	return p, nil
}
