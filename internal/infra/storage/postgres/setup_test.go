package postgres

import (
	"context"
	"io"
	"testing"

	"github.com/warekit/scantrack/internal/infra/storage"
	"github.com/warekit/scantrack/internal/infra/storage/gateway"
	"github.com/warekit/scantrack/pkg/common/logger"
)

func setupGateway(t *testing.T) (context.Context, *gateway.DB, func()) {
	t.Helper()

	p, cleanup := storage.SetupTestContainer(t)
	log := logger.New(io.Discard, logger.LevelDebug, "postgres-test", nil)
	return context.Background(), gateway.New(p, log), cleanup
}

func intPtr(v int) *int { return &v }
