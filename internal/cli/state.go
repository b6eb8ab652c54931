package cli

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/config"
	"github.com/spec-kit/aidtrace/internal/offline"
	"github.com/spec-kit/aidtrace/internal/persistence"
	"github.com/spec-kit/aidtrace/internal/session"
)

// localState is the session, pending-action queue and read cache the CLI
// keeps between invocations.
type localState struct {
	store   *session.Store
	queue   offline.Queue
	cache   offline.Cache
	closers []func()
	closed  bool
}

func (s *localState) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openState(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*localState, error) {
	st := &localState{}
	switch cfg.State.Backend {
	case config.StateMemory:
		st.store = session.NewStore(session.NewMemoryBackend())
		st.queue = offline.NewMemoryQueue()

	case config.StateSQLite:
		db, err := openSQLiteState(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		st.store = session.NewStore(session.NewSQLBackend(db, persistence.DialectSQLite))
		st.queue = offline.NewSQLQueue(db, persistence.DialectSQLite)

	case config.StatePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		st.closers = append(st.closers, pg.Close)
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.DB(), persistence.DialectPostgres, logger); err != nil {
				st.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		st.store = session.NewStore(session.NewSQLBackend(pg.DB(), persistence.DialectPostgres))
		st.queue = offline.NewSQLQueue(pg.DB(), persistence.DialectPostgres)

	case config.StateRedis:
		rds := persistence.NewRedis(ctx, cfg.Redis, logger)
		st.closers = append(st.closers, rds.Close)
		st.store = session.NewStore(session.NewRedisBackend(rds.Client, rds.Prefix+"session:", 0))
		st.cache = offline.NewRedisCache(rds.Client, rds.Prefix+"cache:", cfg.Offline.CacheTTL())
		// The queue stays on local disk so writes survive a redis outage.
		db, err := openSQLiteState(ctx, cfg, logger)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		st.queue = offline.NewSQLQueue(db, persistence.DialectSQLite)

	default:
		return nil, fmt.Errorf("unsupported state backend %q", cfg.State.Backend)
	}

	if st.cache == nil {
		st.cache = offline.NewMemoryCache(cfg.Offline.CacheSize, cfg.Offline.CacheTTL())
	}
	return st, nil
}

func openSQLiteState(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := persistence.OpenSQLite(ctx, cfg.State.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	if err := persistence.RunMigrations(ctx, db, persistence.DialectSQLite, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state: %w", err)
	}
	return db, nil
}
