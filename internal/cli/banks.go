package cli

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"history-quiz/internal/app"
	"history-quiz/internal/config"
	"history-quiz/internal/domain"
	"history-quiz/internal/infra/memory"
	pgloader "history-quiz/internal/infra/postgres"
	redisinfra "history-quiz/internal/infra/redis"
)

// backends holds the optional infrastructure named in the config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func connectBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, errors.Wrap(err, "connect postgres")
		}
		b.pool = pool
	}
	return b, nil
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// bankRepository picks the loader (Postgres or embedded) and the cache
// (Redis or in-process) from what is configured.
func (b *backends) bankRepository(cfg config.Config) (app.BankRepository, error) {
	var loader memory.BankLoader
	if b.pool != nil {
		loader = pgloader.NewBankLoader(b.pool)
	} else {
		embedded, err := memory.NewEmbeddedBankLoader()
		if err != nil {
			return nil, err
		}
		loader = embedded
	}

	ttl := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	if b.redis != nil {
		return redisinfra.NewBankRepository(b.redis, loader, ttl), nil
	}
	return memory.NewBankRepository(loader, ttl), nil
}

// loadBank resolves the configured bank once. A broken bank stops the
// process here, before any session exists.
func loadBank(ctx context.Context, banks app.BankRepository, bankID string) (domain.Bank, error) {
	bank, err := banks.GetBank(ctx, bankID)
	if err != nil {
		return domain.Bank{}, errors.Wrapf(err, "load bank %q", bankID)
	}
	glog.Infof("bank %s loaded with %d questions", bank.ID, len(bank.Questions))
	return bank, nil
}
