package usecase

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	catalog *Catalog
	db      *pgxpool.Pool
	redis   *goredis.Client
}

// NewHealthUsecase accepts nil db and redis when those backends are not configured.
func NewHealthUsecase(catalog *Catalog, db *pgxpool.Pool, redis *goredis.Client) HealthUsecase {
	return &healthUsecase{catalog: catalog, db: db, redis: redis}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	status := map[string]string{
		"status":   "ok",
		"profiles": "loaded",
	}
	if u.catalog.Loading() {
		status["profiles"] = "loading"
	} else if u.catalog.LoadError() != nil {
		status["profiles"] = "load_failed"
	}

	status["database"] = probe(u.db != nil, func() error { return u.db.Ping(ctx) })
	status["redis"] = probe(u.redis != nil, func() error { return u.redis.Ping(ctx).Err() })
	return status
}

func probe(configured bool, ping func() error) string {
	if !configured {
		return "disabled"
	}
	if err := ping(); err != nil {
		return "unreachable"
	}
	return "ok"
}
