package pg

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pgOnce sync.Once
	pool   *pgxpool.Pool
)

// InitPG initializes the shared pgx pool (singleton).
func InitPG(connString string) error {
	var initErr error
	pgOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		p, err := pgxpool.New(ctx, connString)
		if err != nil {
			initErr = err
			return
		}
		if err := p.Ping(ctx); err != nil {
			initErr = err
			return
		}
		pool = p
	})
	return initErr
}

// GetPool returns the shared pool, panicking when InitPG was never called.
func GetPool() *pgxpool.Pool {
	if pool == nil {
		panic("postgres not initialized, call InitPG first")
	}
	return pool
}

func ClosePG() {
	if pool != nil {
		pool.Close()
	}
}
