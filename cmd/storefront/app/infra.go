package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aq2208/gorder-storefront/configs"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 10 * time.Second

func openMySQL(ctx context.Context, cfg configs.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// openPostgres retries the first ping so the storefront can start alongside
// its database container.
func openPostgres(ctx context.Context, cfg configs.Config) (*sql.DB, error) {
	attempts := cfg.Postgres.Retries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		var db *sql.DB
		db, err = sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)

		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			return db, nil
		}
		_ = db.Close()

		if i == attempts {
			break
		}
		select {
		case <-time.After(cfg.Postgres.RetryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("postgres ping canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("postgres unreachable after %d attempts: %w", attempts, err)
}

func openRedis(ctx context.Context, cfg configs.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func openRabbit(cfg configs.Config) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(cfg.Rabbit.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Properties: amqp.Table{
			"connection_name": cfg.App.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return conn, nil
}
