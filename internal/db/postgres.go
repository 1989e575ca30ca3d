package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/config"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connstr: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("Connected to PostgreSQL")
	return &Postgres{Pool: dbPool}, nil
}

// SQLX exposes the pool through database/sql for sqlx-based read models.
// Closing the returned handle does not close the pool.
func (p *Postgres) SQLX() *sqlx.DB {
	return sqlx.NewDb(stdlib.OpenDBFromPool(p.Pool), "pgx")
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
		log.Info().Msg("Database connection closed")
	}
}

// ApplyMigrations runs every pending up migration found in cfg.MigrationsPath.
func ApplyMigrations(cfg config.PostgresConfig) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, migrationURL(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source_err", srcErr).AnErr("db_err", dbErr).Msg("Failed to close migration instance")
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("No new migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info().Msg("New migrations applied successfully")

	return nil
}

func migrationURL(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

func connString(cfg config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}
