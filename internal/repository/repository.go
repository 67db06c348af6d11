package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/config"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// Database is the subset of a pgx pool the repository works with.
// Both *pgxpool.Pool and pgxmock pools satisfy it.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type Repository struct {
	db  Database
	log *slog.Logger
}

// LeadStore is the write gateway and read side of the leads table.
type LeadStore interface {
	InsertLead(ctx context.Context, lead *models.Lead) (models.StoreOutcome, error)
	ListLeads(ctx context.Context) ([]models.Lead, error)
}

// GeocodingStore is used by the background lead geocoder.
type GeocodingStore interface {
	FetchLeadsForGeocoding(ctx context.Context, limit int) ([]models.GeocodingLead, error)
	UpdateLeadCoordinates(ctx context.Context, leadID int64, coords models.Coordinates) error
	IncrementFailureCount(ctx context.Context, leadID int64, errMsg string) error
}

// KeyStore persists API keys and their usage log.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey, keyHash string) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	GetAPIKey(ctx context.Context, id int64) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id int64) error
	DeleteAPIKey(ctx context.Context, id int64) error
	LogUsage(ctx context.Context, keyID int64, endpoint string, leads int) error
	MonthlyLeads(ctx context.Context, keyID int64) (int, error)
	UsageStats(ctx context.Context, keyID int64) (*models.Usage, error)
}

type Interface interface {
	LeadStore
	GeocodingStore
	KeyStore
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// DSN builds a postgres connection URL from the configuration.
func DSN(cfg config.PostgresConfig) string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return dsn.String()
}

// NewDatabase opens a connection pool and pings it. A database that is not yet reachable
// is retried cfg.ConnectAttempts times with a fixed cfg.ConnectDelay between attempts;
// the last error is returned once the attempts are exhausted.
func NewDatabase(ctx context.Context, cfg config.PostgresConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	attempts := max(cfg.ConnectAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, errPool := pgxpool.NewWithConfig(ctx, poolCfg)
		if errPool == nil {
			if errPool = pool.Ping(ctx); errPool == nil {
				log.InfoContext(ctx, "Connected to database", "host", cfg.Host, "database", cfg.Name)
				return pool, nil
			}
			pool.Close()
		}
		lastErr = errPool

		if attempt == attempts {
			break
		}
		log.WarnContext(ctx, "Database not ready, retrying",
			"attempt", attempt, "max_attempts", attempts, "delay", cfg.ConnectDelay, "error", errPool)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to database: %w", ctx.Err())
		case <-time.After(cfg.ConnectDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}
