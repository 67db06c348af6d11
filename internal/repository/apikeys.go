package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/jackc/pgx/v5"
)

const apiKeyColumns = `id, name, key_prefix, tier, monthly_limit, is_active, created_at, expires_at`

// CreateAPIKey inserts a key by its hash and fills in the generated ID and CreatedAt.
func (r *Repository) CreateAPIKey(ctx context.Context, key *models.APIKey, keyHash string) error {
	query := `
		INSERT INTO api_keys (name, key_hash, key_prefix, tier, monthly_limit, is_active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at;
	`

	err := r.db.QueryRow(ctx, query,
		key.Name, keyHash, key.KeyPrefix, key.Tier, key.MonthlyLimit, key.IsActive, key.ExpiresAt,
	).Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}

	return nil
}

// GetAPIKeyByHash looks a key up by the hash of its secret.
func (r *Repository) GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1;`

	key, err := scanAPIKey(r.db.QueryRow(ctx, query, keyHash))
	if err != nil {
		return nil, fmt.Errorf("failed to get api key by hash: %w", err)
	}

	return key, nil
}

// GetAPIKey looks a key up by its ID.
func (r *Repository) GetAPIKey(ctx context.Context, id int64) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1;`

	key, err := scanAPIKey(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get api key %d: %w", id, err)
	}

	return key, nil
}

// ListAPIKeys returns all keys, newest first. Secrets and hashes are never selected.
func (r *Repository) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at DESC;`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var key models.APIKey
		if errScan := rows.Scan(
			&key.ID, &key.Name, &key.KeyPrefix, &key.Tier, &key.MonthlyLimit,
			&key.IsActive, &key.CreatedAt, &key.ExpiresAt,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", errScan)
		}
		keys = append(keys, key)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return keys, nil
}

// RevokeAPIKey deactivates a key. The key and its usage log stay in place.
func (r *Repository) RevokeAPIKey(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE api_keys SET is_active = FALSE WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to revoke api key %d: %w", id, ErrNotFound)
	}

	return nil
}

// DeleteAPIKey removes a key. Its usage log is removed by the foreign key cascade.
func (r *Repository) DeleteAPIKey(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM api_keys WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete api key %d: %w", id, ErrNotFound)
	}

	return nil
}

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	var key models.APIKey
	err := row.Scan(
		&key.ID, &key.Name, &key.KeyPrefix, &key.Tier, &key.MonthlyLimit,
		&key.IsActive, &key.CreatedAt, &key.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &key, nil
}
