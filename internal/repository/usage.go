package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/jackc/pgx/v5"
)

// LogUsage appends a usage entry for a key.
func (r *Repository) LogUsage(ctx context.Context, keyID int64, endpoint string, leads int) error {
	query := `
		INSERT INTO usage_logs (api_key_id, endpoint, leads_scraped)
		VALUES ($1, $2, $3);
	`

	if _, err := r.db.Exec(ctx, query, keyID, endpoint, leads); err != nil {
		return fmt.Errorf("failed to log usage: %w", err)
	}

	return nil
}

// MonthlyLeads sums the leads logged for a key since the start of the current calendar month.
func (r *Repository) MonthlyLeads(ctx context.Context, keyID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(leads_scraped), 0)
		FROM usage_logs
		WHERE api_key_id = $1
			AND created_at >= date_trunc('month', CURRENT_TIMESTAMP);
	`

	var total int
	if err := r.db.QueryRow(ctx, query, keyID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum monthly leads: %w", err)
	}

	return total, nil
}

// UsageStats summarises the usage log of a key. Remaining is models.Unlimited for keys
// without a monthly limit and never negative otherwise.
func (r *Repository) UsageStats(ctx context.Context, keyID int64) (*models.Usage, error) {
	query := `
		SELECT
			k.monthly_limit,
			COUNT(u.id),
			COALESCE(SUM(u.leads_scraped), 0),
			COALESCE(SUM(u.leads_scraped) FILTER (
				WHERE u.created_at >= date_trunc('month', CURRENT_TIMESTAMP)
			), 0)
		FROM api_keys k
		LEFT JOIN usage_logs u ON u.api_key_id = k.id
		WHERE k.id = $1
		GROUP BY k.monthly_limit;
	`

	usage := models.Usage{APIKeyID: keyID}
	err := r.db.QueryRow(ctx, query, keyID).Scan(
		&usage.MonthlyLimit, &usage.TotalRequests, &usage.TotalLeads, &usage.MonthlyLeads,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get usage of api key %d: %w", keyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	if usage.MonthlyLimit == models.Unlimited {
		usage.Remaining = models.Unlimited
	} else {
		usage.Remaining = max(usage.MonthlyLimit-usage.MonthlyLeads, 0)
	}

	return &usage, nil
}
