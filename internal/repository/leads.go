package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/jackc/pgx/v5"
)

// InsertLead stores a lead unless a lead with the same business name and address exists.
// The uniqueness constraint on the leads table decides; a conflict is reported as
// models.StoreDuplicate, not as an error. On insert the lead's ID and CreatedAt are set.
func (r *Repository) InsertLead(ctx context.Context, lead *models.Lead) (models.StoreOutcome, error) {
	query := `
		INSERT INTO leads (
			business_name, industry, category, location, address,
			rating, review_count, is_claimed,
			has_website, website_url, phone
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (business_name, address) DO NOTHING
		RETURNING id, created_at;
	`

	err := r.db.QueryRow(ctx, query,
		lead.BusinessName, lead.Industry, lead.Category, lead.Location, lead.Address,
		lead.Rating, lead.ReviewCount, lead.IsClaimed,
		lead.HasWebsite, lead.WebsiteURL, lead.Phone,
	).Scan(&lead.ID, &lead.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		r.log.DebugContext(ctx, "Lead already stored", "name", lead.BusinessName, "address", lead.Address)
		return models.StoreDuplicate, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to insert lead: %w", err)
	}

	return models.StoreNew, nil
}

// ListLeads returns every stored lead, newest first.
func (r *Repository) ListLeads(ctx context.Context) ([]models.Lead, error) {
	query := `
		SELECT id, business_name, industry, category, location, address,
			rating, review_count, is_claimed, has_website, website_url, phone, created_at
		FROM leads
		ORDER BY created_at DESC, id DESC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var lead models.Lead
		if errScan := rows.Scan(
			&lead.ID, &lead.BusinessName, &lead.Industry, &lead.Category, &lead.Location, &lead.Address,
			&lead.Rating, &lead.ReviewCount, &lead.IsClaimed, &lead.HasWebsite, &lead.WebsiteURL,
			&lead.Phone, &lead.CreatedAt,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", errScan)
		}
		leads = append(leads, lead)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return leads, nil
}

// FetchLeadsForGeocoding retrieves leads that still need coordinates.
// It returns leads with a NULL latitude, fewer than 5 geocoding attempts and a real address,
// oldest first, limited to the specified count.
func (r *Repository) FetchLeadsForGeocoding(ctx context.Context, limit int) ([]models.GeocodingLead, error) {
	query := `
		SELECT id, address
		FROM leads
		WHERE
			latitude IS NULL
			AND geocoding_attempts < 5
			AND address IS NOT NULL AND address <> '' AND address <> 'N/A'
		ORDER BY created_at ASC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads without coordinates: %w", err)
	}
	defer rows.Close()

	var leads []models.GeocodingLead
	for rows.Next() {
		var lead models.GeocodingLead
		if errScan := rows.Scan(&lead.ID, &lead.Address); errScan != nil {
			return nil, fmt.Errorf("failed to scan lead without coordinates: %w", errScan)
		}
		r.log.DebugContext(ctx, "A lead without coordinates has been received.",
			"ID", lead.ID, "Address", lead.Address)
		leads = append(leads, lead)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return leads, nil
}

// UpdateLeadCoordinates sets the coordinates of a lead and clears its geocoding error.
func (r *Repository) UpdateLeadCoordinates(ctx context.Context, leadID int64, coords models.Coordinates) error {
	query := `
		UPDATE leads
		SET
			latitude = $1,
			longitude = $2,
			geocoding_error = NULL
		WHERE
			id = $3;
	`

	_, err := r.db.Exec(ctx, query, coords.Latitude, coords.Longitude, leadID)
	if err != nil {
		return fmt.Errorf("failed to update lead coordinates: %w", err)
	}

	return nil
}

// IncrementFailureCount increments the geocoding attempt count of a lead
// and records the error message of the failed attempt.
func (r *Repository) IncrementFailureCount(ctx context.Context, leadID int64, errMsg string) error {
	query := `
		UPDATE leads
		SET
			geocoding_attempts = geocoding_attempts + 1,
			geocoding_error = $1
		WHERE id = $2;
	`

	_, err := r.db.Exec(ctx, query, errMsg, leadID)
	if err != nil {
		return fmt.Errorf("failed to update geocoding error and number of attempts: %w", err)
	}

	return nil
}
