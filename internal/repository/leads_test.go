package repository_test

import (
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertLeadQuery = `
	INSERT INTO leads (
		business_name, industry, category, location, address,
		rating, review_count, is_claimed,
		has_website, website_url, phone
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (business_name, address) DO NOTHING
	RETURNING id, created_at;
`

func newLead() *models.Lead {
	rating := 4.6
	website := "https://crumbs.example"
	phone := "+1 416-555-0199"
	return &models.Lead{
		BusinessName: "Crumbs Bakery",
		Industry:     "bakery",
		Category:     "Bakery",
		Location:     "Toronto",
		Address:      "12 King St W, Toronto",
		Rating:       &rating,
		ReviewCount:  1200,
		IsClaimed:    true,
		HasWebsite:   true,
		WebsiteURL:   &website,
		Phone:        &phone,
	}
}

func leadArgs(lead *models.Lead) []any {
	return []any{
		lead.BusinessName, lead.Industry, lead.Category, lead.Location, lead.Address,
		lead.Rating, lead.ReviewCount, lead.IsClaimed,
		lead.HasWebsite, lead.WebsiteURL, lead.Phone,
	}
}

func TestInsertLead(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("error - insert lead", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		lead := newLead()

		mock.ExpectQuery(regexp.QuoteMeta(insertLeadQuery)).
			WithArgs(leadArgs(lead)...).
			WillReturnError(assert.AnError)

		outcome, err := repo.InsertLead(ctx, lead)

		require.Error(t, err)
		require.Empty(t, outcome)
		require.ErrorContains(t, err, "failed to insert lead")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - new lead", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		lead := newLead()
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(insertLeadQuery)).
			WithArgs(leadArgs(lead)...).
			WillReturnRows(mock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

		outcome, err := repo.InsertLead(ctx, lead)

		require.NoError(t, err)
		assert.Equal(t, models.StoreNew, outcome)
		assert.Equal(t, int64(7), lead.ID)
		assert.Equal(t, now, lead.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - second identical lead is a duplicate", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		first := newLead()
		second := newLead()

		mock.ExpectQuery(regexp.QuoteMeta(insertLeadQuery)).
			WithArgs(leadArgs(first)...).
			WillReturnRows(mock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
		mock.ExpectQuery(regexp.QuoteMeta(insertLeadQuery)).
			WithArgs(leadArgs(second)...).
			WillReturnRows(mock.NewRows([]string{"id", "created_at"}))

		outcome, err := repo.InsertLead(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, models.StoreNew, outcome)

		outcome, err = repo.InsertLead(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, models.StoreDuplicate, outcome)
		assert.Zero(t, second.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListLeads(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	query := `
		SELECT id, business_name, industry, category, location, address,
			rating, review_count, is_claimed, has_website, website_url, phone, created_at
		FROM leads
		ORDER BY created_at DESC, id DESC;
	`
	columns := []string{
		"id", "business_name", "industry", "category", "location", "address",
		"rating", "review_count", "is_claimed", "has_website", "website_url", "phone", "created_at",
	}

	t.Run("error - query leads", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnError(assert.AnError)

		leads, err := repo.ListLeads(ctx)

		require.Nil(t, leads)
		require.ErrorContains(t, err, "failed to query leads")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan lead", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(1)))

		leads, err := repo.ListLeads(ctx)

		require.Nil(t, leads)
		require.ErrorContains(t, err, "failed to scan lead")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		lead := newLead()

		rows := mock.NewRows(columns).
			AddRow(int64(1), lead.BusinessName, lead.Industry, lead.Category, lead.Location, lead.Address,
				lead.Rating, lead.ReviewCount, lead.IsClaimed, lead.HasWebsite, lead.WebsiteURL, lead.Phone,
				time.Now()).
			RowError(0, assert.AnError)
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows)

		leads, err := repo.ListLeads(ctx)

		require.Nil(t, leads)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - list leads", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)
		lead := newLead()
		now := time.Now()

		rows := mock.NewRows(columns).
			AddRow(int64(2), lead.BusinessName, lead.Industry, lead.Category, lead.Location, lead.Address,
				lead.Rating, lead.ReviewCount, lead.IsClaimed, lead.HasWebsite, lead.WebsiteURL, lead.Phone, now).
			AddRow(int64(1), "Second Bakery", "bakery", "Bakery", "Toronto", "N/A",
				lead.Rating, 0, false, false, lead.WebsiteURL, lead.Phone, now)
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows)

		leads, err := repo.ListLeads(ctx)

		require.NoError(t, err)
		require.Len(t, leads, 2)
		assert.Equal(t, "Crumbs Bakery", leads[0].BusinessName)
		assert.InDelta(t, 4.6, *leads[0].Rating, 0.001)
		assert.Equal(t, "N/A", leads[1].Address)
		assert.False(t, leads[1].IsClaimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFetchLeadsForGeocoding(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	limit := 10
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

	t.Run("error - query leads", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(limit).WillReturnError(assert.AnError)

		leads, err := repo.FetchLeadsForGeocoding(ctx, limit)

		require.Nil(t, leads)
		require.ErrorContains(t, err, "failed to query leads without coordinates")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan lead", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(limit).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(1)))

		leads, err := repo.FetchLeadsForGeocoding(ctx, limit)

		require.Nil(t, leads)
		require.ErrorContains(t, err, "failed to scan lead without coordinates")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - fetch leads", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(limit).
			WillReturnRows(mock.NewRows([]string{"id", "address"}).
				AddRow(int64(1), "12 King St W, Toronto").
				AddRow(int64(2), "1 Yonge St, Toronto"))

		leads, err := repo.FetchLeadsForGeocoding(ctx, limit)

		require.NoError(t, err)
		assert.Equal(t, []models.GeocodingLead{
			{ID: 1, Address: "12 King St W, Toronto"},
			{ID: 2, Address: "1 Yonge St, Toronto"},
		}, leads)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateLeadCoordinates(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	leadID := int64(123)
	coords := models.Coordinates{Latitude: 43.6487, Longitude: -79.3817}
	query := `
		UPDATE leads
		SET
			latitude = $1,
			longitude = $2,
			geocoding_error = NULL
		WHERE
			id = $3;
	`

	t.Run("error - update lead coords", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(coords.Latitude, coords.Longitude, leadID).
			WillReturnError(assert.AnError)

		err = repo.UpdateLeadCoordinates(ctx, leadID, coords)

		require.ErrorContains(t, err, "failed to update lead coordinates")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - update lead coords", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(coords.Latitude, coords.Longitude, leadID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.UpdateLeadCoordinates(ctx, leadID, coords)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIncrementFailureCount(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	leadID := int64(123)
	query := `
		UPDATE leads
		SET
			geocoding_attempts = geocoding_attempts + 1,
			geocoding_error = $1
		WHERE id = $2;
	`

	t.Run("error - increment failure count", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("error", leadID).
			WillReturnError(assert.AnError)

		err = repo.IncrementFailureCount(ctx, leadID, "error")

		require.ErrorContains(t, err, "failed to update geocoding error and number of attempts")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - increment failure count", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("error", leadID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.IncrementFailureCount(ctx, leadID, "error")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
