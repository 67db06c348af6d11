// Package export renders stored leads as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/models"
)

// Header lists the exported columns in order.
var Header = []string{
	"id", "business_name", "industry", "category", "location", "address", "rating",
	"review_count", "is_claimed", "has_website", "website_url", "phone", "created_at",
}

// WriteCSV writes a header row followed by one row per lead. Missing optional values are empty cells.
func WriteCSV(w io.Writer, leads []models.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, lead := range leads {
		if err := cw.Write(record(lead)); err != nil {
			return fmt.Errorf("failed to write lead %d: %w", lead.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteFile writes the CSV export to path, replacing any existing file.
func WriteFile(path string, leads []models.Lead) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err = WriteCSV(f, leads); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

func record(lead models.Lead) []string {
	rating := ""
	if lead.Rating != nil {
		rating = strconv.FormatFloat(*lead.Rating, 'f', -1, 64)
	}

	return []string{
		strconv.FormatInt(lead.ID, 10),
		lead.BusinessName,
		lead.Industry,
		lead.Category,
		lead.Location,
		lead.Address,
		rating,
		strconv.Itoa(lead.ReviewCount),
		strconv.FormatBool(lead.IsClaimed),
		strconv.FormatBool(lead.HasWebsite),
		deref(lead.WebsiteURL),
		deref(lead.Phone),
		lead.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
