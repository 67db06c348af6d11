package models

import "time"

// NotAvailable is stored for text fields that could not be read from a detail view.
const NotAvailable = "N/A"

// Lead is a single business listing extracted from a search feed.
// The pair (BusinessName, Address) identifies a lead; storage keeps at most one row per pair.
type Lead struct {
	ID           int64     `json:"id"`
	BusinessName string    `json:"business_name"`
	Industry     string    `json:"industry"` // Industry is the category the task searched for.
	Category     string    `json:"category"` // Category is the category shown on the listing itself.
	Location     string    `json:"location"`
	Address      string    `json:"address"`
	Rating       *float64  `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	IsClaimed    bool      `json:"is_claimed"`
	HasWebsite   bool      `json:"has_website"`
	WebsiteURL   *string   `json:"website_url"`
	Phone        *string   `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

// GeocodingLead is a stored lead that still needs coordinates.
type GeocodingLead struct {
	ID      int64  // ID is the lead row identifier.
	Address string // Address is the address to be geocoded.
}

// StoreOutcome reports what happened to a lead handed to storage.
type StoreOutcome string

const (
	StoreNew       StoreOutcome = "new"
	StoreDuplicate StoreOutcome = "duplicate"
)
