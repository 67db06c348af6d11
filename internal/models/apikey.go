package models

import "time"

// APIKey is a stored API key. The plaintext secret is never part of it.
type APIKey struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	KeyPrefix    string     `json:"key_prefix"`
	Tier         string     `json:"tier"`
	MonthlyLimit int        `json:"monthly_limit"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// CreatedKey is returned once, when a key is created. Key holds the plaintext secret.
type CreatedKey struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Key          string     `json:"key"`
	KeyPrefix    string     `json:"key_prefix"`
	Tier         string     `json:"tier"`
	MonthlyLimit int        `json:"monthly_limit"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// KeyInfo is what an authenticated caller carries through a request.
type KeyInfo struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Tier         string `json:"tier"`
	MonthlyLimit int    `json:"monthly_limit"`
}

// Usage summarises the usage log of a single key.
// Remaining is Unlimited when the key has no monthly limit.
type Usage struct {
	APIKeyID      int64 `json:"api_key_id"`
	TotalRequests int   `json:"total_requests"`
	TotalLeads    int   `json:"total_leads"`
	MonthlyLeads  int   `json:"monthly_leads"`
	MonthlyLimit  int   `json:"monthly_limit"`
	Remaining     int   `json:"remaining_quota"`
}
