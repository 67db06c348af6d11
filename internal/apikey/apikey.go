// Package apikey issues API keys and guards requests with them.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/config"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/repository"
)

const (
	secretBytes   = 32
	displayPrefix = 12
)

var (
	ErrInvalidKey    = errors.New("invalid or expired api key")
	ErrKeyNotFound   = errors.New("api key not found")
	ErrUnknownTier   = errors.New("unknown tier")
	ErrQuotaExceeded = errors.New("monthly quota exceeded")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// Service manages API keys and their usage log.
type Service struct {
	store  repository.KeyStore
	prefix string
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a key service. Generated keys start with prefix.
func NewService(store repository.KeyStore, prefix string, log *slog.Logger) *Service {
	return &Service{store: store, prefix: prefix, log: log, now: time.Now}
}

// Generate returns a new plaintext key, its hash and its display prefix.
func Generate(prefix string) (string, string, string, error) {
	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", "", fmt.Errorf("failed to generate api key: %w", err)
	}

	key := prefix + hex.EncodeToString(secret)
	return key, Hash(key), key[:min(displayPrefix, len(key))], nil
}

// Hash is the stored form of a key.
func Hash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// CheckQuota reports whether a key with the given monthly limit may still be used
// after used leads this month.
func CheckQuota(limit, used int) bool {
	if limit == models.Unlimited {
		return true
	}
	return used < limit
}

// Create issues a key. The plaintext key is only ever part of the returned value.
// A positive expiresInDays sets an expiry; zero means the key never expires.
func (s *Service) Create(ctx context.Context, name, tierName string, expiresInDays int) (*models.CreatedKey, error) {
	tier, ok := config.LookupTier(tierName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTier, tierName)
	}

	plain, hash, prefix, err := Generate(s.prefix)
	if err != nil {
		return nil, err
	}

	key := &models.APIKey{
		Name:         name,
		KeyPrefix:    prefix,
		Tier:         tier.Name,
		MonthlyLimit: tier.MonthlyLimit,
		IsActive:     true,
	}
	if expiresInDays > 0 {
		expires := s.now().Add(time.Duration(expiresInDays) * 24 * time.Hour)
		key.ExpiresAt = &expires
	}

	if err = s.store.CreateAPIKey(ctx, key, hash); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "API key created", "id", key.ID, "name", name, "tier", tier.Name)

	return &models.CreatedKey{
		ID:           key.ID,
		Name:         key.Name,
		Key:          plain,
		KeyPrefix:    key.KeyPrefix,
		Tier:         key.Tier,
		MonthlyLimit: key.MonthlyLimit,
		CreatedAt:    key.CreatedAt,
		ExpiresAt:    key.ExpiresAt,
	}, nil
}

// Validate resolves a plaintext key. Unknown, inactive and expired keys are ErrInvalidKey.
func (s *Service) Validate(ctx context.Context, token string) (*models.KeyInfo, error) {
	if token == "" {
		return nil, ErrInvalidKey
	}

	key, err := s.store.GetAPIKeyByHash(ctx, Hash(token))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}

	if !key.IsActive {
		return nil, ErrInvalidKey
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(s.now()) {
		return nil, ErrInvalidKey
	}

	return &models.KeyInfo{ID: key.ID, Name: key.Name, Tier: key.Tier, MonthlyLimit: key.MonthlyLimit}, nil
}

// HasQuota reports whether the key may still be used this month.
func (s *Service) HasQuota(ctx context.Context, key *models.KeyInfo) (bool, error) {
	if key.MonthlyLimit == models.Unlimited {
		return true, nil
	}

	used, err := s.store.MonthlyLeads(ctx, key.ID)
	if err != nil {
		return false, err
	}

	return CheckQuota(key.MonthlyLimit, used), nil
}

// LogUsage appends a usage entry for the key.
func (s *Service) LogUsage(ctx context.Context, keyID int64, endpoint string, leads int) error {
	return s.store.LogUsage(ctx, keyID, endpoint, leads)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.APIKey, error) {
	key, err := s.store.GetAPIKey(ctx, id)
	return key, notFound(err)
}

func (s *Service) List(ctx context.Context) ([]models.APIKey, error) {
	return s.store.ListAPIKeys(ctx)
}

func (s *Service) Revoke(ctx context.Context, id int64) error {
	if err := notFound(s.store.RevokeAPIKey(ctx, id)); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "API key revoked", "id", id)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := notFound(s.store.DeleteAPIKey(ctx, id)); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "API key deleted", "id", id)
	return nil
}

func (s *Service) Usage(ctx context.Context, id int64) (*models.Usage, error) {
	usage, err := s.store.UsageStats(ctx, id)
	return usage, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrKeyNotFound
	}
	return err
}
