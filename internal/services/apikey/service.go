package apikey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/repositories/cache"
	"kobopay/internal/utils"
)

// KeyPrefix identifies key material issued by this service.
const KeyPrefix = "kbp_"

// cacheTTL bounds how stale a cached key record may be. Revocation takes
// effect within this window at worst; the cache entry is also dropped
// eagerly on revoke.
const cacheTTL = 5 * time.Minute

// expiryPeriods maps the client-facing expiry codes to durations.
var expiryPeriods = map[string]time.Duration{
	"1H": time.Hour,
	"1D": 24 * time.Hour,
	"1M": 30 * 24 * time.Hour,
	"1Y": 365 * 24 * time.Hour,
}

var validPermissions = map[string]bool{
	models.APIKeyPermissionRead:     true,
	models.APIKeyPermissionDeposit:  true,
	models.APIKeyPermissionTransfer: true,
	models.APIKeyPermissionAll:      true,
}

// Created is returned once at creation time and is the only moment the
// plaintext key exists outside the caller's hands.
type Created struct {
	Key       *models.APIKey
	Plaintext string
}

// Service manages API keys: issuance, listing, revocation, and resolving
// a presented key to its record.
type Service interface {
	Generate(ctx context.Context, userID uint, name string, permissions []string, expiry string) (*Created, error)
	List(ctx context.Context, userID uint) ([]models.APIKey, error)
	Revoke(ctx context.Context, userID uint, publicID string) error
	Resolve(ctx context.Context, rawKey string) (*models.APIKey, error)
}

type service struct {
	repo  repositories.APIKeyRepository
	cache *cache.CacheService
	now   func() time.Time
}

// NewService creates an API key service. cacheService is optional and
// only accelerates Resolve.
func NewService(repo repositories.APIKeyRepository, cacheService *cache.CacheService, now func() time.Time) Service {
	if repo == nil {
		panic("repo is required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, cache: cacheService, now: now}
}

func (s *service) Generate(ctx context.Context, userID uint, name string, permissions []string, expiry string) (*Created, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("key name is required")
	}
	period, ok := expiryPeriods[strings.ToUpper(expiry)]
	if !ok {
		return nil, ErrInvalidExpiry
	}
	if len(permissions) == 0 {
		permissions = []string{models.APIKeyPermissionRead}
	}
	for _, p := range permissions {
		if !validPermissions[p] {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, p)
		}
	}

	secret, err := utils.GenerateUniqueID(24)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	plaintext := KeyPrefix + secret

	perms := make([]interface{}, len(permissions))
	for i, p := range permissions {
		perms[i] = p
	}
	key := &models.APIKey{
		PublicID:    models.NewAPIKeyPublicID(),
		UserID:      userID,
		Name:        name,
		KeyHash:     hashKey(plaintext),
		Prefix:      plaintext[:len(KeyPrefix)+4],
		MaskedKey:   plaintext[:len(KeyPrefix)+4] + "..." + plaintext[len(plaintext)-4:],
		Permissions: models.NewJSON(map[string]interface{}{"permissions": perms}),
		IsActive:    true,
		ExpiresAt:   s.now().Add(period),
	}
	if err := s.repo.Create(key); err != nil {
		return nil, err
	}
	log.Printf("api key created user_id=%d key_id=%s", userID, key.PublicID)
	return &Created{Key: key, Plaintext: plaintext}, nil
}

func (s *service) List(ctx context.Context, userID uint) ([]models.APIKey, error) {
	return s.repo.ListForUser(userID)
}

func (s *service) Revoke(ctx context.Context, userID uint, publicID string) error {
	key, err := s.repo.GetByPublicID(publicID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrAPIKeyNotFound) {
			return ErrKeyNotFound
		}
		return err
	}
	if !key.IsActive {
		return nil
	}
	key.IsActive = false
	if err := s.repo.Update(key); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.cache.GenerateKey("apikey", "hash", key.KeyHash)); err != nil {
			log.Printf("failed to evict revoked api key from cache: %v", err)
		}
	}
	log.Printf("api key revoked user_id=%d key_id=%s", userID, publicID)
	return nil
}

// Resolve maps presented key material to its record. Expiry and
// permission checks belong to the principal, not here; Resolve only
// answers "which key is this".
func (s *service) Resolve(ctx context.Context, rawKey string) (*models.APIKey, error) {
	if !strings.HasPrefix(rawKey, KeyPrefix) {
		return nil, ErrInvalidKey
	}
	hash := hashKey(rawKey)

	if s.cache != nil {
		var cached models.APIKey
		hit, err := s.cache.Get(ctx, s.cache.GenerateKey("apikey", "hash", hash), &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	key, err := s.repo.GetByHash(hash)
	if err != nil {
		if errors.Is(err, repositories.ErrAPIKeyNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}

	now := s.now()
	key.LastUsedAt = &now
	if err := s.repo.Update(key); err != nil {
		log.Printf("failed to stamp api key last_used_at key_id=%s: %v", key.PublicID, err)
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, s.cache.GenerateKey("apikey", "hash", hash), key, cacheTTL); err != nil {
			log.Printf("failed to cache api key: %v", err)
		}
	}
	return key, nil
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
