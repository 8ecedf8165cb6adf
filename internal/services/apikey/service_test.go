package apikey

import (
	"context"
	"strings"
	"testing"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyRepo struct {
	keys   map[string]*models.APIKey // by public ID
	nextID uint
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{keys: map[string]*models.APIKey{}}
}

func (f *fakeKeyRepo) Create(key *models.APIKey) error {
	f.nextID++
	key.ID = f.nextID
	f.keys[key.PublicID] = key
	return nil
}

func (f *fakeKeyRepo) GetByHash(hash string) (*models.APIKey, error) {
	for _, k := range f.keys {
		if k.KeyHash == hash && k.IsActive {
			return k, nil
		}
	}
	return nil, repositories.ErrAPIKeyNotFound
}

func (f *fakeKeyRepo) GetByPublicID(publicID string, userID uint) (*models.APIKey, error) {
	k, ok := f.keys[publicID]
	if !ok || k.UserID != userID {
		return nil, repositories.ErrAPIKeyNotFound
	}
	return k, nil
}

func (f *fakeKeyRepo) ListForUser(userID uint) ([]models.APIKey, error) {
	var out []models.APIKey
	for _, k := range f.keys {
		if k.UserID == userID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (f *fakeKeyRepo) Update(key *models.APIKey) error {
	f.keys[key.PublicID] = key
	return nil
}

func fixedNow() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

func TestGenerate(t *testing.T) {
	svc := NewService(newFakeKeyRepo(), nil, fixedNow)

	created, err := svc.Generate(context.Background(), 1, "ci key", []string{"read", "transfer"}, "1D")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(created.Plaintext, KeyPrefix))
	assert.Len(t, created.Plaintext, len(KeyPrefix)+48)
	assert.Len(t, created.Key.KeyHash, 64)
	assert.NotContains(t, created.Key.MaskedKey, created.Plaintext[8:40], "mask must hide the secret")
	assert.Equal(t, fixedNow().Add(24*time.Hour), created.Key.ExpiresAt)
	assert.True(t, created.Key.HasPermission("read"))
	assert.True(t, created.Key.HasPermission("transfer"))
	assert.False(t, created.Key.HasPermission("deposit"))
}

func TestGenerateValidation(t *testing.T) {
	svc := NewService(newFakeKeyRepo(), nil, fixedNow)

	_, err := svc.Generate(context.Background(), 1, "", nil, "1D")
	assert.Error(t, err)

	_, err = svc.Generate(context.Background(), 1, "k", nil, "2W")
	assert.ErrorIs(t, err, ErrInvalidExpiry)

	_, err = svc.Generate(context.Background(), 1, "k", []string{"admin"}, "1D")
	assert.ErrorIs(t, err, ErrInvalidPermission)

	// Empty permissions default to read-only.
	created, err := svc.Generate(context.Background(), 1, "k", nil, "1h")
	require.NoError(t, err, "expiry codes are case-insensitive")
	assert.True(t, created.Key.HasPermission("read"))
	assert.False(t, created.Key.HasPermission("transfer"))
}

func TestResolveAndRevoke(t *testing.T) {
	repo := newFakeKeyRepo()
	svc := NewService(repo, nil, fixedNow)

	created, err := svc.Generate(context.Background(), 1, "k", []string{"all"}, "1Y")
	require.NoError(t, err)

	key, err := svc.Resolve(context.Background(), created.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, created.Key.PublicID, key.PublicID)
	require.NotNil(t, key.LastUsedAt)

	_, err = svc.Resolve(context.Background(), "kbp_definitelynotakey")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = svc.Resolve(context.Background(), "sk_wrong_prefix")
	assert.ErrorIs(t, err, ErrInvalidKey)

	require.NoError(t, svc.Revoke(context.Background(), 1, created.Key.PublicID))
	_, err = svc.Resolve(context.Background(), created.Plaintext)
	assert.ErrorIs(t, err, ErrInvalidKey, "revoked keys no longer resolve")

	// Revoking twice is a no-op; revoking someone else's key is not found.
	assert.NoError(t, svc.Revoke(context.Background(), 1, created.Key.PublicID))
	assert.ErrorIs(t, svc.Revoke(context.Background(), 2, created.Key.PublicID), ErrKeyNotFound)
}

func TestExpiredKeyStillResolvesButIsInvalid(t *testing.T) {
	repo := newFakeKeyRepo()
	svc := NewService(repo, nil, fixedNow)

	created, err := svc.Generate(context.Background(), 1, "k", []string{"read"}, "1H")
	require.NoError(t, err)

	// Resolution is identity lookup only; validity is the principal's job.
	key, err := svc.Resolve(context.Background(), created.Plaintext)
	require.NoError(t, err)

	later := fixedNow().Add(2 * time.Hour)
	assert.False(t, key.IsValid(later))
	p := &models.APIKeyPrincipal{Key: key, Now: later}
	assert.False(t, p.Can(models.CapabilityRead))
}
