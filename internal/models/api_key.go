package models

import (
	"time"

	"github.com/google/uuid"
)

// API key permissions
const (
	APIKeyPermissionRead     = "read"
	APIKeyPermissionDeposit  = "deposit"
	APIKeyPermissionTransfer = "transfer"
	APIKeyPermissionAll      = "all"
)

// APIKey grants programmatic access scoped to a permission list. Only a
// SHA-256 hash of the key material is stored; the plaintext is shown once
// at creation.
type APIKey struct {
	ID          uint      `gorm:"primarykey"`
	PublicID    string    `gorm:"size:36;uniqueIndex;not null"`
	UserID      uint      `gorm:"not null;index:idx_api_keys_user_active,priority:1"`
	Name        string    `gorm:"size:100;not null"`
	KeyHash     string    `gorm:"size:64;uniqueIndex;not null"`
	Prefix      string    `gorm:"size:20;not null"`
	MaskedKey   string    `gorm:"size:30;not null"`
	Permissions JSON      `gorm:"type:jsonb"`
	IsActive    bool      `gorm:"not null;default:true;index:idx_api_keys_user_active,priority:2"`
	ExpiresAt   time.Time `gorm:"not null;index"`
	LastUsedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewAPIKeyPublicID returns a fresh UUID string for an API key.
func NewAPIKeyPublicID() string { return uuid.NewString() }

// IsExpired checks the key against the given time.
func (k *APIKey) IsExpired(now time.Time) bool { return now.After(k.ExpiresAt) }

// IsValid reports whether the key is active and unexpired.
func (k *APIKey) IsValid(now time.Time) bool { return k.IsActive && !k.IsExpired(now) }

// PermissionList returns the permissions as strings.
func (k *APIKey) PermissionList() []string {
	raw, ok := k.Permissions["permissions"]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// HasPermission checks whether the key grants a permission. The "all"
// permission grants everything.
func (k *APIKey) HasPermission(permission string) bool {
	for _, p := range k.PermissionList() {
		if p == APIKeyPermissionAll || p == permission {
			return true
		}
	}
	return false
}
