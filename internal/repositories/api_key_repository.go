package repositories

import (
	"errors"
	"fmt"

	"kobopay/internal/models"

	"gorm.io/gorm"
)

// APIKeyRepository is the data access layer for API keys. Keys are looked
// up by the SHA-256 hash of the presented key material.
type APIKeyRepository interface {
	Create(key *models.APIKey) error
	GetByHash(keyHash string) (*models.APIKey, error)
	GetByPublicID(publicID string, userID uint) (*models.APIKey, error)
	ListForUser(userID uint) ([]models.APIKey, error)
	Update(key *models.APIKey) error
}

type apiKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(key *models.APIKey) error {
	if err := r.db.Create(key).Error; err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *apiKeyRepository) GetByHash(keyHash string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.Where("key_hash = ? AND is_active = ?", keyHash, true).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return &key, nil
}

func (r *apiKeyRepository) GetByPublicID(publicID string, userID uint) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return &key, nil
}

func (r *apiKeyRepository) ListForUser(userID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

func (r *apiKeyRepository) Update(key *models.APIKey) error {
	if err := r.db.Save(key).Error; err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}
	return nil
}
