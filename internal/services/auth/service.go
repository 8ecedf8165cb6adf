package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service handles account registration and credential-based
// authentication. Tokens are versioned per user; bumping the version
// invalidates every token issued before the bump.
type Service interface {
	Register(email, password, name string) (*models.User, error)
	Login(email, password string) (*models.User, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(userID uint) error
	ChangePassword(userID uint, oldPassword, newPassword string) error
	GetUserByID(userID uint) (*models.User, error)
	GetUserTokenVersion(userID uint) (int, error)
}

type service struct {
	users repositories.UserRepository
}

func NewService(users repositories.UserRepository) Service {
	if users == nil {
		panic("user repository is required")
	}
	return &service{users: users}
}

func (s *service) Register(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("valid email is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Password:     string(hashed),
		Name:         strings.TrimSpace(name),
		Role:         "user",
		Status:       "active",
		TokenVersion: 1,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		// The repository wraps driver errors; a duplicate email may also
		// surface through the wrapped chain.
		if strings.Contains(err.Error(), "duplicate") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	log.Printf("user registered user_id=%d", user.ID)
	return user, nil
}

func (s *service) Login(email, password string) (*models.User, string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	if user.Status != "active" {
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := issueTokens(user)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if claims.TokenVersion != user.TokenVersion {
		return "", "", ErrInvalidCredentials
	}

	return issueTokens(user)
}

func issueTokens(user *models.User) (string, string, error) {
	access, refresh, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to issue tokens: %w", err)
	}
	return access, refresh, nil
}

// Logout bumps the user's token version so every outstanding token stops
// validating.
func (s *service) Logout(userID uint) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	user.TokenVersion++
	return s.users.Update(user)
}

func (s *service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return errors.New("current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	user.TokenVersion++ // sign out every other session
	return s.users.Update(user)
}

func (s *service) GetUserByID(userID uint) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *service) GetUserTokenVersion(userID uint) (int, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

func validatePassword(password string) error {
	if len(password) < 8 || !utils.HasSpecialChar(password) {
		return ErrWeakPassword
	}
	return nil
}
