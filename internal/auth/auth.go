// Package auth issues and verifies the bearer tokens of API users.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loaneye/internal/models"
)

type Claims struct {
	UserID   uint
	Username string
	Role     models.Role
	jwt.StandardClaims
}

type Service struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewService(db *gorm.DB, secret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "loaneye",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies an HS256 token and returns its claims.
func (s *Service) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Login checks the credentials and returns a signed token for the user.
func (s *Service) Login(username, password string) (string, *models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, models.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.CheckPassword(password) {
		return "", nil, models.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, models.ErrUserInactive
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.logger.Info("user logged in", zap.String("username", user.Username))
	return token, &user, nil
}

// User loads an account by id.
func (s *Service) User(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser stores a new active account.
func (s *Service) CreateUser(username, password string, role models.Role) (*models.User, error) {
	user := &models.User{Username: username, Role: role, IsActive: true}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// SeedAdmin creates the admin account unless a user with that name exists.
func (s *Service) SeedAdmin(username, password string) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := s.CreateUser(username, password, models.RoleAdmin); err != nil {
		return err
	}
	s.logger.Info("admin account created", zap.String("username", username))
	return nil
}
