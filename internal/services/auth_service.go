package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/scdri/backend/internal/config"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errInvalidCredentials = newError(ErrUnauthorized, "invalid CPF or password")
	errInvalidToken       = newError(ErrUnauthorized, "invalid or expired refresh token")
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	cpf := NormalizeCPF(req.CPF)
	if !ValidCPF(cpf) {
		return nil, validationFailed("invalid CPF")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("cpf = ?", cpf).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check CPF: %w", err)
	}
	if count > 0 {
		return nil, conflict("CPF already registered")
	}
	if err := db.Model(&models.User{}).Where("name_key = ?", NameKey(name)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}
	if count > 0 {
		return nil, conflict("name already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Name:     name,
		NameKey:  NameKey(name),
		CPF:      cpf,
		Password: string(hash),
		Role:     models.RoleCitizen,
	}
	if err := db.Create(&user).Error; err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("CPF or name already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID.String())
	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("cpf = ?", NormalizeCPF(req.CPF)).First(&user).Error; err != nil {
		return nil, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	if user.IsBanned {
		reason := "no reason given"
		if user.BannedReason != nil {
			reason = *user.BannedReason
		}
		return nil, forbidden("user is banned: %s", reason)
	}

	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	db := s.db.WithContext(ctx)
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, errInvalidToken
	}

	db.Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, errInvalidToken
	}

	var user models.User
	if err := db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, errInvalidToken
	}
	if user.IsBanned {
		return nil, forbidden("user is banned")
	}

	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

// revokeAll invalidates every refresh token of userID.
func revokeAll(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.NewUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"name": user.Name,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
