package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBanReason = "Violacao dos termos de uso"

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := NameKey(name)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("name_key = ? AND id <> ?", key, id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}
	if count > 0 {
		return nil, conflict("name already in use")
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{"name": name, "name_key": key}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("name already in use")
		}
		return nil, fmt.Errorf("failed to update name: %w", err)
	}
	user.Name, user.NameKey = name, key
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return newError(ErrUnauthorized, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password", string(hash)).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return revokeAll(tx, user.ID)
	})
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Ban blocks a citizen from logging in and submitting. Sessions already
// issued lose their refresh tokens.
func (s *UserService) Ban(ctx context.Context, admin Actor, targetID uuid.UUID, reason string) (*models.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if admin.ID == targetID {
		return nil, invalidArgument("you cannot ban yourself")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultBanReason
	}
	if r := []rune(reason); len(r) > MaxRejectReason {
		reason = string(r[:MaxRejectReason])
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, targetID, &user); err != nil {
			return err
		}
		if user.IsAdmin() {
			return forbidden("admins cannot be banned")
		}
		if user.IsBanned {
			return conflict("user is already banned")
		}

		now := time.Now()
		err := tx.Model(&user).Updates(map[string]any{
			"is_banned":     true,
			"banned_reason": reason,
			"banned_at":     now,
			"ban_count":     gorm.Expr("ban_count + 1"),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to ban user: %w", err)
		}
		if err := revokeAll(tx, user.ID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return tx.First(&user, "id = ?", user.ID).Error
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user banned", "user_id", user.ID.String(), "admin_id", admin.ID.String())
	return &user, nil
}

func (s *UserService) Unban(ctx context.Context, admin Actor, targetID uuid.UUID) (*models.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, targetID, &user); err != nil {
			return err
		}
		if user.IsAdmin() {
			return forbidden("admins cannot be unbanned")
		}
		if !user.IsBanned {
			return conflict("user is not banned")
		}

		err := tx.Model(&user).Updates(map[string]any{
			"is_banned":     false,
			"banned_reason": nil,
			"banned_at":     nil,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to unban user: %w", err)
		}
		return tx.First(&user, "id = ?", user.ID).Error
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user unbanned", "user_id", user.ID.String(), "admin_id", admin.ID.String())
	return &user, nil
}

func lockUser(tx *gorm.DB, id uuid.UUID, dst *models.User) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dst, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	return nil
}
