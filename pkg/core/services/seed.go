package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/db"
)

// AdminSeed describes the default administrator account
type AdminSeed struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// SeedDefaultAdmin creates the default SUPER_ADMIN account unless an account
// with the same username already exists. It is safe to run on every start-up.
// The returned bool reports whether an account was created.
func SeedDefaultAdmin(ctx context.Context, store db.AdminStore, logger *zap.Logger, seed AdminSeed) (*model.Admin, bool, error) {
	if seed.Username == "" || seed.Password == "" {
		return nil, false, fmt.Errorf("%w: admin seed needs a username and password", model.ErrValidation)
	}

	existing, err := store.FindAdminByUsername(ctx, seed.Username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}
	if existing != nil {
		logger.Debug("Default admin already present", zap.String("username", seed.Username))
		return existing, false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.Admin{
		ID:           uuid.New().String(),
		Username:     seed.Username,
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		Email:        seed.Email,
		PasswordHash: string(hash),
		Role:         model.RoleSuperAdmin,
		CreatedDate:  time.Now(),
	}
	if err := store.InsertAdmin(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("failed to insert admin: %w", err)
	}

	logger.Info("Default admin created", zap.String("admin_id", admin.ID), zap.String("username", admin.Username))
	return admin, true, nil
}

// CheckAdminPassword reports whether password matches the admin's stored hash
func CheckAdminPassword(admin *model.Admin, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil
}
