package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/memstore"
)

func TestSeedDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewDB()
	seed := AdminSeed{
		Username:  "admin",
		FirstName: "Site",
		LastName:  "Admin",
		Email:     "admin@example.org",
		Password:  "correct horse",
	}

	admin, created, err := SeedDefaultAdmin(ctx, store, zap.NewNop(), seed)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleSuperAdmin, admin.Role)
	assert.NotEqual(t, seed.Password, admin.PasswordHash)
	assert.True(t, CheckAdminPassword(admin, "correct horse"))
	assert.False(t, CheckAdminPassword(admin, "wrong horse"))

	seed.Password = "a different password"
	again, created, err := SeedDefaultAdmin(ctx, store, zap.NewNop(), seed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
	assert.True(t, CheckAdminPassword(again, "correct horse"))
}

func TestSeedDefaultAdmin_RequiresCredentials(t *testing.T) {
	store := memstore.NewDB()

	_, _, err := SeedDefaultAdmin(context.Background(), store, zap.NewNop(), AdminSeed{Username: "admin"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, _, err = SeedDefaultAdmin(context.Background(), store, zap.NewNop(), AdminSeed{Password: "secret123"})
	assert.ErrorIs(t, err, model.ErrValidation)
}
