package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func TestRegister_Contact(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		phone   string
		wantErr bool
	}{
		{name: "plain email", email: "ada@example.org"},
		{name: "plus address", email: "ada+food@example.co.uk"},
		{name: "missing at", email: "ada.example.org", wantErr: true},
		{name: "single letter tld", email: "ada@example.o", wantErr: true},
		{name: "space in local part", email: "a da@example.org", wantErr: true},
		{name: "uk mobile", email: "ada@example.org", phone: "07700 900123"},
		{name: "international with brackets", email: "ada@example.org", phone: "+44 (0)20-7946-0958"},
		{name: "too short phone", email: "ada@example.org", phone: "12345", wantErr: true},
		{name: "letters in phone", email: "ada@example.org", phone: "0770090012x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			v, err := f.registry.Register(context.Background(), model.Session{}, model.Volunteer{
				FirstName: "Ada",
				LastName:  "Lovelace",
				Email:     tt.email,
				Phone:     tt.phone,
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, v.ID)
		})
	}
}

func TestRegister_RequiredNames(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.Register(context.Background(), model.Session{}, model.Volunteer{
		FirstName: "  ",
		LastName:  "Lovelace",
		Email:     "ada@example.org",
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRegister_StampsAndTrims(t *testing.T) {
	f := newFixture(t)

	v, err := f.registry.Register(context.Background(), model.Session{ActorID: "admin-1"}, model.Volunteer{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     " ada@example.org ",
		Status:    model.VolunteerInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", v.FirstName)
	assert.Equal(t, "ada@example.org", v.Email)
	assert.Equal(t, model.VolunteerActive, v.Status)
	assert.Equal(t, "admin-1", v.LastModifiedBy)
	assert.Equal(t, fixedNow, v.LastModifiedDate)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.volunteer(t, "ada@example.org")

	_, err := f.registry.Register(ctx, model.Session{}, model.Volunteer{
		FirstName: "Another",
		LastName:  "Ada",
		Email:     "ada@example.org",
	})
	assert.ErrorIs(t, err, model.ErrConflict)

	all, err := f.registry.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.volunteer(t, "ada@example.org")

	updated, err := f.registry.Deactivate(ctx, model.Session{ActorID: "admin-2"}, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VolunteerInactive, updated.Status)
	assert.Equal(t, "admin-2", updated.LastModifiedBy)

	stored, err := f.registry.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VolunteerInactive, stored.Status)

	_, err = f.registry.Deactivate(ctx, model.Session{}, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateVolunteer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ada := f.volunteer(t, "ada@example.org")
	grace := f.volunteer(t, "grace@example.org")

	edited := *ada
	edited.Phone = "07700 900123"
	updated, err := f.registry.Update(ctx, model.Session{ActorID: "admin-1"}, edited)
	require.NoError(t, err)
	assert.Equal(t, "07700 900123", updated.Phone)

	taken := *ada
	taken.Email = grace.Email
	_, err = f.registry.Update(ctx, model.Session{}, taken)
	assert.ErrorIs(t, err, model.ErrConflict)

	badStatus := *ada
	badStatus.Status = "RETIRED"
	_, err = f.registry.Update(ctx, model.Session{}, badStatus)
	assert.ErrorIs(t, err, model.ErrValidation)

	missing := *ada
	missing.ID = "missing"
	_, err = f.registry.Update(ctx, model.Session{}, missing)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetByEmailAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := f.volunteer(t, "ada@example.org")

	found, err := f.registry.GetByEmail(ctx, "ada@example.org")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, v.ID, found.ID)

	none, err := f.registry.GetByEmail(ctx, "nobody@example.org")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, f.registry.Delete(ctx, v.ID))
	assert.ErrorIs(t, f.registry.Delete(ctx, v.ID), model.ErrNotFound)

	// The email is free again once the record is gone
	f.volunteer(t, "ada@example.org")
}
