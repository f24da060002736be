package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/db"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s()-]{10,}$`)
)

// VolunteerRegistry owns volunteer records, email uniqueness and the
// ACTIVE/INACTIVE lifecycle
type VolunteerRegistry struct {
	store  db.VolunteerStore
	logger *zap.Logger
	now    func() time.Time
}

// NewVolunteerRegistry creates a registry over the given store
func NewVolunteerRegistry(store db.VolunteerStore, logger *zap.Logger) *VolunteerRegistry {
	return &VolunteerRegistry{store: store, logger: logger, now: time.Now}
}

func validateContact(v *model.Volunteer) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	if !emailPattern.MatchString(v.Email) {
		return fmt.Errorf("%w: invalid email %q", model.ErrValidation, v.Email)
	}
	if v.Phone != "" && !phonePattern.MatchString(v.Phone) {
		return fmt.Errorf("%w: invalid phone %q", model.ErrValidation, v.Phone)
	}
	return nil
}

// Register validates and stores a new volunteer with status ACTIVE
func (r *VolunteerRegistry) Register(ctx context.Context, session model.Session, volunteer model.Volunteer) (*model.Volunteer, error) {
	volunteer.FirstName = strings.TrimSpace(volunteer.FirstName)
	volunteer.LastName = strings.TrimSpace(volunteer.LastName)
	volunteer.Email = strings.TrimSpace(volunteer.Email)
	volunteer.Phone = strings.TrimSpace(volunteer.Phone)

	if err := validateContact(&volunteer); err != nil {
		return nil, err
	}

	existing, err := r.store.FindVolunteerByEmail(ctx, volunteer.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s is already registered", model.ErrConflict, volunteer.Email)
	}

	volunteer.ID = uuid.New().String()
	volunteer.Status = model.VolunteerActive
	volunteer.LastModifiedBy = session.Actor()
	volunteer.LastModifiedDate = r.now()

	if err := r.store.InsertVolunteer(ctx, &volunteer); err != nil {
		return nil, fmt.Errorf("failed to insert volunteer: %w", err)
	}

	r.logger.Info("Volunteer registered",
		zap.String("volunteer_id", volunteer.ID),
		zap.String("email", volunteer.Email),
		zap.String("actor", session.Actor()))

	return &volunteer, nil
}

// Deactivate sets the volunteer's status to INACTIVE
func (r *VolunteerRegistry) Deactivate(ctx context.Context, session model.Session, volunteerID string) (*model.Volunteer, error) {
	volunteer, err := r.store.FindVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, err
	}

	volunteer.Status = model.VolunteerInactive
	volunteer.LastModifiedBy = session.Actor()
	volunteer.LastModifiedDate = r.now()
	if err := r.store.UpdateVolunteer(ctx, volunteer); err != nil {
		return nil, fmt.Errorf("failed to update volunteer: %w", err)
	}

	r.logger.Info("Volunteer deactivated",
		zap.String("volunteer_id", volunteerID),
		zap.String("actor", session.Actor()))

	return volunteer, nil
}

// Update overwrites a volunteer's details
func (r *VolunteerRegistry) Update(ctx context.Context, session model.Session, volunteer model.Volunteer) (*model.Volunteer, error) {
	if _, err := r.store.FindVolunteer(ctx, volunteer.ID); err != nil {
		return nil, err
	}
	if !volunteer.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown volunteer status %q", model.ErrValidation, volunteer.Status)
	}
	if err := validateContact(&volunteer); err != nil {
		return nil, err
	}

	other, err := r.store.FindVolunteerByEmail(ctx, volunteer.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if other != nil && other.ID != volunteer.ID {
		return nil, fmt.Errorf("%w: email %s is already registered", model.ErrConflict, volunteer.Email)
	}

	volunteer.LastModifiedBy = session.Actor()
	volunteer.LastModifiedDate = r.now()
	if err := r.store.UpdateVolunteer(ctx, &volunteer); err != nil {
		return nil, fmt.Errorf("failed to update volunteer: %w", err)
	}

	r.logger.Info("Volunteer updated",
		zap.String("volunteer_id", volunteer.ID),
		zap.String("actor", session.Actor()))

	return &volunteer, nil
}

// Get retrieves a volunteer
func (r *VolunteerRegistry) Get(ctx context.Context, volunteerID string) (*model.Volunteer, error) {
	return r.store.FindVolunteer(ctx, volunteerID)
}

// GetByEmail retrieves a volunteer by email, nil if none is registered
func (r *VolunteerRegistry) GetByEmail(ctx context.Context, email string) (*model.Volunteer, error) {
	return r.store.FindVolunteerByEmail(ctx, email)
}

// List retrieves all volunteers
func (r *VolunteerRegistry) List(ctx context.Context) ([]model.Volunteer, error) {
	volunteers, err := r.store.ListVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	return volunteers, nil
}

// Delete removes a volunteer. Attendance and timesheets referencing the id
// are left as they are.
func (r *VolunteerRegistry) Delete(ctx context.Context, volunteerID string) error {
	deleted, err := r.store.DeleteVolunteer(ctx, volunteerID)
	if err != nil {
		return fmt.Errorf("failed to delete volunteer: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: volunteer %s", model.ErrNotFound, volunteerID)
	}

	r.logger.Info("Volunteer deleted", zap.String("volunteer_id", volunteerID))
	return nil
}
