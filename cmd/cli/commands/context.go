package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/internal/config"
	"github.com/jakechorley/volunteer-hours/pkg/clients/sheetsclient"
	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
	"github.com/jakechorley/volunteer-hours/pkg/db"
	"github.com/jakechorley/volunteer-hours/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands.
// main fills the infrastructure fields, then Wire builds the services on top.
type AppContext struct {
	Ctx      context.Context
	Env      string
	Actor    string
	Cfg      *config.Config
	Database db.Database
	Logger   *zap.Logger
	Notifier services.Notifier
	// Registry collects the core metrics and is served on /metrics
	Registry *prometheus.Registry
	// TokenSource authorises Google API clients; nil when no OAuth client file is present
	TokenSource *utils.TokenSource

	Metrics    *services.Metrics
	Ledger     *services.CapacityLedger
	Accrual    *services.AccrualEngine
	Tracker    *services.AttendanceTracker
	Volunteers *services.VolunteerRegistry

	sheetsOnce   sync.Once
	sheetsClient *sheetsclient.Client
	sheetsErr    error
}

// Wire creates the core services over the configured store and notifier
func (app *AppContext) Wire() error {
	if app.Registry == nil {
		app.Registry = prometheus.NewRegistry()
	}

	metrics, err := services.NewMetrics(app.Registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	app.Metrics = metrics

	locks := services.NewLocks()
	app.Ledger = services.NewCapacityLedger(app.Database, locks, app.Logger)
	app.Accrual = services.NewAccrualEngine(app.Database, locks, app.Notifier, metrics, app.Logger)
	app.Tracker = services.NewAttendanceTracker(app.Database, app.Ledger, app.Accrual, locks, app.Notifier, metrics, app.Logger)
	app.Volunteers = services.NewVolunteerRegistry(app.Database, app.Logger)
	return nil
}

// Session is the explicit actor passed into audit-stamping operations
func (app *AppContext) Session() model.Session {
	return model.Session{ActorID: app.Actor}
}

// AdminID resolves the --actor flag to an administrator account id, falling
// back to the configured default administrator
func (app *AppContext) AdminID(ctx context.Context) (string, error) {
	username := app.Actor
	if username == "" {
		username = app.Cfg.Admin.Username
	}
	if username == "" {
		return "", fmt.Errorf("%w: --actor must name an administrator", model.ErrValidation)
	}

	admin, err := app.Database.FindAdminByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to look up administrator: %w", err)
	}
	if admin == nil {
		return "", fmt.Errorf("%w: administrator %q (run seedAdmin first)", model.ErrNotFound, username)
	}
	return admin.ID, nil
}

// AdminSeed builds the default administrator from configuration
func (app *AppContext) AdminSeed() services.AdminSeed {
	return services.AdminSeed{
		Username:  app.Cfg.Admin.Username,
		FirstName: app.Cfg.Admin.FirstName,
		LastName:  app.Cfg.Admin.LastName,
		Email:     app.Cfg.Admin.Email,
		Password:  app.Cfg.Admin.Password,
	}
}

// PeriodRunner returns a runner for the configured reporting period.
// Run fails with services.ErrReportingNotConfigured when none is set.
func (app *AppContext) PeriodRunner() *services.PeriodRunner {
	runner := &services.PeriodRunner{
		Engine:     app.Accrual,
		Volunteers: app.Volunteers,
		Logger:     app.Logger,
	}
	if app.Cfg.Reporting != nil {
		runner.Rule = app.Cfg.Reporting.PeriodRule
		runner.PeriodDays = app.Cfg.Reporting.PeriodDays
	}
	return runner
}

// SheetsConfig returns the sheets section or an error naming the missing configuration
func (app *AppContext) SheetsConfig() (*config.SheetsConfig, error) {
	if app.Cfg.Sheets == nil {
		return nil, fmt.Errorf("%w: sheets are not configured", model.ErrValidation)
	}
	return app.Cfg.Sheets, nil
}

// SheetsClient creates the Google Sheets client on first use, running the
// OAuth flow if no stored token is usable
func (app *AppContext) SheetsClient(ctx context.Context) (*sheetsclient.Client, error) {
	app.sheetsOnce.Do(func() {
		if app.TokenSource == nil {
			app.sheetsErr = fmt.Errorf("%w: no oauth client file for environment %q", model.ErrValidation, app.Env)
			return
		}

		app.Logger.Info("Initializing sheets client")
		httpClient, err := app.TokenSource.HTTPClient(ctx)
		if err != nil {
			app.sheetsErr = err
			return
		}
		app.sheetsClient, app.sheetsErr = sheetsclient.NewClient(ctx, httpClient)
	})
	return app.sheetsClient, app.sheetsErr
}
