package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/internal/config"
	"github.com/jakechorley/volunteer-hours/pkg/api"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
)

const periodRunTimeout = 5 * time.Minute

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled period timesheet generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Cfg.API.Addr
			}
			if addr == "" {
				addr = config.DefaultAPIAddr
			}

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, _, err := services.SeedDefaultAdmin(ctx, app.Database, app.Logger, app.AdminSeed()); err != nil {
				return fmt.Errorf("failed to seed administrator: %w", err)
			}

			scheduler, err := startPeriodScheduler(ctx, app)
			if err != nil {
				return err
			}
			if scheduler != nil {
				defer func() {
					<-scheduler.Stop().Done()
					app.Logger.Info("Period scheduler stopped")
				}()
			}

			server := api.NewServer(api.Services{
				Tracker:  app.Tracker,
				Accrual:  app.Accrual,
				Ledger:   app.Ledger,
				Registry: app.Volunteers,
				Admins:   app.Database,
			}, app.Registry, app.Logger)

			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (defaults to api.addr from config)")

	return cmd
}

// startPeriodScheduler runs period timesheet generation on the configured
// cron schedule. It returns nil when no schedule is configured.
func startPeriodScheduler(ctx context.Context, app *AppContext) (*cron.Cron, error) {
	if app.Cfg.Reporting == nil || app.Cfg.Reporting.Schedule == "" {
		app.Logger.Info("No reporting schedule configured, period timesheets must be generated manually")
		return nil, nil
	}

	runner := app.PeriodRunner()
	session := app.Session()
	logger := cronLogger{app.Logger}

	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	_, err := c.AddFunc(app.Cfg.Reporting.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, periodRunTimeout)
		defer cancel()

		result, err := runner.Run(runCtx, session)
		if err != nil {
			app.Logger.Error("Scheduled period generation failed", zap.Error(err))
			return
		}
		app.Logger.Info("Scheduled period generation finished",
			zap.String("period", result.Period.String()),
			zap.Int("submitted", len(result.Submitted)))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule period generation: %w", err)
	}

	c.Start()
	app.Logger.Info("Period scheduler started", zap.String("schedule", app.Cfg.Reporting.Schedule))
	return c, nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
