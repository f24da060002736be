package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/cmd/cli/commands"
	"github.com/jakechorley/volunteer-hours/internal/config"
	"github.com/jakechorley/volunteer-hours/pkg/clients/gmailclient"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
	"github.com/jakechorley/volunteer-hours/pkg/db"
	"github.com/jakechorley/volunteer-hours/pkg/memstore"
	"github.com/jakechorley/volunteer-hours/pkg/notify"
	"github.com/jakechorley/volunteer-hours/pkg/postgres"
	"github.com/jakechorley/volunteer-hours/pkg/utils"
	"github.com/jakechorley/volunteer-hours/pkg/utils/logging"
)

var (
	env   string
	actor string
	app   = &commands.AppContext{}
	// closers release connections opened by initApp, in reverse order
	closers []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vms",
		Short: "Volunteer hours CLI - Track attendance and approve timesheets",
		Long:  `A CLI tool for checking volunteers in and out of events, accruing their hours and approving timesheets.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Who is making the change (administrator username for approvals)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.SeedAdminCmd(app))
	rootCmd.AddCommand(commands.RegisterVolunteerCmd(app))
	rootCmd.AddCommand(commands.DeactivateVolunteerCmd(app))
	rootCmd.AddCommand(commands.ListVolunteersCmd(app))
	rootCmd.AddCommand(commands.ImportVolunteersCmd(app))
	rootCmd.AddCommand(commands.CreateEventCmd(app))
	rootCmd.AddCommand(commands.ListEventsCmd(app))
	rootCmd.AddCommand(commands.UpdateEventCmd(app))
	rootCmd.AddCommand(commands.DeleteEventCmd(app))
	rootCmd.AddCommand(commands.CheckInCmd(app))
	rootCmd.AddCommand(commands.CheckOutCmd(app))
	rootCmd.AddCommand(commands.SetAttendanceStatusCmd(app))
	rootCmd.AddCommand(commands.EditAttendanceCmd(app))
	rootCmd.AddCommand(commands.DeleteAttendanceCmd(app))
	rootCmd.AddCommand(commands.ListAttendanceCmd(app))
	rootCmd.AddCommand(commands.GenerateTimesheetCmd(app))
	rootCmd.AddCommand(commands.SubmitTimesheetCmd(app))
	rootCmd.AddCommand(commands.SubmitEventTimesheetCmd(app))
	rootCmd.AddCommand(commands.ApproveTimesheetCmd(app))
	rootCmd.AddCommand(commands.RejectTimesheetCmd(app))
	rootCmd.AddCommand(commands.ListTimesheetsCmd(app))
	rootCmd.AddCommand(commands.DeleteTimesheetCmd(app))
	rootCmd.AddCommand(commands.GeneratePeriodTimesheetsCmd(app))
	rootCmd.AddCommand(commands.PublishTimesheetsCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config, store, notifiers and services
func initApp() error {
	var err error
	app.Ctx = context.Background()
	app.Env = env
	app.Actor = actor

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// OAuth is only needed for Gmail notifications and the Sheets commands
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	switch {
	case err == nil:
		oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
		if err != nil {
			return fmt.Errorf("failed to create oauth config: %w", err)
		}
		app.TokenSource = utils.NewTokenSource(env, oauthConfig, app.Logger)
		app.Logger.Debug("OAuth configuration loaded successfully")
	case app.Cfg.Notifications.Gmail != nil:
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	default:
		app.Logger.Debug("No OAuth client config, Google integrations disabled", zap.Error(err))
	}

	// Initialize database
	app.Database, err = openDatabase(app.Ctx, app.Cfg.Database, app.Logger)
	if err != nil {
		return err
	}

	// Initialize notifiers
	app.Notifier, err = buildNotifier(app.Ctx, app.Cfg.Notifications, app.Database)
	if err != nil {
		return err
	}

	app.Registry = prometheus.NewRegistry()
	if err := app.Wire(); err != nil {
		return err
	}
	app.Logger.Info("Services initialized successfully")

	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Database, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		logger.Info("Connecting to database")
		pg, err := postgres.NewDB(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, pg.Close)

		logger.Info("Running database migrations")
		if err := pg.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Database initialized successfully")
		return pg, nil
	default:
		logger.Warn("Using in-memory store, data is lost when the process exits")
		return memstore.NewDB(), nil
	}
}

func buildNotifier(ctx context.Context, cfg config.NotificationsConfig, database db.Database) (services.Notifier, error) {
	var notifiers notify.Multi

	if cfg.Log {
		notifiers = append(notifiers, notify.NewLog(app.Logger))
	}

	if cfg.Redis != nil {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			app.Logger.Warn("Redis not reachable, notifications will fail until it is", zap.Error(err))
		}
		closers = append(closers, func() { _ = client.Close() })
		notifiers = append(notifiers, notify.NewRedisQueue(client, cfg.Redis.Queue, app.Logger))
		app.Logger.Info("Redis notifications enabled", zap.String("queue", cfg.Redis.Queue))
	}

	if cfg.Kafka != nil {
		publisher, err := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, app.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka notifier: %w", err)
		}
		closers = append(closers, func() { _ = publisher.Close() })
		notifiers = append(notifiers, publisher)
		app.Logger.Info("Kafka notifications enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Gmail != nil {
		if app.TokenSource == nil {
			return nil, errors.New("gmail notifications need an oauth client file")
		}
		app.Logger.Info("Initializing gmail client")
		httpClient, err := app.TokenSource.HTTPClient(ctx)
		if err != nil {
			return nil, err
		}
		gmail, err := gmailclient.NewClient(ctx, httpClient, cfg.Gmail.Sender)
		if err != nil {
			return nil, fmt.Errorf("failed to create gmail client: %w", err)
		}
		email := notify.NewEmail(gmail, database, cfg.Gmail.FallbackTo, app.Logger)
		// Runs first on shutdown, sending any queued emails
		closers = append(closers, email.Wait)
		notifiers = append(notifiers, email)
	}

	return notifiers, nil
}

func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil

	if app.Logger != nil {
		app.Logger.Sync()
	}
}
