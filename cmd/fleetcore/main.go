// Fleet Core - Robot Fleet Telemetry and Task Planning
//
// This is the main entry point for the Fleet Core application.
// Fleet Core fuses robot telemetry from two sources into one live
// fleet picture and plans multi-step tasks against it:
//   - MQTT push: robots publish state reports to robots/{id}/state
//   - HTTP pull: the poller scrapes each robot's status endpoint
//
// A liveness sweeper forces silent robots OFFLINE, and the REST API
// exposes the fleet snapshot plus task creation and retrieval.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/finchrobotics/fleet-core/migrations"

	"github.com/finchrobotics/fleet-core/internal/api"
	"github.com/finchrobotics/fleet-core/internal/fleet"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/config"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/database"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/logging"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/mqtt"
	"github.com/finchrobotics/fleet-core/internal/ingest"
	"github.com/finchrobotics/fleet-core/internal/poll"
	"github.com/finchrobotics/fleet-core/internal/schedule"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Fleet Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded",
		"path", configPath,
		"site", cfg.Site.ID,
	)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Build the fleet state cache and seed it from the static roster.
	// A missing or malformed roster degrades to an empty fleet rather
	// than blocking startup.
	cache := fleet.NewCache()
	var targets []fleet.PollTarget
	entries, rosterErr := fleet.LoadRoster(cfg.Roster.Path)
	if rosterErr != nil {
		log.Warn("roster unavailable, starting with empty fleet",
			"path", cfg.Roster.Path,
			"error", rosterErr,
		)
	} else {
		fleet.SeedCache(cache, entries)
		targets = fleet.PollTargets(entries)
		log.Info("roster loaded",
			"path", cfg.Roster.Path,
			"robots", len(entries),
			"poll_targets", len(targets),
		)
	}

	// Connect to MQTT broker. A broker outage is survivable: telemetry
	// degrades to HTTP polling only, so the failure is logged and the
	// push path skipped rather than aborting startup.
	mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
	if mqttErr != nil {
		log.Warn("MQTT unavailable, running in poll-only mode",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"error", mqttErr,
		)
	} else {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Subscribe the telemetry ingestor to robot state reports
		ingestor := ingest.New(mqttClient, cache, cfg.MQTT.StateTopic, byte(cfg.MQTT.QoS))
		ingestor.SetLogger(log)
		if startErr := ingestor.Start(); startErr != nil {
			return fmt.Errorf("starting telemetry ingest: %w", startErr)
		}
		log.Info("telemetry ingest started", "topic", cfg.MQTT.StateTopic)
	}

	// Start the HTTP status poller
	poller := poll.NewPoller(cache, targets, cfg.PollInterval(), cfg.PollRequestTimeout())
	poller.SetLogger(log)
	poller.Start(ctx)
	defer func() {
		log.Info("stopping poller")
		if closeErr := poller.Close(); closeErr != nil {
			log.Error("error stopping poller", "error", closeErr)
		}
	}()
	log.Info("poller started",
		"targets", poller.TargetCount(),
		"interval", cfg.PollInterval(),
	)

	// Start the liveness sweeper
	sweeper := fleet.NewSweeper(cache, cfg.SweepInterval(), cfg.OfflineThreshold())
	sweeper.SetLogger(log)
	sweeper.Start(ctx)
	defer func() {
		log.Info("stopping sweeper")
		sweeper.Close()
	}()
	log.Info("sweeper started",
		"interval", cfg.SweepInterval(),
		"offline_threshold", cfg.OfflineThreshold(),
	)

	// Start the REST API
	taskRepo := schedule.NewSQLiteRepository(db)
	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		Scheduler: cfg.Scheduler,
		Logger:    log,
		Cache:     cache,
		Tasks:     taskRepo,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Sweeper
	// 3. Poller
	// 4. MQTT (if connected)
	// 5. Database

	log.Info("Fleet Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FLEETCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FLEETCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil in poll-only mode)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
