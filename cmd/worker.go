package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/f1rq/LifeMap/config"
	"github.com/f1rq/LifeMap/internal/cache"
	"github.com/f1rq/LifeMap/internal/database"
	"github.com/f1rq/LifeMap/internal/metrics"
	"github.com/f1rq/LifeMap/internal/repositories"
	"github.com/f1rq/LifeMap/internal/services"
	"github.com/f1rq/LifeMap/internal/tasks"
	"github.com/f1rq/LifeMap/internal/tracing"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the maintenance worker",
	Long:  `Start the background worker that backs up the database and logs event stats on a schedule.`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize the database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}
	defer redisCache.Close()

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}

	// Initialize metrics and the background runner
	metricsCollector := metrics.NewMetrics()
	runner := tasks.NewRunner(cfg.Tasks.MaxConcurrent)

	// Initialize services
	eventRepo := repositories.NewEventRepository(db)
	eventService := services.NewEventService(eventRepo, runner, metricsCollector, tracer)
	eventService.Start(ctx)

	maintenance := services.NewMaintenanceService(eventRepo, cfg.Backup, cfg.DB.Path)

	// Run the scheduled maintenance jobs
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		if cfg.Backup.Enabled {
			_, err = scheduler.NewJob(
				gocron.DurationJob(cfg.Backup.Interval),
				gocron.NewTask(func() {
					if err := maintenance.BackupDatabase(ctx); err != nil {
						log.Error().Err(err).Msg("Scheduled backup failed")
					}
				}),
			)
			if err != nil {
				return err
			}
			log.Info().Dur("interval", cfg.Backup.Interval).Msg("Backup job scheduled")
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(time.Hour),
			gocron.NewTask(func() {
				if err := maintenance.LogStats(ctx); err != nil {
					log.Error().Err(err).Msg("Stats job failed")
				}
				snap := eventService.Snapshot()
				metricsCollector.SetGauge("events.visible", int64(len(snap.Events)))
				log.Info().
					Int("visible_events", len(snap.Events)).
					Int64("uptime_seconds", metricsCollector.GetUptimeSeconds()).
					Msg("Worker heartbeat")
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	// Let in-flight background tasks drain
	runner.Wait()
	tracer.Close()

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
