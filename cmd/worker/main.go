// The worker runs the campaign sequencer without the HTTP API. It shares
// the distributed tick lock with the API server, so both can run at once
// without double-sending.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/leadpilot/internal/config"
	"github.com/ignite/leadpilot/internal/pkg/distlock"
	"github.com/ignite/leadpilot/internal/pkg/logger"
	"github.com/ignite/leadpilot/internal/repository/postgres"
	"github.com/ignite/leadpilot/internal/sequencer"
	"github.com/ignite/leadpilot/internal/service/lead"
	"github.com/ignite/leadpilot/internal/service/suppression"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log.Println("Starting LeadPilot sequencer worker...")

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactEnabled())

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnLifetime())

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Redis unreachable (%v), falling back to PG advisory locks", err)
			redisClient = nil
		}
	}

	campaignRepo := postgres.NewCampaignRepo(db)
	leads := lead.NewService(postgres.NewLeadRepo(db))
	suppressions := suppression.NewService(postgres.NewSuppressionRepo(db))

	var history sequencer.HistorySink
	if redisClient != nil {
		history = sequencer.NewRedisHistory(redisClient, cfg.Sequencer.HistoryLimit)
	} else {
		history = sequencer.NewMemoryHistory(cfg.Sequencer.HistoryLimit)
	}
	lockFactory := func(key string) distlock.Lock {
		return distlock.New(redisClient, db, key, 2*cfg.Sequencer.DispatchTimeout())
	}

	engine := sequencer.NewEngine(
		campaignRepo,
		sequencer.NewLeadDirectory(leads),
		suppressions,
		sequencer.NewGateway(cfg.Sequencer.DispatchTimeout(), cfg.Server.PublicBaseURL),
		history,
		lockFactory,
	)
	supervisor := sequencer.NewSupervisor(campaignRepo, engine)

	if err := supervisor.ResumeActive(context.Background()); err != nil {
		log.Fatalf("Failed to resume active campaigns: %v", err)
	}

	// Campaigns started through the API after this point are picked up on
	// the next rescan; the worker has no API surface of its own.
	rescan := time.NewTicker(time.Minute)
	defer rescan.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-rescan.C:
			if err := supervisor.ResumeActive(context.Background()); err != nil {
				log.Printf("Rescan failed: %v", err)
			}
		case <-stop:
			log.Println("Shutting down...")
			supervisor.StopAll()
			log.Println("Goodbye")
			return
		}
	}
}
