package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/leadpilot/internal/api"
	"github.com/ignite/leadpilot/internal/config"
	"github.com/ignite/leadpilot/internal/pkg/distlock"
	"github.com/ignite/leadpilot/internal/pkg/logger"
	"github.com/ignite/leadpilot/internal/repository/postgres"
	"github.com/ignite/leadpilot/internal/sequencer"
	"github.com/ignite/leadpilot/internal/service/campaign"
	"github.com/ignite/leadpilot/internal/service/lead"
	"github.com/ignite/leadpilot/internal/service/suppression"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log.Println("Starting LeadPilot API server...")

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
			log.Printf("Redis unreachable (%v), falling back to in-process history and PG advisory locks", err)
			redisClient = nil
		} else {
			log.Println("Connected to Redis")
		}
	}

	// Repositories and services.
	campaignRepo := postgres.NewCampaignRepo(db)
	leadRepo := postgres.NewLeadRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)

	suppressions := suppression.NewService(suppressionRepo)
	leads := lead.NewService(leadRepo)
	campaigns := campaign.NewService(campaignRepo, suppressions, nil)

	// Sequencer wiring.
	var history sequencer.HistorySink
	if redisClient != nil {
		history = sequencer.NewRedisHistory(redisClient, cfg.Sequencer.HistoryLimit)
	} else {
		history = sequencer.NewMemoryHistory(cfg.Sequencer.HistoryLimit)
	}
	lockFactory := func(key string) distlock.Lock {
		return distlock.New(redisClient, db, key, 2*cfg.Sequencer.DispatchTimeout())
	}
	gateway := sequencer.NewGateway(cfg.Sequencer.DispatchTimeout(), cfg.Server.PublicBaseURL)
	engine := sequencer.NewEngine(
		campaignRepo,
		sequencer.NewLeadDirectory(leads),
		suppressions,
		gateway,
		history,
		lockFactory,
	)
	supervisor := sequencer.NewSupervisor(campaignRepo, engine)
	campaigns.SetScheduler(supervisor)

	if err := supervisor.ResumeActive(context.Background()); err != nil {
		log.Printf("Failed to resume active campaigns: %v", err)
	}

	server := api.NewServer(cfg.Server, &api.Handlers{
		Campaigns:    campaigns,
		Leads:        leads,
		Suppressions: suppressions,
		History:      history,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	supervisor.StopAll()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Goodbye")
}
