package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"greenmap/config"
	"greenmap/database"
	"greenmap/gemini"
	"greenmap/handlers"
	"greenmap/llm"
	"greenmap/metrics"
	"greenmap/models"
	"greenmap/osm"
	"greenmap/rabbitmq"
	"greenmap/service"
	"greenmap/store"
	"greenmap/stubllm"
	"greenmap/websocket"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, closeSnapshots := openSnapshots(ctx, cfg)
	defer closeSnapshots()

	metrics.Register()

	user := models.User{Name: cfg.CurrentUserName, Email: cfg.CurrentUserEmail}
	opts := []service.Option{}

	hub := websocket.NewHub()
	go hub.Run(ctx)
	opts = append(opts, service.WithBroadcaster(hub))

	if cfg.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.WithError(err).Warn("Report events disabled")
		} else {
			defer publisher.Close()
			opts = append(opts, service.WithPublisher(publisher))
		}
	}

	osmClient := osm.NewClient(
		osm.WithBaseURL(cfg.NominatimURL),
		osm.WithUserAgent(cfg.GeocoderUserAgent),
		osm.WithMinInterval(cfg.GeocodeMinInterval),
	)
	geocoder := osm.NewCachedGeocoder(osmClient, cfg.GeocodeCacheTTL)
	go cleanGeocodeCache(ctx, geocoder, cfg.GeocodeCacheTTL)

	svc := service.New(
		store.NewReportStore(snapshots, user),
		store.NewNewsStore(snapshots, nil),
		store.NewThemeStore(snapshots),
		newAIClient(cfg),
		geocoder,
		opts...,
	)
	svc.Load(ctx)

	router := handlers.NewRouter(handlers.NewHandlers(svc, hub), cfg.AllowedOrigins)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if strings.ToLower(cfg.LogFormat) == "json" {
		log.SetHandler(json.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}
	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// openSnapshots selects the snapshot backend. The returned func releases it.
func openSnapshots(ctx context.Context, cfg *config.Config) (database.SnapshotStore, func()) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		log.Info("Using in-memory snapshots, data is lost on restart")
		return database.NewMemoryStore(), func() {}
	case config.StorageMySQL:
		db, err := database.Connect(ctx, database.MySQLConfig{
			Host:         cfg.DBHost,
			Port:         cfg.DBPort,
			User:         cfg.DBUser,
			Password:     cfg.DBPassword,
			Name:         cfg.DBName,
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
			ConnLifetime: 5 * time.Minute,
			PingMaxWait:  cfg.DBPingMaxWait,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		s := database.NewMySQLStore(db)
		if err := s.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}
		return s, func() { db.Close() }
	default:
		s, err := database.NewFileStore(cfg.DataDir)
		if err != nil {
			log.WithError(err).Fatal("Failed to open data directory")
		}
		return s, func() {}
	}
}

func newAIClient(cfg *config.Config) llm.Client {
	if cfg.AIProvider == config.AIGemini {
		log.Infof("Using Gemini model %s", cfg.GeminiModel)
		return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	log.Info("Using the offline stub AI")
	return stubllm.NewClient()
}

func cleanGeocodeCache(ctx context.Context, g *osm.CachedGeocoder, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := g.CleanExpired(); n > 0 {
				log.Debugf("Evicted %d geocode cache entries", n)
			}
		}
	}
}
