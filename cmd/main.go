package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cristianortiz/lotsEngine/internal/auction/application"
	auctionhttp "github.com/cristianortiz/lotsEngine/internal/auction/infra/http"
	auctionpg "github.com/cristianortiz/lotsEngine/internal/auction/infra/repository/postgres"
	auctionws "github.com/cristianortiz/lotsEngine/internal/auction/infra/websocket"
	"github.com/cristianortiz/lotsEngine/internal/shared/auth"
	"github.com/cristianortiz/lotsEngine/internal/shared/config"
	"github.com/cristianortiz/lotsEngine/internal/shared/db"
	"github.com/cristianortiz/lotsEngine/internal/shared/db/migrations"
	"github.com/cristianortiz/lotsEngine/internal/shared/events"
	"github.com/cristianortiz/lotsEngine/internal/shared/httpserver"
	"github.com/cristianortiz/lotsEngine/internal/shared/logger"
	"github.com/cristianortiz/lotsEngine/internal/shared/storage"
	"github.com/cristianortiz/lotsEngine/internal/shared/websocket"
	userapp "github.com/cristianortiz/lotsEngine/internal/user/application"
	userhttp "github.com/cristianortiz/lotsEngine/internal/user/infra/http"
	userpg "github.com/cristianortiz/lotsEngine/internal/user/infra/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	logger := logger.GetLogger()
	defer logger.Sync()

	logger.Info("Starting LotsEngine server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	if cfg.Migrations {
		logger.Info("Running database migrations...")
		if err := migrations.RunMigrations(db.BuildPostgresDSN(cfg.Database)); err != nil {
			logger.Fatal("Database migration failed", zap.Error(err))
		}
		logger.Info("Database migrations completed successfully.")
	}

	pool, err := db.GetPostgresDBPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	s3Client, err := storage.NewS3Client(ctx, cfg.S3)
	if err != nil {
		logger.Fatal("S3 client setup failed", zap.Error(err))
	}
	loader := storage.NewLoader(s3Client, cfg.S3.Bucket, cfg.S3.PublicURL)

	bus := events.NewBus()
	publisher := events.Multi{bus}
	if cfg.Redis.Addr != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Redis connection failed", zap.Error(err))
		}
		defer rdb.Close()
		publisher = append(publisher, events.NewRedisPublisher(rdb, cfg.Redis.Channel))
		logger.Info("Publishing lot events to redis", zap.String("channel", cfg.Redis.Channel))
	}

	lots := application.NewLotService(application.Repositories{
		Lots:     auctionpg.NewLotRepository(pool),
		Auctions: auctionpg.NewAuctionRepository(pool),
		Bids:     auctionpg.NewBidRepository(pool),
		AutoBids: auctionpg.NewAutoBidRepository(pool),
	}, db.NewTxManager(pool), loader, publisher)

	userRepo := userpg.NewUserRepository(pool)
	users := userapp.NewUserService(userRepo, loader, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	mw := auth.NewMiddleware(userapp.NewResolver(userRepo), []byte(cfg.Auth.JWTSecret))

	hub := websocket.NewHub()
	go hub.Run(ctx)

	lotsWS := auctionws.NewLotWSHandler(lots, hub)
	lotsWS.Subscribe(bus)
	go lotsWS.ListenForMessages(ctx)

	server := httpserver.NewServer()
	app := server.App()
	auctionhttp.NewLotHandler(lots, auctionhttp.NewLotValidator()).RegisterRoutes(app, mw)
	userhttp.NewUserHandler(users, userhttp.NewUserValidator()).RegisterRoutes(app, mw)
	lotsWS.RegisterRoutes(ctx, app)

	if err := server.Start(ctx, cfg.HTTP.Addr); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
	logger.Info("LotsEngine server stopped")
}
