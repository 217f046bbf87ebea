package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moltschat/moltschat/config"
	"github.com/moltschat/moltschat/handler"
	"github.com/moltschat/moltschat/model"
	"github.com/moltschat/moltschat/repository"
	"github.com/moltschat/moltschat/router"
	"github.com/moltschat/moltschat/service"
)

func main() {
	v, err := config.LoadConfig("config")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	logger, err := newLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := openDB(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&model.AuthNonce{},
		&model.Wallet{},
		&model.AgentKey{},
		&model.MoltPost{},
		&model.MoltComment{},
		&model.PostLike{},
		&model.CommentLike{},
	); err != nil {
		logger.Fatal("auto migrate", zap.Error(err))
	}

	nonceRepo := repository.NewNonceRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	keyRepo := repository.NewAgentKeyRepository(db)
	postRepo := repository.NewPostRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	authSvc := service.NewAuthService(nonceRepo, walletRepo, keyRepo, cfg.Auth, logger)
	agentSvc := service.NewAgentService(walletRepo, keyRepo, postRepo, logger)
	postSvc := service.NewPostService(postRepo, logger)
	statsSvc := service.NewStatsService(statsRepo, logger)

	go sweepNonces(authSvc)

	gin.SetMode(cfg.Server.Mode)
	r := router.SetupRouter(router.Deps{
		Auth:  authSvc,
		Authn: handler.NewAuthHandler(authSvc),
		Agent: handler.NewAgentHandler(agentSvc),
		Post:  handler.NewPostHandler(postSvc),
		Stats: handler.NewStatsHandler(statsSvc),
	})

	logger.Info("moltschat agent API listening", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// openDB constructs the single shared storage handle with a bounded pool.
// Everything downstream receives it by injection; nothing reaches for a
// package-level connection.
func openDB(cfg config.Database) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func newLogger(cfg config.Logger) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	if err := zc.Level.UnmarshalText([]byte(cfg.Level)); err == nil {
		return zc.Build()
	}
	return zap.NewProduction()
}

// sweepNonces periodically clears expired challenge rows.
func sweepNonces(auth *service.AuthService) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		auth.PurgeExpired(ctx)
		cancel()
	}
}
