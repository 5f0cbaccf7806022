package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frankieli/wager_arena/internal/config"
	"github.com/frankieli/wager_arena/internal/modules/catalog"
	gatewayHttp "github.com/frankieli/wager_arena/internal/modules/gateway/adapter/http"
	gatewayUseCase "github.com/frankieli/wager_arena/internal/modules/gateway/usecase"
	"github.com/frankieli/wager_arena/internal/modules/gateway/ws"
	roomDomain "github.com/frankieli/wager_arena/internal/modules/room/domain"
	roomDB "github.com/frankieli/wager_arena/internal/modules/room/repository/db"
	roomMemory "github.com/frankieli/wager_arena/internal/modules/room/repository/memory"
	roomRedis "github.com/frankieli/wager_arena/internal/modules/room/repository/redis"
	roomUseCase "github.com/frankieli/wager_arena/internal/modules/room/usecase"
	"github.com/frankieli/wager_arena/pkg/logger"
)

func main() {
	// Parse command line flags
	pprofPort := flag.String("pprof-port", "", "Port to run pprof server on (e.g., 6060)")
	background := flag.Bool("d", false, "Run in background mode (disable console logging)")
	flag.Parse()

	// 1. Load Config
	cfg := config.Load()

	// Initialize logger
	// If background is true, disable console logging (enableConsole = false)
	logger.InitWithFile(cfg.Server.LogFile, cfg.Server.LogLevel, cfg.Server.LogFormat, !*background)
	defer logger.Flush()

	// Start pprof server if requested
	if *pprofPort != "" {
		go func() {
			addr := "localhost:" + *pprofPort
			logger.InfoGlobal().Str("addr", addr).Msg("📈 Starting pprof server")
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.ErrorGlobal().Err(err).Msg("Failed to start pprof server")
			}
		}()
	}

	fmt.Printf("🚀 Starting Wager Arena... Logs are being written to %s (rotating)\n", cfg.Server.LogFile)
	logger.InfoGlobal().Msg("🎲 Starting Wager Arena...")

	// 2. Initialize Room Store
	repo, cleanup, err := buildRepository(cfg)
	if err != nil {
		logger.FatalGlobal().Err(err).Str("store_type", cfg.Store.Type).Msg("Failed to initialize room store")
	}
	defer cleanup()
	logger.InfoGlobal().Str("store_type", cfg.Store.Type).Msg("✅ Room store ready")

	// 3. Load Bet Catalog
	stageCatalog, err := catalog.LoadCSV(cfg.Game.PresetCSV)
	if err != nil {
		logger.WarnGlobal().Err(err).Str("path", cfg.Game.PresetCSV).Msg("Preset CSV not loaded, using built-in stages")
		stageCatalog = catalog.Default()
	}
	logger.InfoGlobal().Int("stages", len(stageCatalog.Stages())).Msg("✅ Bet catalog loaded")

	// 4. Initialize Modules
	roomUC := roomUseCase.NewRoomUseCase(repo, cfg.Game.InitialPoints)
	roundUC := roomUseCase.NewRoundUseCase(roomUC, stageCatalog)
	wagerUC := roomUseCase.NewWagerUseCase(roomUC)
	settleUC := roomUseCase.NewSettleUseCase(roomUC)
	logger.InfoGlobal().Msg("✅ Room module initialized")

	wsManager := ws.NewManager()
	go wsManager.Run()

	gatewayUC := gatewayUseCase.NewGatewayUseCase(roomUC, roundUC, wagerUC, settleUC, wsManager)
	gatewayHandler := gatewayHttp.NewHandler(wsManager, gatewayUC)
	logger.InfoGlobal().Msg("✅ Gateway module initialized")

	// 5. Setup HTTP Server
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())

	gatewayHandler.RegisterRoutes(router)
	if cfg.Server.StaticDir != "" {
		router.Static("/app", cfg.Server.StaticDir)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	logger.InfoGlobal().
		Str("port", cfg.Server.Port).
		Str("ws_url", fmt.Sprintf("ws://localhost:%s/ws", cfg.Server.Port)).
		Msg("🚀 Wager Arena running")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalGlobal().Err(err).Msg("Server failed")
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoGlobal().Msg("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorGlobal().Err(err).Msg("Server forced to shutdown")
	}

	logger.InfoGlobal().Msg("🔌 Closing all WebSocket connections...")
	wsManager.Shutdown()

	logger.InfoGlobal().Msg("👋 Server exited properly")
}

// buildRepository wires the configured room store backend. The returned
// cleanup closes any underlying connections.
func buildRepository(cfg *config.Config) (roomDomain.RoomRepository, func(), error) {
	noop := func() {}

	switch cfg.Store.Type {
	case "memory", "":
		return roomMemory.NewRoomRepository(), noop, nil

	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Store.Database.SQLitePath), &gorm.Config{
			Logger: logger.NewGormLogger(),
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite: %w", err)
		}
		repo, err := roomDB.NewRoomRepository(db)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil

	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Store.Database.Host, cfg.Store.Database.Port, cfg.Store.Database.User,
			cfg.Store.Database.Password, cfg.Store.Database.Name)
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.NewGormLogger(),
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
		repo, err := roomDB.NewRoomRepository(db)
		if err != nil {
			return nil, func() { sqlDB.Close() }, err
		}
		return repo, func() { sqlDB.Close() }, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%s", cfg.Store.Redis.Host, cfg.Store.Redis.Port),
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, func() { rdb.Close() }, fmt.Errorf("ping redis: %w", err)
		}
		return roomRedis.NewRoomRepository(rdb), func() { rdb.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}
