package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/handler"
	"github.com/amoylab/choirhub/internal/apiserver/scheduler"
	"github.com/amoylab/choirhub/internal/apiserver/upload"
	jsvc "github.com/amoylab/choirhub/internal/auth/jwt"
	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/amoylab/choirhub/internal/i18n"
	"github.com/amoylab/choirhub/pkg/logger"
	"github.com/amoylab/choirhub/pkg/metrics"
	"github.com/amoylab/choirhub/pkg/trace"
	"github.com/amoylab/choirhub/pkg/version"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create roles, the super admin and demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(cmd.Context())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "Choir hub API server",
		Long:  `Choir hub API server manages members, songs with voice variants, playlists, lyrics, locations and events`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

const defaultConfigFile = "apiserver.yaml"

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", defaultConfigFile, "path to configuration file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
}

func loadConfig() (*config.APIServerConfig, string) {
	cfg, cfgPath, err := config.LoadConfig[config.APIServerConfig](configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", cfgPath, err)
		os.Exit(1)
	}
	return cfg, cfgPath
}

func initLogger(cfg *config.APIServerConfig) *zap.Logger {
	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return lg
}

func initDatabase(lg *zap.Logger, cfg *config.DatabaseConfig) *database.GormDB {
	db, err := database.NewDatabase(cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize database", zap.Error(err))
	}
	return db
}

func initTracing(ctx context.Context, lg *zap.Logger, cfg *trace.Config) func(context.Context) error {
	shutdown, err := trace.InitTracing(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize tracing", zap.Error(err))
	}
	return shutdown
}

func initI18n(lg *zap.Logger, cfg *config.I18nConfig) *i18n.I18n {
	tr, err := i18n.New(cfg.DefaultLang)
	if err != nil {
		lg.Fatal("failed to load translations", zap.Error(err))
	}
	return tr
}

func initCache(lg *zap.Logger, cfg config.CacheConfig) cache.Cache {
	c, err := cache.New(cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize cache", zap.String("type", cfg.Type), zap.Error(err))
	}
	return c
}

func initStore(lg *zap.Logger, cfg *config.UploadConfig) *upload.Store {
	store, err := upload.NewStore(lg, cfg.Dir)
	if err != nil {
		lg.Fatal("failed to initialize upload store",
			zap.String("dir", cfg.Dir),
			zap.Error(err))
	}
	lg.Info("upload store ready", zap.String("dir", store.BaseDir()))
	return store
}

// initReconciler returns nil when periodic cleanup is disabled
func initReconciler(lg *zap.Logger, store *upload.Store, db database.Database, cfg *config.UploadConfig) *scheduler.Reconciler {
	if cfg.ReconcileInterval <= 0 {
		return nil
	}
	return scheduler.NewReconciler(func(ctx context.Context) (*upload.ReconcileResult, error) {
		return upload.Reconcile(ctx, store, db, upload.ReconcileOptions{
			Remove: true,
			MinAge: cfg.ReconcileMinAge,
		}, lg)
	}, scheduler.Config{Interval: cfg.ReconcileInterval, Logger: lg})
}

// initRouter wires every dependency of the http routes
func initRouter(db database.Database, store *upload.Store, c cache.Cache, rec *scheduler.Reconciler, cfg *config.APIServerConfig, lg *zap.Logger) *gin.Engine {
	jwtService, err := jsvc.NewService(jsvc.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		lg.Fatal("failed to initialize jwt service", zap.Error(err))
	}

	tr := initI18n(lg, &cfg.I18n)
	errs := errorx.NewErrorHandler(lg, tr)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	return handler.NewRouter(handler.Deps{
		Config:   cfg,
		DB:       db,
		JWT:      jwtService,
		Uploader: upload.NewUploader(store, cfg.Upload, errs, m, lg),
		Stats:    cache.NewStatsCache(c, db, cfg.Cache.TTL, m, lg),
		Errors:   errs,
		I18n:     tr,
		Metrics:  m,
		Logger:   lg,

		Reconciler: rec,
	})
}

func ensureSuperAdmin(ctx context.Context, lg *zap.Logger, db database.Database, cfg config.SuperAdminConfig) {
	created, err := database.InitSuperAdmin(ctx, db, cfg)
	if err != nil {
		lg.Fatal("failed to initialize super admin", zap.Error(err))
	}
	if created {
		lg.Info("super admin created", zap.String("username", cfg.Username))
	}
}

func run() {
	cfg, cfgPath := loadConfig()
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	lg := initLogger(cfg)
	defer lg.Sync()
	lg.Info("starting apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := initTracing(ctx, lg, &cfg.Tracing)

	db := initDatabase(lg, &cfg.Database)
	defer db.Close()
	ensureSuperAdmin(ctx, lg, db, cfg.SuperAdmin)

	c := initCache(lg, cfg.Cache)
	defer c.Close()

	store := initStore(lg, &cfg.Upload)
	rec := initReconciler(lg, store, db, &cfg.Upload)
	if rec != nil {
		if err := rec.Start(ctx); err != nil {
			lg.Fatal("failed to start reconcile scheduler", zap.Error(err))
		}
		defer rec.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      initRouter(db, store, c, rec, cfg, lg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		lg.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down apiserver")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("failed to shutdown http server", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Warn("failed to flush traces", zap.Error(err))
	}
}

func seed(ctx context.Context) error {
	cfg, _ := loadConfig()
	lg := initLogger(cfg)
	defer lg.Sync()

	db := initDatabase(lg, &cfg.Database)
	defer db.Close()

	start := time.Now()
	if err := db.EnsureRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	ensureSuperAdmin(ctx, lg, db, cfg.SuperAdmin)
	if err := database.SeedDemo(ctx, db); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	lg.Info("seed finished", zap.Duration("took", time.Since(start)))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
