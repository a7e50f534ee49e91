package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/organizator/organizator/pkg/api"
	"github.com/organizator/organizator/pkg/audit"
	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/config"
	"github.com/organizator/organizator/pkg/files"
	"github.com/organizator/organizator/pkg/memo"
	"github.com/organizator/organizator/pkg/middleware"
	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/rbac"
	"github.com/organizator/organizator/pkg/session"
	"github.com/organizator/organizator/pkg/storage"
	"github.com/organizator/organizator/pkg/storage/postgres"
	"github.com/organizator/organizator/pkg/users"
)

func main() {
	boot := logrus.New()
	boot.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		boot.WithError(err).Fatal("Failed to load configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	metrics := observability.NewMetrics(nil)

	ctx := context.Background()

	var otelProviders *observability.OTelProviders
	if cfg.Observability.OTelEnabled {
		otelProviders, err = observability.InitOTel(ctx, observability.OTelConfig{
			Enabled:        true,
			Endpoint:       cfg.Observability.OTelEndpoint,
			ServiceName:    cfg.Observability.OTelServiceName,
			ServiceVersion: cfg.Observability.OTelServiceVersion,
			Insecure:       cfg.Observability.OTelInsecure,
		}, logger)
		if err != nil {
			boot.WithError(err).Fatal("Failed to initialize tracing")
		}
	}

	cm, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Storage.PostgresURL,
		ReplicaURLs: postgres.ParseReplicaURLs(cfg.Storage.PostgresReplicaURLs),
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
	}, logger)
	if err != nil {
		boot.WithError(err).Fatal("Failed to connect to postgres")
	}
	db := cm.Primary()
	metrics.CollectDBStats(db)

	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		redisClient, err = storage.NewRedisClient(cfg.Storage)
		if err != nil {
			boot.WithError(err).Fatal("Failed to connect to redis")
		}
	}

	blobs, err := storage.NewBlobStore(cfg.Storage)
	if err != nil {
		boot.WithError(err).Fatal("Failed to initialize blob storage")
	}

	auditLogger, dbAudit, err := buildAuditLogger(db, cfg.Audit)
	if err != nil {
		boot.WithError(err).Fatal("Failed to initialize audit trail")
	}

	key, err := session.NewKey()
	if err != nil {
		boot.WithError(err).Fatal("Failed to generate session key")
	}

	deps := api.Deps{
		Logger:        logger,
		Metrics:       metrics,
		Sessions:      session.NewStore(key, cfg.Security.SecureCookies),
		Verifier:      auth.NewVerifier(int64(cfg.Security.MaxConcurrentHashes)),
		Users:         users.NewStore(db),
		Memos:         memo.NewStore(db),
		Files:         files.NewStore(db),
		Blobs:         blobs,
		Gate:          rbac.NewGate(rbac.NewEvaluator(rbac.NewStore(db)), metrics),
		Audit:         auditLogger,
		Redis:         redisClient,
		Policy:        cfg.AccessPolicy,
		RootUserID:    cfg.Security.RootUserID,
		TraceRequests: cfg.Observability.OTelEnabled,
	}
	if cfg.Security.LoginAttemptsPerWindow > 0 {
		deps.LoginLimit = &middleware.LoginLimitConfig{
			AttemptsPerWindow: cfg.Security.LoginAttemptsPerWindow,
			WindowDuration:    cfg.Security.LoginWindow,
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.NewServer(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux(cm, redisClient, metrics),
	}

	scheduler := startRetention(dbAudit, cfg.Audit, logger)

	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return auditLogger.Close() })
	if redisClient != nil {
		sm.RegisterShutdownFunc(func(ctx context.Context) error { return redisClient.Close() })
	}
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return cm.Close() })
	if otelProviders != nil {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	var group errgroup.Group
	group.Go(func() error {
		logger.Infof("API server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(sm.WaitForShutdown)

	if err := group.Wait(); err != nil {
		boot.WithError(err).Fatal("Server exited with error")
	}
	logger.Info("Shutdown complete")
}

// buildAuditLogger assembles the audit trail: always the database sink,
// optionally mirrored to rotated files. The DBLogger is returned separately
// because the retention job needs it directly.
func buildAuditLogger(db *sql.DB, auditCfg config.AuditConfig) (audit.Logger, *audit.DBLogger, error) {
	dbLogger, err := audit.NewDBLogger(db)
	if err != nil {
		return nil, nil, err
	}
	if auditCfg.FileDir == "" {
		return dbLogger, dbLogger, nil
	}

	fileCfg := audit.DefaultFileLoggerConfig()
	fileCfg.BasePath = auditCfg.FileDir
	fileLogger, err := audit.NewFileLogger(fileCfg)
	if err != nil {
		return nil, nil, err
	}
	return audit.NewMultiLogger(dbLogger, fileLogger), dbLogger, nil
}

// startRetention schedules the audit cleanup job. A zero retention keeps
// events forever and schedules nothing.
func startRetention(dbAudit *audit.DBLogger, auditCfg config.AuditConfig, logger *observability.Logger) *cron.Cron {
	if auditCfg.RetentionDays <= 0 {
		return nil
	}

	scheduler := cron.New()
	policy := audit.RetentionPolicy{RetentionDays: auditCfg.RetentionDays}
	_, err := scheduler.AddFunc(auditCfg.CleanupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		deleted, err := dbAudit.Cleanup(ctx, policy)
		if err != nil {
			logger.WithError(err).Error("Audit retention cleanup failed")
			return
		}
		logger.WithField("deleted", deleted).Info("Audit retention cleanup completed")
	})
	if err != nil {
		logger.WithError(err).Error("Failed to schedule audit retention cleanup")
		return nil
	}

	scheduler.Start()
	return scheduler
}

func healthMux(cm *postgres.ConnectionManager, redisClient *redis.Client, metrics *observability.Metrics) http.Handler {
	checker := observability.NewHealthChecker(cm.Primary(), redisClient)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
