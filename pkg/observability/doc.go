// Package observability provides structured logging, Prometheus metrics,
// health checks, and OpenTelemetry tracing for the service.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("principal", name).Info("login succeeded")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
//	metrics.AuthzDecisionsTotal.WithLabelValues("deny").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	http.HandleFunc("/healthz", checker.Liveness)
//	http.HandleFunc("/readyz", checker.Readiness)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
