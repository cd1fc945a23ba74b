// Package app собирает зависимости сервиса заказов и управляет его жизненным циклом.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vkozyrev/orderhub/internal/health"
	httpsvc "github.com/vkozyrev/orderhub/internal/service/http"
	"github.com/vkozyrev/orderhub/internal/service/placement"
	"github.com/vkozyrev/orderhub/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run запускает сервис: собирает зависимости, поднимает API и служебный
// серверы и блокируется до отмены контекста или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	var svc *placement.Service
	if deps.Producer != nil {
		svc = placement.NewServiceWithKafka(
			deps.Customers, deps.Catalog, deps.Orders,
			deps.Producer, logger.WithField("layer", "placement"),
		)
	} else {
		svc = placement.NewService(
			deps.Customers, deps.Catalog, deps.Orders,
			logger.WithField("layer", "placement"),
		)
	}

	handler := httpsvc.NewHandler(
		svc, deps.Customers, deps.Catalog, deps.Orders, deps.Idem,
		logger.WithField("layer", "http"),
	)
	handler.SetIdempotencyTTL(cfg.IdempotencyTTL)

	probes := health.NewRegistry("orderhub", version.Version())
	probes.Register("storage", func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return deps.PingStorage(pingCtx)
	})
	probes.RegisterOptional("redis", func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return deps.PingRedis(pingCtx)
	})

	stopCleanup := startIdempotencyCleanup(ctx, cfg, deps, logger)
	defer stopCleanup()

	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpsvc.NewRouter(handler),
	}
	opsSrv := startOpsServer(cfg.MetricsAddr, probes, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.HTTPAddr)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(opsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(opsSrv, logger)
		return err
	}
}

// startOpsServer поднимает служебный сервер: метрики Prometheus и health-пробы.
func startOpsServer(addr string, probes *health.Registry, logger *log.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", probes.Handler)
	mux.HandleFunc("/readyz", probes.ReadyHandler)
	mux.HandleFunc("/livez", health.LiveHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	return srv
}

// startIdempotencyCleanup запускает фоновую чистку просроченных записей
// идемпотентности. Для Redis чистку делает сам сервер по TTL, поэтому там
// DeleteExpired — no-op и горутина безвредна.
func startIdempotencyCleanup(parent context.Context, cfg Config, deps *Dependencies, logger *log.Entry) func() {
	if cfg.IdempotencyCleanupPeriod <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.IdempotencyCleanupPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := deps.Idem.DeleteExpired(time.Now().UTC(), 1000)
				if err != nil {
					logger.WithError(err).Warn("idempotency cleanup failed")
					continue
				}
				if deleted > 0 {
					logger.WithField("deleted", deleted).Debug("expired idempotency records removed")
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
