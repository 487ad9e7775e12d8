package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"landverify/internal/claims"
	"landverify/internal/geofence"
	"landverify/internal/geofence/nominatim"
	httpapi "landverify/internal/http"
	"landverify/internal/inference"
	jwttoken "landverify/internal/jwt_token"
	"landverify/internal/platform/config"
	"landverify/internal/platform/httpserver"
	"landverify/internal/platform/logger"
	"landverify/internal/platform/metrics"
	ratelimitmw "landverify/internal/ratelimit/middleware"
	ratemodels "landverify/internal/ratelimit/models"
	"landverify/internal/verification/assembler"
	"landverify/internal/verification/handler"
	"landverify/internal/verification/identity"
	"landverify/internal/verification/landrecord"
	vmetrics "landverify/internal/verification/metrics"
	"landverify/internal/verification/service"
	"landverify/internal/verification/sitevideo"
	"landverify/pkg/platform/audit/publishers/compliance"
	"landverify/pkg/platform/audit/publishers/ops"
	"landverify/pkg/platform/circuit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("landverify stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the process and blocks until ctx is cancelled or a component
// fails.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	infra, err := openInfra(ctx, cfg, reg, log)
	if err != nil {
		return err
	}
	defer infra.close(log)

	verificationMetrics := vmetrics.New(reg)

	llm := inference.New(inference.Config{
		APIKey:           cfg.Inference.APIKey,
		BaseURL:          cfg.Inference.BaseURL,
		Model:            cfg.Inference.Model,
		HTTPTimeout:      cfg.Inference.HTTPTimeout,
		RetryMax:         cfg.Inference.RetryMax,
		BreakerThreshold: cfg.Inference.BreakerThreshold,
		BreakerCooldown:  cfg.Inference.BreakerCooldown,
	}, log)
	extractor := claims.New(llm, log,
		claims.WithTimeout(cfg.Inference.ExtractTimeout),
		claims.WithMetrics(claims.NewMetrics(reg)),
	)

	geocoder := nominatim.New(nominatim.Config{
		BaseURL:           cfg.Geofence.NominatimURL,
		UserAgent:         cfg.Geofence.UserAgent,
		RequestsPerSecond: cfg.Geofence.RequestsPerSec,
		CacheTTL:          cfg.Geofence.CacheTTL,
	}, log)
	fence := geofence.NewService(geocoder, log,
		geofence.WithRadiusKm(cfg.Geofence.RadiusKm),
		geofence.WithRegion(cfg.Geofence.Region, cfg.Geofence.RegionShort),
	)

	videoOpts := []sitevideo.Option{
		sitevideo.WithPolling(cfg.Video.PollInterval, cfg.Video.MaxPolls),
		sitevideo.WithPollObserver(verificationMetrics),
	}
	if cfg.Video.TempDir != "" {
		videoOpts = append(videoOpts, sitevideo.WithTempDir(cfg.Video.TempDir))
	}

	compliancePublisher := compliance.New(infra.audit, compliance.WithLogger(log))
	opsTracker := ops.New(infra.audit,
		ops.WithLogger(log),
		ops.WithMetrics(ops.NewMetrics(reg)),
		ops.WithBreaker(circuit.New("ops-audit",
			circuit.WithFailureThreshold(5),
			circuit.WithCooldown(cfg.Inference.BreakerCooldown),
		)),
	)
	defer func() {
		if err := opsTracker.Close(); err != nil {
			log.Warn("ops tracker close", "error", err)
		}
	}()

	svc := service.New(service.Deps{
		Identity:  identity.New(extractor, log),
		Records:   landrecord.New(extractor, log),
		Geofence:  fence,
		Video:     sitevideo.New(llm, extractor, log, videoOpts...),
		Assembler: assembler.New(infra.records, infra.records, compliancePublisher, infra.isTransient, log),
		Attempts:  infra.attempts,
		Subjects:  infra.records,
		Saved:     infra.records,
	},
		service.WithLogger(log),
		service.WithMetrics(verificationMetrics),
		service.WithCompliance(compliancePublisher),
		service.WithOpsTracker(opsTracker),
	)

	extractionLimit := ratelimitmw.New(infra.buckets, log, ratelimitmw.WithDisabled(cfg.RateLimit.Disabled)).
		PerSubject(ratemodels.Policy{
			Name:   "extraction",
			Limit:  cfg.RateLimit.ExtractionLimit,
			Window: cfg.RateLimit.ExtractionWindow,
		})

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Validator:    jwttoken.NewMiddlewareValidator(jwtService),
		Verification: handler.New(svc, log, handler.WithExtractionLimit(extractionLimit)),
		Health:       infra.health,
	})
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.WriteTimeout, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting landverify", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.Info("http server stopped")
		return nil
	})
	if infra.relay != nil {
		g.Go(func() error {
			if err := infra.relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit relay: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
