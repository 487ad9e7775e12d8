package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	httpapi "landverify/internal/http"
	"landverify/internal/platform/config"
	"landverify/internal/platform/kafka"
	"landverify/internal/platform/postgres"
	"landverify/internal/platform/redis"
	ratelimitmw "landverify/internal/ratelimit/middleware"
	"landverify/internal/ratelimit/store/bucket"
	"landverify/internal/verification/assembler"
	"landverify/internal/verification/service"
	"landverify/internal/verification/store/attempt"
	"landverify/internal/verification/store/record"
	audit "landverify/pkg/platform/audit"
	auditmemory "landverify/pkg/platform/audit/store/memory"
	auditpg "landverify/pkg/platform/audit/store/postgres"
	"landverify/pkg/platform/audit/worker"
)

const startupTimeout = 30 * time.Second

type recordStore interface {
	assembler.Store
	assembler.TxRunner
	service.SubjectStore
	service.RecordReader
}

type auditStore interface {
	audit.Store
	worker.Outbox
}

// infra holds the backing services. Each one falls back to an in-process
// implementation when it is not configured.
type infra struct {
	db          *sql.DB
	redis       *redis.Client
	kafka       *kgo.Client
	records     recordStore
	attempts    service.AttemptStore
	buckets     ratelimitmw.BucketStore
	audit       auditStore
	relay       *worker.Relay
	isTransient func(error) bool
	health      []httpapi.HealthCheck
}

func openInfra(ctx context.Context, cfg config.Config, reg prometheus.Registerer, log *slog.Logger) (*infra, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	in := &infra{}
	if err := in.openDatabase(ctx, cfg.Database, log); err != nil {
		in.close(log)
		return nil, err
	}
	if err := in.openRedis(ctx, cfg.Redis, reg, log); err != nil {
		in.close(log)
		return nil, err
	}
	if err := in.openKafka(ctx, cfg.Kafka, log); err != nil {
		in.close(log)
		return nil, err
	}
	return in, nil
}

func (in *infra) openDatabase(ctx context.Context, cfg config.Database, log *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if db == nil {
		log.Warn("DATABASE_URL not set; verification records and audit events are kept in memory")
		in.records = record.NewInMemory()
		in.audit = auditmemory.NewInMemoryStore()
		return nil
	}
	in.db = db
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return err
		}
	}
	in.records = record.NewPostgres(db, record.WithTxTimeout(cfg.TxTimeout))
	in.audit = auditpg.New(db)
	in.isTransient = postgres.IsTransient
	in.health = append(in.health, httpapi.HealthCheck{Name: "postgres", Check: db.PingContext})
	return nil
}

func (in *infra) openRedis(ctx context.Context, cfg config.RedisConfig, reg prometheus.Registerer, log *slog.Logger) error {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return err
	}
	if client == nil {
		log.Warn("REDIS_URL not set; attempts are kept in memory and do not survive a restart")
		in.attempts = attempt.NewInMemory(cfg.AttemptTTL)
		in.buckets = bucket.NewInMemoryBucketStore()
		return nil
	}
	in.redis = client
	reg.MustRegister(redis.NewPoolCollector(client))
	in.attempts = attempt.NewRedis(client.Client, cfg.AttemptTTL)
	in.buckets = bucket.NewRedisBucketStore(client.Client)
	in.health = append(in.health, httpapi.HealthCheck{Name: "redis", Check: client.Health})
	return nil
}

func (in *infra) openKafka(ctx context.Context, cfg config.Kafka, log *slog.Logger) error {
	if len(cfg.Brokers) == 0 {
		log.Info("KAFKA_BROKERS not set; audit outbox is not relayed")
		return nil
	}
	client, err := kafka.NewProducer(cfg.Brokers, "landverify")
	if err != nil {
		return err
	}
	in.kafka = client
	if err := kafka.EnsureTopic(ctx, client, cfg.AuditTopic, cfg.Partitions, cfg.Replications); err != nil {
		return err
	}
	in.relay = worker.NewRelay(in.audit, client, cfg.AuditTopic, cfg.RelayBatch, cfg.RelayEvery, log)
	in.health = append(in.health, httpapi.HealthCheck{
		Name:  "kafka",
		Check: func(ctx context.Context) error { return kafka.Ping(ctx, client) },
	})
	return nil
}

func (in *infra) close(log *slog.Logger) {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			log.Warn("close postgres", "error", err)
		}
	}
}
