package di

import (
	"context"
	"fmt"
	"time"

	"SignalOps/internal/domain/repository"
	"SignalOps/internal/handler/api"
	internalrepo "SignalOps/internal/repository"
	"SignalOps/internal/service/notify"
	"SignalOps/internal/service/ops"
	"SignalOps/internal/usecase"
	"SignalOps/internal/worker"
	pkgch "SignalOps/pkg/clickhouse"
	"SignalOps/pkg/config"
	xhttp "SignalOps/pkg/http"
	pkgkafka "SignalOps/pkg/kafka"
	"SignalOps/pkg/logger"
	"SignalOps/pkg/messaging"
	"SignalOps/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// WorkerApp bundles everything a worker process needs.
type WorkerApp struct {
	Config *config.Config
	Logger *logger.Logger
	Redis  *redis.Client
	Worker *worker.Worker
}

// OpsApp bundles everything the ops API process needs.
type OpsApp struct {
	Config     *config.Config
	Logger     *logger.Logger
	Redis      *redis.Client
	ClickHouse *pkgch.Client
	Server     *xhttp.Server
	Sink       *usecase.SignalSink
	Stream     *api.StreamHandler
}

// ProvideLogger creates the process logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideRedisClient creates and pings the shared Redis client.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return messaging.NewRedisClient(
		messaging.WithAddr(cfg.Redis.Addr),
		messaging.WithPassword(cfg.Redis.Password),
		messaging.WithDB(cfg.Redis.DB),
		messaging.WithPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns),
		messaging.WithDialTimeout(cfg.Redis.DialTimeout),
	)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePublisher creates the broadcast publisher.
func ProvidePublisher(client *redis.Client) repository.Publisher {
	return messaging.NewRedisPublisher(client)
}

// ProvideSubscriber creates the process-wide subscriber.
func ProvideSubscriber(client *redis.Client, lgr *logger.Logger, cfg *config.Config) repository.Subscriber {
	return messaging.NewRedisSubscriber(client, lgr, cfg.Timeouts.SubscribeTimeout)
}

// ProvideFlagRepository creates the Redis-backed flag repository.
func ProvideFlagRepository(client *redis.Client, cfg *config.Config) repository.FlagRepository {
	return internalrepo.NewRedisFlagRepository(client, cfg.Keys.OpsFlags)
}

// ProvideHeartbeatWriter creates the TTL heartbeat writer.
func ProvideHeartbeatWriter(client *redis.Client, cfg *config.Config) repository.HeartbeatWriter {
	return messaging.NewRedisHeartbeatWriter(client, cfg.Keys.WorkerHeartbeats, cfg.Timeouts.HeartbeatTTL)
}

// ProvideEngine creates the inference engine. The model slot starts empty;
// real deployments swap in their model behind the same boundary.
func ProvideEngine(lgr *logger.Logger) repository.InferenceUseCase {
	return usecase.NewEngine(usecase.NopModel, lgr)
}

// ProvideWorker creates the inference worker.
func ProvideWorker(
	cfg *config.Config,
	inference repository.InferenceUseCase,
	pub repository.Publisher,
	sub repository.Subscriber,
	flags repository.FlagRepository,
	heartbeat repository.HeartbeatWriter,
	m repository.Metrics,
	lgr *logger.Logger,
) *worker.Worker {
	return worker.New(
		worker.Config{
			WorkerID:          cfg.Worker.ID,
			RequestChannel:    cfg.Channels.InferenceRequests,
			SignalChannel:     cfg.Channels.InferenceSignals,
			PollInterval:      cfg.Worker.PollInterval,
			HeartbeatInterval: cfg.Worker.HeartbeatInterval,
		},
		inference, pub, sub, flags, heartbeat, m, lgr,
	)
}

// ProvideWorkerApp bundles the worker process.
func ProvideWorkerApp(cfg *config.Config, lgr *logger.Logger, client *redis.Client, w *worker.Worker) *WorkerApp {
	return &WorkerApp{Config: cfg, Logger: lgr, Redis: client, Worker: w}
}

// ProvideAuditTrail creates the Redis-backed audit trail.
func ProvideAuditTrail(client *redis.Client, cfg *config.Config, lgr *logger.Logger) *internalrepo.AuditTrail {
	return internalrepo.NewAuditTrail(client, cfg.Keys.OpsFlags, lgr)
}

// ProvideAuditLogger exposes the audit trail behind the domain interface.
func ProvideAuditLogger(trail *internalrepo.AuditTrail) repository.AuditLogger {
	return trail
}

// ProvideNotifier builds the notification fan-out from config. Disabled
// backends are constructed anyway and short-circuit on Notify.
func ProvideNotifier(cfg *config.Config) repository.Notifier {
	return notify.NewMulti(
		notify.NewSlackNotifier(notify.SlackConfig{
			WebhookURL: cfg.Notifications.Slack.WebhookURL,
			Channel:    cfg.Notifications.Slack.Channel,
			Username:   cfg.Notifications.Slack.Username,
			Timeout:    cfg.Notifications.Slack.Timeout,
			Enabled:    cfg.Notifications.Slack.Enabled,
		}),
		notify.NewPagerDutyNotifier(notify.PagerDutyConfig{
			RoutingKey: cfg.Notifications.PagerDuty.RoutingKey,
			Severity:   cfg.Notifications.PagerDuty.Severity,
			Source:     cfg.Notifications.PagerDuty.Source,
			Timeout:    cfg.Notifications.PagerDuty.Timeout,
			Enabled:    cfg.Notifications.PagerDuty.Enabled,
		}),
	)
}

// ProvideOpsService creates the ops command service.
func ProvideOpsService(
	flags repository.FlagRepository,
	audit repository.AuditLogger,
	pub repository.Publisher,
	cfg *config.Config,
	notifier repository.Notifier,
	m repository.Metrics,
	lgr *logger.Logger,
) *ops.Service {
	return ops.NewService(flags, audit, pub, cfg.Channels.OpsEvents, notifier, m, lgr)
}

// ProvideClickHouseClient creates the ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ch := cfg.Archive.ClickHouse
	if !ch.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates the Kafka producer, or nil when the archive is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	k := cfg.Archive.Kafka
	if !k.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithBatchSize(k.BatchSize),
		pkgkafka.WithBatchTimeout(k.BatchTimeout),
		pkgkafka.WithTimeouts(k.WriteTimeout, 10*time.Second),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideArchivers assembles the enabled signal archivers and initializes the
// ClickHouse schema.
func ProvideArchivers(chClient *pkgch.Client, producer *pkgkafka.Producer, cfg *config.Config) ([]repository.SignalArchiver, error) {
	var archivers []repository.SignalArchiver

	if chClient != nil {
		ch := cfg.Archive.ClickHouse
		store := internalrepo.NewClickHouseSignalStore(chClient.DB(), ch.Database+"."+ch.Table)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := chClient.InitSchema(ctx, store.Schema(ch.Database)); err != nil {
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		archivers = append(archivers, store)
	}
	if producer != nil {
		archivers = append(archivers, internalrepo.NewKafkaSignalArchive(producer, cfg.Archive.Kafka.Topic))
	}
	return archivers, nil
}

// ProvideSignalSink creates the signal sink on its own subscriber, so it can
// share the signal channel with the websocket relay.
func ProvideSignalSink(cfg *config.Config, client *redis.Client, lgr *logger.Logger, archivers []repository.SignalArchiver) *usecase.SignalSink {
	sub := messaging.NewRedisSubscriber(client, lgr, cfg.Timeouts.SubscribeTimeout)
	return usecase.NewSignalSink(cfg.Channels.InferenceSignals, sub, archivers, lgr)
}

// ProvideStreamHandler creates the websocket relay on its own subscriber.
func ProvideStreamHandler(cfg *config.Config, client *redis.Client, lgr *logger.Logger) *api.StreamHandler {
	sub := messaging.NewRedisSubscriber(client, lgr, cfg.Timeouts.SubscribeTimeout)
	return api.NewStreamHandler(cfg.Channels.InferenceSignals, sub, lgr)
}

// ProvideOpsHandler creates the ops HTTP handler.
func ProvideOpsHandler(svc *ops.Service, trail *internalrepo.AuditTrail, client *redis.Client, lgr *logger.Logger) *api.OpsHandler {
	return api.NewOpsHandler(svc, trail, client, lgr)
}

// ProvideRouter composes the HTTP handlers.
func ProvideRouter(opsHandler *api.OpsHandler, stream *api.StreamHandler) *api.Router {
	return api.NewRouter(opsHandler, stream)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(router *api.Router, lgr *logger.Logger, cfg *config.Config) *xhttp.Server {
	return xhttp.NewServer(router, lgr,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// ProvideOpsApp bundles the ops API process.
func ProvideOpsApp(
	cfg *config.Config,
	lgr *logger.Logger,
	client *redis.Client,
	chClient *pkgch.Client,
	server *xhttp.Server,
	sink *usecase.SignalSink,
	stream *api.StreamHandler,
) *OpsApp {
	return &OpsApp{
		Config:     cfg,
		Logger:     lgr,
		Redis:      client,
		ClickHouse: chClient,
		Server:     server,
		Sink:       sink,
		Stream:     stream,
	}
}
