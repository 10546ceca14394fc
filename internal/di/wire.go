//go:build wireinject
// +build wireinject

package di

import (
	"SignalOps/pkg/config"

	"github.com/google/wire"
)

// InitializeWorkerApp wires up a worker process.
// Wire will generate the implementation of this function.
func InitializeWorkerApp(cfg *config.Config) (*WorkerApp, error) {
	wire.Build(
		ProvideLogger,
		ProvideRedisClient,
		ProvideMetrics,

		ProvidePublisher,
		ProvideSubscriber,
		ProvideFlagRepository,
		ProvideHeartbeatWriter,
		ProvideEngine,

		ProvideWorker,
		ProvideWorkerApp,
	)
	return nil, nil
}

// InitializeOpsApp wires up the ops API process.
// Wire will generate the implementation of this function.
func InitializeOpsApp(cfg *config.Config) (*OpsApp, error) {
	wire.Build(
		ProvideLogger,
		ProvideRedisClient,
		ProvideMetrics,

		ProvidePublisher,
		ProvideFlagRepository,
		ProvideAuditTrail,
		ProvideAuditLogger,
		ProvideNotifier,
		ProvideOpsService,

		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideArchivers,
		ProvideSignalSink,

		ProvideStreamHandler,
		ProvideOpsHandler,
		ProvideRouter,
		ProvideHTTPServer,

		ProvideOpsApp,
	)
	return nil, nil
}
