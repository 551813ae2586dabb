package main

import (
	"context"

	acctshandler "circdesk/internal/accounts/handler"
	acctsrepo "circdesk/internal/accounts/repository"
	acctsservice "circdesk/internal/accounts/service"
	acctsvalidator "circdesk/internal/accounts/validator"
	circhandler "circdesk/internal/circulation/handler"
	circrepo "circdesk/internal/circulation/repository"
	circservice "circdesk/internal/circulation/service"
	"circdesk/internal/locks"
	ruleshandler "circdesk/internal/rules/handler"
	rulesrepo "circdesk/internal/rules/repository"
	rulesservice "circdesk/internal/rules/service"
	rulesvalidator "circdesk/internal/rules/validator"
	"circdesk/pkg/app"
	"circdesk/pkg/config"
	kafkautil "circdesk/pkg/kafka"
	kafka_config "circdesk/pkg/kafka/config"
	kafkamiddleware "circdesk/pkg/kafka/middleware"
)

const ServiceName = "circulationd"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting circulation desk service")

	locker := locks.NewLocker(
		locks.NewMongoRepository(cfg),
		cfg.LockTTL,
		cfg.LockRetryAttempts,
		cfg.LockRetryBackoff,
	)

	patronRepo := acctsrepo.NewMongoPatronRepository(cfg)
	txnRepo := acctsrepo.NewMongoTransactionRepository(cfg)
	accountService := acctsservice.NewAccountService(
		patronRepo,
		txnRepo,
		locker,
		acctsvalidator.NewTransactionValidator(cfg.Log),
		cfg,
	)

	ruleService := rulesservice.NewRuleService(
		rulesrepo.NewMongoRuleRepository(cfg),
		rulesvalidator.NewRuleValidator(cfg.Log),
		cfg,
	)

	circulationService := circservice.NewCirculationService(
		circrepo.NewMongoItemRepository(cfg),
		circrepo.NewMongoLoanRepository(cfg),
		patronRepo,
		ruleService,
		accountService,
		locker,
		buildNotifier(cfg),
		cfg,
	)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		circhandler.NewCirculationHandler(circulationService, cfg.Log),
		acctshandler.NewAccountHandler(accountService, cfg),
		ruleshandler.NewRuleHandler(ruleService, cfg.Log),
	)
	serverApp.AddBackgroundTask(app.BackgroundTask{
		Name:     "hold-sweeper",
		Interval: cfg.HoldSweepInterval,
		Run: func(ctx context.Context) {
			swept, err := circulationService.SweepExpiredHolds(ctx)
			if err != nil {
				cfg.Log.Error("Hold sweep failed", "error", err)
				return
			}
			if swept > 0 {
				cfg.Log.Info("Hold sweep completed", "swept", swept)
			}
		},
	})
	serverApp.Run()
}

func buildNotifier(cfg *config.Config) circservice.Notifier {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, hold notifications will be logged only")
		return circservice.NewNoopNotifier(cfg.Log)
	}

	kafkaCfg := kafka_config.Load()
	producer, err := kafkautil.NewProducer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware())
		producer.Use(kafkamiddleware.MetricsProducerMiddleware())
	}

	cfg.Log.Info("Kafka notifier configured",
		"topic", cfg.NotificationsTopic,
		"brokers", kafkaCfg.Brokers)
	return circservice.NewKafkaNotifier(producer, cfg.Log)
}
