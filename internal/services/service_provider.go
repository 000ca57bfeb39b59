package services

import (
	"fmt"
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/db"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/kafka"
	"github.com/aquascan/backend/internal/utils"
	"go.uber.org/zap"
)

// ServiceProvider manages all services for the application
type ServiceProvider struct {
	logger              *utils.Logger
	config              *config.Config
	database            *db.Database
	kafkaManager        *kafka.Manager
	kafkaHandler        *KafkaHandler
	userService         *UserService
	analysisService     *AnalysisService
	historyService      *HistoryService
	notificationService *NotificationService
	digestScheduler     *DigestScheduler
}

// NewServiceProvider creates a new service provider
func NewServiceProvider(
	logger *utils.Logger,
	config *config.Config,
	database *db.Database,
) *ServiceProvider {
	return &ServiceProvider{
		logger:   logger.Named("services"),
		config:   config,
		database: database,
	}
}

// NewAnalyzer builds the analysis pipeline from configuration. A zero seed
// seeds the random source from the clock.
func NewAnalyzer(cfg *config.AnalysisConfig) *analysis.Analyzer {
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return analysis.NewAnalyzer(
		analysis.NewSynthesizer(analysis.NewRandomSource(seed)),
		analysis.FixedDelay(cfg.Delay()),
	)
}

// Initialize initializes all services. Kafka and the digest scheduler are
// only started when enabled.
func (sp *ServiceProvider) Initialize() error {
	repoFactory := repository.NewRepositoryFactory(sp.database.DB)

	sp.userService = NewUserService(repoFactory.User(), sp.logger)

	sp.notificationService = NewNotificationService(repoFactory.Notification(), sp.logger)
	sp.logger.Info("Notification service initialized")

	var publisher EventPublisher
	if sp.config.Kafka.Enabled {
		manager, err := kafka.NewManager(&sp.config.Kafka, sp.logger)
		if err != nil {
			return fmt.Errorf("failed to create Kafka manager: %w", err)
		}
		sp.kafkaManager = manager
		publisher = manager
	}

	sp.analysisService = NewAnalysisService(
		repoFactory.Sample(),
		NewAnalyzer(&sp.config.Analysis),
		sp.notificationService,
		publisher,
		sp.config,
		sp.logger,
	)
	sp.logger.Info("Analysis service initialized", zap.Duration("delay", sp.config.Analysis.Delay()))

	sp.historyService = NewHistoryService(repoFactory.Sample(), sp.config.Analysis.TrendWindowDays, sp.logger)
	sp.logger.Info("History service initialized")

	if sp.kafkaManager != nil {
		handler, err := NewKafkaHandler(
			sp.logger,
			sp.kafkaManager,
			sp.analysisService,
			repoFactory.User(),
			sp.config.Analysis.Delay()+30*time.Second,
		)
		if err != nil {
			return fmt.Errorf("failed to create Kafka handler: %w", err)
		}
		sp.kafkaHandler = handler

		if err := sp.kafkaHandler.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize Kafka handler: %w", err)
		}
		if err := sp.kafkaManager.Start(); err != nil {
			return fmt.Errorf("failed to start Kafka manager: %w", err)
		}
		sp.logger.Info("Kafka manager started")
	}

	if sp.config.Digest.Enabled {
		sp.digestScheduler = NewDigestScheduler(
			repoFactory.Sample(),
			repoFactory.User(),
			sp.historyService,
			sp.notificationService,
			sp.config.Digest,
			sp.logger,
		)
		if err := sp.digestScheduler.Start(); err != nil {
			return err
		}
	}

	sp.logger.Info("All services initialized successfully")
	return nil
}

// Shutdown performs a graceful shutdown of all services
func (sp *ServiceProvider) Shutdown() error {
	sp.logger.Info("Shutting down services")

	if sp.digestScheduler != nil {
		sp.digestScheduler.Stop()
	}

	if sp.kafkaManager != nil && sp.kafkaManager.IsRunning() {
		sp.logger.Info("Stopping Kafka manager")
		if err := sp.kafkaManager.Stop(); err != nil {
			sp.logger.Error("Failed to stop Kafka manager", zap.Error(err))
		}
	}

	if sp.notificationService != nil {
		sp.notificationService.Close()
	}

	sp.logger.Info("Services shut down successfully")
	return nil
}

// GetUserService returns the user service
func (sp *ServiceProvider) GetUserService() *UserService {
	return sp.userService
}

// GetAnalysisService returns the analysis service
func (sp *ServiceProvider) GetAnalysisService() *AnalysisService {
	return sp.analysisService
}

// GetHistoryService returns the history service
func (sp *ServiceProvider) GetHistoryService() *HistoryService {
	return sp.historyService
}

// GetNotificationService returns the notification service
func (sp *ServiceProvider) GetNotificationService() *NotificationService {
	return sp.notificationService
}

// GetDigestScheduler returns the digest scheduler, nil when disabled
func (sp *ServiceProvider) GetDigestScheduler() *DigestScheduler {
	return sp.digestScheduler
}
