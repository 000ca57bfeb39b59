package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/utils"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Manager coordinates Kafka producers and consumers
type Manager struct {
	config           *config.KafkaConfig
	logger           *utils.Logger
	mainProducer     *Producer
	dlqProducer      *Producer
	consumers        map[string]*Consumer
	consumerCtx      context.Context
	consumerCancel   context.CancelFunc
	wg               sync.WaitGroup
	mu               sync.Mutex
	isRunning        bool
	messageProcessed chan struct{}
}

// NewManager creates a new Kafka manager
func NewManager(cfg *config.KafkaConfig, logger *utils.Logger) (*Manager, error) {
	kafkaLogger := logger.Named("kafka_manager")

	mainProducer, err := NewProducer(cfg, "aquascan-producer", kafkaLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create main producer: %w", err)
	}

	dlqProducer, err := NewProducer(cfg, "aquascan-dlq", kafkaLogger)
	if err != nil {
		mainProducer.Close()
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:           cfg,
		logger:           kafkaLogger,
		mainProducer:     mainProducer,
		dlqProducer:      dlqProducer,
		consumers:        make(map[string]*Consumer),
		consumerCtx:      ctx,
		consumerCancel:   cancel,
		messageProcessed: make(chan struct{}, 100),
	}, nil
}

// Context is cancelled when the manager stops
func (m *Manager) Context() context.Context {
	return m.consumerCtx
}

// Start starts all registered consumers
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("kafka manager is already running")
	}

	for name, consumer := range m.consumers {
		m.logger.Info("Starting consumer", zap.String("name", name))
		if err := consumer.Start(m.consumerCtx); err != nil {
			m.logger.Error("Failed to start consumer", zap.String("name", name), zap.Error(err))
			m.stopAllConsumers()
			return fmt.Errorf("failed to start consumer %s: %w", name, err)
		}
	}

	m.wg.Add(1)
	go m.monitorProcessing()

	m.isRunning = true
	m.logger.Info("Kafka manager started")
	return nil
}

// AddConsumer creates and registers a consumer with specific handlers
func (m *Manager) AddConsumer(name string, handlers map[string][]MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("cannot add consumer while manager is running")
	}
	if _, exists := m.consumers[name]; exists {
		return fmt.Errorf("consumer with name %s already exists", name)
	}

	consumer, err := NewConsumer(m.config, m.logger, m.dlqProducer)
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", name, err)
	}

	topics := make([]string, 0, len(handlers))
	for topic, topicHandlers := range handlers {
		topics = append(topics, topic)
		for _, handler := range topicHandlers {
			consumer.RegisterHandler(topic, m.wrapHandler(handler))
		}
	}

	m.consumers[name] = consumer
	m.logger.Info("Added consumer", zap.String("name", name), zap.Strings("topics", topics))

	return nil
}

// RegisterIngestHandler consumes the sample ingest topic
func (m *Manager) RegisterIngestHandler(name string, handler func(key, value []byte) error) error {
	msgHandler := func(msg *kafka.Message) error {
		return handler(msg.Key, msg.Value)
	}

	return m.AddConsumer(
		fmt.Sprintf("%s-ingest", name),
		map[string][]MessageHandler{m.config.IngestTopic: {msgHandler}},
	)
}

// wrapHandler signals the processing monitor after each message
func (m *Manager) wrapHandler(handler MessageHandler) MessageHandler {
	return func(msg *kafka.Message) error {
		defer func() {
			select {
			case m.messageProcessed <- struct{}{}:
			default:
			}
		}()

		return handler(msg)
	}
}

// ProduceMessage sends a JSON message to the specified topic
func (m *Manager) ProduceMessage(topic string, key string, value interface{}, headers map[string]string) error {
	return m.mainProducer.Produce(topic, &Message{
		Key:       key,
		Value:     value,
		Timestamp: time.Now(),
		Headers:   headers,
	})
}

// monitorProcessing logs per-minute message counts
func (m *Manager) monitorProcessing() {
	defer m.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	messageCount := 0

	for {
		select {
		case <-m.consumerCtx.Done():
			m.logger.Info("Message processing monitor stopped")
			return

		case <-m.messageProcessed:
			messageCount++

		case <-ticker.C:
			if messageCount > 0 {
				m.logger.Info("Message processing statistics",
					zap.Int("processed_messages", messageCount),
					zap.String("interval", "1m"))
				messageCount = 0
			}
		}
	}
}

func (m *Manager) stopAllConsumers() {
	for name, consumer := range m.consumers {
		m.logger.Info("Stopping consumer", zap.String("name", name))
		consumer.Stop()
	}
}

// Stop stops the consumers and flushes the producers
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return fmt.Errorf("kafka manager is not running")
	}

	m.consumerCancel()
	m.stopAllConsumers()
	m.wg.Wait()

	m.mainProducer.Close()
	m.dlqProducer.Close()

	m.isRunning = false
	m.logger.Info("Kafka manager stopped")
	return nil
}

// IsRunning returns whether the Kafka manager is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}
