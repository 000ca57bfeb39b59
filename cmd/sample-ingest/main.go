package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/kafka"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/utils"
	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// sample-ingest submits image files to the ingest topic and prints the
// analysed events the server publishes in response.
func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config", "Path to the configuration directory")
	mode := flag.String("mode", "both", "Mode to run: producer, consumer, or both")
	userID := flag.Uint("user", 1, "User the samples are submitted for")
	interval := flag.Duration("interval", time.Second, "Pause between submitted images")
	wait := flag.Duration("wait", 30*time.Second, "How long to wait for analysed events after producing")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	logger, err := utils.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	kafkaManager, err := kafka.NewManager(&cfg.Kafka, logger)
	if err != nil {
		logger.Fatal("Failed to create Kafka manager", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *mode == "consumer" || *mode == "both" {
		err = kafkaManager.AddConsumer("sample-ingest-watch", map[string][]kafka.MessageHandler{
			cfg.Kafka.AnalyzedTopic: {func(msg *ckafka.Message) error {
				var event services.SampleEvent
				if err := json.Unmarshal(msg.Value, &event); err != nil {
					logger.Warn("Skipping malformed event", zap.Error(err))
					return nil
				}
				logger.Info("Sample analysed",
					zap.String("sample_id", event.SampleID),
					zap.Uint("user_id", event.UserID),
					zap.String("overall", string(event.Overall)),
					zap.Int("confidence", event.Confidence),
					zap.String("grade", event.Grade),
				)
				return nil
			}},
		})
		if err != nil {
			logger.Fatal("Failed to register event handler", zap.Error(err))
		}
	}

	if err := kafkaManager.Start(); err != nil {
		logger.Fatal("Failed to start Kafka manager", zap.Error(err))
	}
	logger.Info("Kafka manager started")

	var wg sync.WaitGroup
	if *mode == "producer" || *mode == "both" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			produceSamples(ctx, kafkaManager, logger, cfg.Kafka.IngestTopic, uint(*userID), flag.Args(), *interval)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Context canceled, shutting down")
	case <-waitForCompletion(&wg):
		if *mode == "both" {
			logger.Info("Production completed, waiting for analysed events", zap.Duration("wait", *wait))
			select {
			case <-ctx.Done():
			case <-time.After(*wait):
			}
		}
	}

	if err := kafkaManager.Stop(); err != nil {
		logger.Error("Failed to stop Kafka manager", zap.Error(err))
	}
	logger.Info("Kafka manager stopped")
}

// produceSamples submits each file as an ingest message
func produceSamples(ctx context.Context, kafkaManager *kafka.Manager, logger *utils.Logger, topic string, userID uint, files []string, interval time.Duration) {
	logger.Info("Starting sample submission",
		zap.String("topic", topic),
		zap.Int("files", len(files)))

	for i, path := range files {
		select {
		case <-ctx.Done():
			logger.Info("Context canceled, stopping submission")
			return
		default:
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read image", zap.String("file", path), zap.Error(err))
			continue
		}

		message := services.IngestMessage{
			UserID:      userID,
			ImageBase64: base64.StdEncoding.EncodeToString(data),
		}
		key := fmt.Sprintf("%d-%s", userID, filepath.Base(path))

		if err := kafkaManager.ProduceMessage(topic, key, message, nil); err != nil {
			logger.Error("Failed to produce sample", zap.String("file", path), zap.Error(err))
		} else {
			logger.Info("Submitted sample", zap.String("file", path), zap.String("key", key))
		}

		if i < len(files)-1 && interval > 0 {
			time.Sleep(interval)
		}
	}

	logger.Info("Sample submission completed", zap.Int("files", len(files)))
}

// waitForCompletion returns a channel that is closed when the wait group is done
func waitForCompletion(wg *sync.WaitGroup) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	return ch
}
