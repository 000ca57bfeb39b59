package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/services"
	"github.com/aquascan/backend/internal/testutil"
	"github.com/aquascan/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	topic   string
	key     string
	event   services.SampleEvent
	headers map[string]string
}

// recordingPublisher captures produced events
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) ProduceMessage(topic string, key string, value interface{}, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: value.(services.SampleEvent), headers: headers})
	return p.err
}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type analysisFixture struct {
	ts        *testutil.TestSetup
	service   *services.AnalysisService
	notifier  *services.NotificationService
	publisher *recordingPublisher
	userID    uint
}

func newAnalysisFixture(t *testing.T, kafkaEnabled bool) *analysisFixture {
	ts := testutil.NewTestSetup(t)
	ts.Config.Kafka.Enabled = kafkaEnabled
	ts.Config.Kafka.AnalyzedTopic = "water-samples.analyzed"
	ts.Config.Kafka.AlertsTopic = "water-quality.alerts"

	repos := repository.NewRepositoryFactory(ts.DB.DB)
	notifier := services.NewNotificationService(repos.Notification(), ts.Logger)
	t.Cleanup(notifier.Close)

	publisher := &recordingPublisher{}
	service := services.NewAnalysisService(repos.Sample(), testutil.NewAnalyzer(), notifier, publisher, ts.Config, ts.Logger)

	return &analysisFixture{
		ts:        ts,
		service:   service,
		notifier:  notifier,
		publisher: publisher,
		userID:    ts.SeedTestUser("analyst@example.com", "password123"),
	}
}

func TestAnalysisService_AnalyzeSample(t *testing.T) {
	f := newAnalysisFixture(t, true)

	// Test case: Unsafe sample
	t.Run("Should store an unsafe sample, alert the user and publish both events", func(t *testing.T) {
		lat, lng := 43.25, 76.95
		result, err := f.service.AnalyzeSample(context.Background(), f.userID, services.AnalyzeRequest{
			ImageBase64: testutil.UnsafeImage,
			Latitude:    &lat,
			Longitude:   &lng,
		})

		require.NoError(t, err)
		assert.Equal(t, analysis.SafetyUnsafe, result.Sample.Overall)
		assert.Equal(t, analysis.SafetyUnsafe, result.Report.Safety.Turbidity)
		assert.Equal(t, 4.5, result.Sample.Metrics.Turbidity)
		assert.Equal(t, 85, result.Sample.Confidence)
		assert.Equal(t, services.SourceAPI, result.Sample.Source)

		stored, err := f.service.GetSample(f.userID, result.Sample.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Sample.Metrics, stored.Sample.Metrics)
		assert.Equal(t, analysis.TintBlueGreen, stored.Sample.Features.Tint)

		notifications, total, err := f.notifier.List(f.userID, false, utils.PaginationRequest{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, models.NotificationAlert, notifications[0].Type)
		assert.Equal(t, "Turbidity 4.5 NTU (unsafe). Immediate filtration required.", notifications[0].Message)
		require.NotNil(t, notifications[0].SampleID)
		assert.Equal(t, result.Sample.ID, *notifications[0].SampleID)

		events := f.publisher.Events()
		require.Len(t, events, 2)
		assert.Equal(t, "water-samples.analyzed", events[0].topic)
		assert.Equal(t, "sample.analyzed", events[0].event.Event)
		assert.Equal(t, result.Sample.ID, events[0].key)
		require.NotNil(t, events[0].event.Location)
		assert.Equal(t, lat, events[0].event.Location.Lat)
		assert.Equal(t, "water-quality.alerts", events[1].topic)
		assert.Equal(t, "sample.alert", events[1].event.Event)
		assert.Equal(t, "unsafe", events[1].headers["severity"])
	})

	// Test case: Safe sample
	t.Run("Should not notify or alert for a safe sample", func(t *testing.T) {
		before := len(f.publisher.Events())

		result, err := f.service.AnalyzeSample(context.Background(), f.userID, services.AnalyzeRequest{
			ImageBase64: testutil.SafeImage,
		})

		require.NoError(t, err)
		assert.Equal(t, analysis.SafetySafe, result.Sample.Overall)
		assert.Equal(t, 94, result.Report.Confidence)
		assert.Nil(t, result.Sample.Location())

		count, err := f.notifier.UnreadCount(f.userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		events := f.publisher.Events()
		require.Len(t, events, before+1)
		assert.Equal(t, "sample.analyzed", events[before].event.Event)
	})

	// Test case: Publisher failure
	t.Run("Should still store the sample when publishing fails", func(t *testing.T) {
		f.publisher.err = errors.New("broker down")
		defer func() { f.publisher.err = nil }()

		result, err := f.service.AnalyzeSample(context.Background(), f.userID, services.AnalyzeRequest{
			ImageBase64: testutil.SafeImage,
		})

		require.NoError(t, err)
		_, err = f.service.GetSample(f.userID, result.Sample.ID)
		assert.NoError(t, err)
	})
}

func TestAnalysisService_Rejections(t *testing.T) {
	f := newAnalysisFixture(t, false)

	tests := []struct {
		name    string
		request services.AnalyzeRequest
		wantErr error
	}{
		{
			name:    "Should reject a payload shorter than the feature windows",
			request: services.AnalyzeRequest{ImageBase64: testutil.ImagePayload(200, "", "")},
			wantErr: analysis.ErrInputTooShort,
		},
		{
			name:    "Should reject text that is not base64",
			request: services.AnalyzeRequest{ImageBase64: "not an image!"},
			wantErr: analysis.ErrInvalidPayload,
		},
		{
			name:    "Should reject an oversized payload",
			request: services.AnalyzeRequest{ImageBase64: testutil.ImagePayload(2<<20, "", "")},
			wantErr: utils.ErrPayloadTooLarge,
		},
		{
			name: "Should reject a half location",
			request: services.AnalyzeRequest{
				ImageBase64: testutil.SafeImage,
				Latitude:    new(float64),
			},
			wantErr: utils.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.AnalyzeSample(context.Background(), f.userID, tt.request)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	samples, total, err := f.service.ListSamples(f.userID, utils.PaginationRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, samples)
	assert.Empty(t, f.publisher.Events())
}

func TestAnalysisService_Cancellation(t *testing.T) {
	ts := testutil.NewTestSetup(t)
	repos := repository.NewRepositoryFactory(ts.DB.DB)
	userID := ts.SeedTestUser("analyst@example.com", "password123")

	slow := analysis.NewAnalyzer(
		analysis.NewSynthesizer(testutil.ConstSource(0.5)),
		analysis.FixedDelay(time.Second),
	)
	service := services.NewAnalysisService(repos.Sample(), slow, nil, nil, ts.Config, ts.Logger)

	// Test case: Deadline
	t.Run("Should store nothing when the deadline passes during analysis", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		result, err := service.AnalyzeSample(ctx, userID, services.AnalyzeRequest{ImageBase64: testutil.SafeImage})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		_, total, err := service.ListSamples(userID, utils.PaginationRequest{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestAnalysisService_Samples(t *testing.T) {
	f := newAnalysisFixture(t, false)
	other := f.ts.SeedTestUser("other@example.com", "password123")

	sample := f.ts.SeedSample(f.userID, time.Now().UTC(), testutil.Metrics(7.2, 0.5, 2.0, 0.5))

	// Test case: Ownership
	t.Run("Should not expose samples of another user", func(t *testing.T) {
		_, err := f.service.GetSample(other, sample.ID)
		assert.ErrorIs(t, err, utils.ErrNotFound)

		err = f.service.DeleteSample(other, sample.ID)
		assert.ErrorIs(t, err, utils.ErrNotFound)
	})

	// Test case: Report on read
	t.Run("Should rebuild the report for a stored sample", func(t *testing.T) {
		result, err := f.service.GetSample(f.userID, sample.ID)

		require.NoError(t, err)
		assert.Equal(t, analysis.SafetySafe, result.Report.Safety.Overall)
		assert.Len(t, result.Report.Findings, 4)
	})

	// Test case: Delete
	t.Run("Should delete own sample", func(t *testing.T) {
		require.NoError(t, f.service.DeleteSample(f.userID, sample.ID))

		_, err := f.service.GetSample(f.userID, sample.ID)
		assert.ErrorIs(t, err, utils.ErrNotFound)
	})

	// Test case: Classify
	t.Run("Should classify supplied metrics without storing them", func(t *testing.T) {
		report := f.service.Classify(testutil.Metrics(6.0, 0.5, 2.0, 0.5))

		assert.Equal(t, analysis.SafetyUnsafe, report.Safety.Overall)
		assert.Equal(t, 70, report.SafetyScore)

		_, total, err := f.service.ListSamples(f.userID, utils.PaginationRequest{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
