package services

import (
	"errors"
	"fmt"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/db/models"
	"github.com/aquascan/backend/internal/db/repository"
	"github.com/aquascan/backend/internal/utils"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DigestScheduler periodically sends each active user a trend digest
type DigestScheduler struct {
	cron     *cron.Cron
	samples  repository.SampleRepository
	users    repository.UserRepository
	history  *HistoryService
	notifier *NotificationService
	config   config.DigestConfig
	logger   *utils.Logger
}

// NewDigestScheduler creates a digest scheduler
func NewDigestScheduler(
	samples repository.SampleRepository,
	users repository.UserRepository,
	history *HistoryService,
	notifier *NotificationService,
	cfg config.DigestConfig,
	logger *utils.Logger,
) *DigestScheduler {
	return &DigestScheduler{
		cron:     cron.New(),
		samples:  samples,
		users:    users,
		history:  history,
		notifier: notifier,
		config:   cfg,
		logger:   logger.Named("digest_scheduler"),
	}
}

// Start registers the digest job and starts the cron runner
func (d *DigestScheduler) Start() error {
	_, err := d.cron.AddFunc(d.config.Schedule, func() {
		if _, err := d.RunOnce(); err != nil {
			d.logger.Error("Scheduled digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule digest %q: %w", d.config.Schedule, err)
	}

	d.cron.Start()
	d.logger.Info("Digest scheduled", zap.String("schedule", d.config.Schedule))
	return nil
}

// Stop stops the runner and waits for a running job to finish
func (d *DigestScheduler) Stop() {
	<-d.cron.Stop().Done()
}

// RunOnce sends the digest to every opted-in user with recent samples and
// returns the number of notifications created
func (d *DigestScheduler) RunOnce() (int, error) {
	since := d.history.now().UTC().AddDate(0, 0, -d.config.LookbackDays)

	ids, err := d.samples.ListUserIDsWithSamplesSince(since)
	if err != nil {
		return 0, err
	}

	recipients, err := d.users.ListDigestRecipients(ids)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range recipients {
		result, err := d.history.Trend(user.ID, d.config.LookbackDays)
		if err != nil {
			if !errors.Is(err, analysis.ErrInsufficientData) {
				d.logger.Warn("Digest trend failed", zap.Uint("user_id", user.ID), zap.Error(err))
			}
			continue
		}

		typ, title, ok := digestHeadline(result.Report.OverallTrend)
		if !ok {
			continue
		}

		if _, err := d.notifier.Notify(user.ID, typ, title, digestMessage(result), nil); err != nil {
			d.logger.Warn("Failed to send digest", zap.Uint("user_id", user.ID), zap.Error(err))
			continue
		}
		sent++
	}

	d.logger.Info("Digest run complete", zap.Int("recipients", len(recipients)), zap.Int("sent", sent))
	return sent, nil
}

func digestHeadline(trend analysis.Trend) (models.NotificationType, string, bool) {
	switch trend {
	case analysis.TrendDeclining:
		return models.NotificationWarning, "Water quality is declining", true
	case analysis.TrendImproving:
		return models.NotificationSuccess, "Water quality is improving", true
	default:
		return "", "", false
	}
}

func digestMessage(result *TrendResult) string {
	report := result.Report
	message := fmt.Sprintf("%d samples over the last %d days.", report.SampleCount, result.Days)
	for _, insight := range report.Insights {
		if insight.Moved {
			message += " " + insight.Message + "."
		}
	}
	if len(report.Recommendations) > 0 {
		message += " " + report.Recommendations[0] + "."
	}
	return message
}
