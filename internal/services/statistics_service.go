package services

import (
	"context"
	"fmt"
	"time"

	"gasmeter-platform/internal/models"
	"gasmeter-platform/internal/repository"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

// StatisticsService maintains the pre-calculated subscriber feature
// table consumed by the dashboard and downstream analysis.
type StatisticsService struct {
	repo    repository.ReadingRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsService creates a new statistics service.
func NewStatisticsService(repo repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RefreshSubscriberFeatures recalculates per-account features from the
// stored readings.
func (s *StatisticsService) RefreshSubscriberFeatures(ctx context.Context) (int64, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[STATS_CALC_START] Starting subscriber feature calculation", logging.Fields{
		"stage": "INITIALIZATION",
	})

	affected, err := s.repo.RefreshSubscriberFeatures(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh subscriber features: %w", err)
	}

	duration := time.Since(startTime)

	s.logger.Info(ctx, "[STATS_CALC_COMPLETE] Subscriber feature calculation completed", logging.Fields{
		"subscribers_updated": affected,
		"duration_seconds":    duration.Seconds(),
		"stage":               "COMPLETE",
	})

	return affected, nil
}

// GetSubscriberFeatures retrieves subscriber features with filtering.
func (s *StatisticsService) GetSubscriberFeatures(ctx context.Context, filter repository.FeatureFilter) ([]*models.SubscriberFeatures, int, error) {
	return s.repo.GetSubscriberFeatures(ctx, filter)
}
