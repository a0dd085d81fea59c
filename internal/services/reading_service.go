package services

import (
	"context"

	"gasmeter-platform/internal/models"
	"gasmeter-platform/internal/repository"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

// ReadingService handles reading query operations for the dashboard.
type ReadingService struct {
	repo    repository.ReadingRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewReadingService creates a new reading service.
func NewReadingService(repo repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ReadingService {
	return &ReadingService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetReadings retrieves readings with filtering.
func (s *ReadingService) GetReadings(ctx context.Context, filter repository.ReadingFilter) ([]*models.CleanReading, int, error) {
	return s.repo.GetReadings(ctx, filter)
}

// GetConsumptionStats retrieves aggregate consumption statistics.
func (s *ReadingService) GetConsumptionStats(ctx context.Context, filter repository.StatsFilter) (*models.ConsumptionStats, error) {
	return s.repo.GetConsumptionStats(ctx, filter)
}

// GetReadingMethodCounts retrieves per-method reading counts for the
// post-import summary.
func (s *ReadingService) GetReadingMethodCounts(ctx context.Context) ([]*models.ReadingMethodCount, error) {
	return s.repo.GetReadingMethodCounts(ctx)
}
