package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasmeter-platform/internal/models"
	"gasmeter-platform/internal/repository"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

// One collector per test binary; prometheus rejects duplicate
// registrations.
var testMetrics = metrics.NewCollector("gasmeter_services_test")

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

// stubRepository is an in-memory ReadingRepository for service tests.
type stubRepository struct {
	readings   []*models.CleanReading
	batchSizes []int
	stats      *models.ConsumptionStats
	aggregates []*models.CityAggregate
	features   []*models.SubscriberFeatures
	refreshed  int64
	err        error
}

func (s *stubRepository) CreateReadingsBatch(ctx context.Context, readings []*models.CleanReading) error {
	if s.err != nil {
		return s.err
	}
	s.readings = append(s.readings, readings...)
	s.batchSizes = append(s.batchSizes, len(readings))
	return nil
}

func (s *stubRepository) GetReadings(ctx context.Context, filter repository.ReadingFilter) ([]*models.CleanReading, int, error) {
	return s.readings, len(s.readings), s.err
}

func (s *stubRepository) GetConsumptionStats(ctx context.Context, filter repository.StatsFilter) (*models.ConsumptionStats, error) {
	return s.stats, s.err
}

func (s *stubRepository) GetCityAggregates(ctx context.Context, year *int) ([]*models.CityAggregate, error) {
	return s.aggregates, s.err
}

func (s *stubRepository) GetReadingMethodCounts(ctx context.Context) ([]*models.ReadingMethodCount, error) {
	return nil, s.err
}

func (s *stubRepository) RefreshSubscriberFeatures(ctx context.Context) (int64, error) {
	return s.refreshed, s.err
}

func (s *stubRepository) GetSubscriberFeatures(ctx context.Context, filter repository.FeatureFilter) ([]*models.SubscriberFeatures, int, error) {
	return s.features, len(s.features), s.err
}

func (s *stubRepository) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()

	content := "CityA;ACC1;M-001;05.03.22;1 500,5;manual\n" + // ingested
		"CityA;;M-002;05.03.22;10;manual\n" + // dropped: empty account
		"CityA;ACC2;M-003;06.03.22;abc;remote\n" + // skipped: null consumption
		"CityA;ACC3;M-004;07.03.22;-5;manual\n" + // skipped: non-positive
		"CityB;ACC4;M-005;08.03.22;42;manual\n" // ingested

	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	repo := &stubRepository{}
	svc := NewIngestionService(repo, testLogger(), testMetrics)

	result, err := svc.IngestFile(context.Background(), path, 1000)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 2, result.IngestedRows)
	assert.Equal(t, 1, result.DroppedRows)
	assert.Equal(t, 2, result.SkippedRows)

	require.Len(t, repo.readings, 2)
	first := repo.readings[0]
	assert.Equal(t, "ACC1", first.AccountNumber)
	assert.Equal(t, "001", first.MeterID)
	assert.Equal(t, "export.csv", first.SourceFile)
	require.NotNil(t, first.Consumption)
	assert.Equal(t, 1500.5, *first.Consumption)
	assert.Equal(t, "spring", first.Season)
}

func TestIngestFile_Batching(t *testing.T) {
	dir := t.TempDir()

	content := ""
	accounts := []string{"A1", "A2", "A3", "A4", "A5"}
	for i, acc := range accounts {
		content += "CityA;" + acc + ";M-00" + string(rune('1'+i)) + ";15.06.2023;100;manual\n"
	}

	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	repo := &stubRepository{}
	svc := NewIngestionService(repo, testLogger(), testMetrics)

	result, err := svc.IngestFile(context.Background(), path, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, result.IngestedRows)
	assert.Equal(t, []int{2, 2, 1}, repo.batchSizes)
}

func TestIngestDirectory_NoFiles(t *testing.T) {
	repo := &stubRepository{}
	svc := NewIngestionService(repo, testLogger(), testMetrics)

	_, err := svc.IngestDirectory(context.Background(), t.TempDir(), 1000)
	assert.Error(t, err)
}

func TestIngestDirectory_ContinuesPastBadFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("a;b;c\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.csv"),
		[]byte("CityA;ACC1;M-001;15.06.2023;100;manual\n"), 0o644))

	repo := &stubRepository{}
	svc := NewIngestionService(repo, testLogger(), testMetrics)

	result, err := svc.IngestDirectory(context.Background(), dir, 1000)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 1, result.FailedFiles)
	assert.Equal(t, 1, result.IngestedRows)
	assert.Len(t, result.Errors, 1)
}
