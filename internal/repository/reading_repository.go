package repository

import (
	"context"
	"fmt"
	"time"

	"gasmeter-platform/internal/models"
	"gasmeter-platform/pkg/database"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

// ReadingRepository provides data access for meter readings and the
// pre-calculated subscriber features.
type ReadingRepository interface {
	// Reading operations
	CreateReadingsBatch(ctx context.Context, readings []*models.CleanReading) error
	GetReadings(ctx context.Context, filter ReadingFilter) ([]*models.CleanReading, int, error)

	// Aggregate operations
	GetConsumptionStats(ctx context.Context, filter StatsFilter) (*models.ConsumptionStats, error)
	GetCityAggregates(ctx context.Context, year *int) ([]*models.CityAggregate, error)
	GetReadingMethodCounts(ctx context.Context) ([]*models.ReadingMethodCount, error)

	// Subscriber feature operations
	RefreshSubscriberFeatures(ctx context.Context) (int64, error)
	GetSubscriberFeatures(ctx context.Context, filter FeatureFilter) ([]*models.SubscriberFeatures, int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// ReadingFilter defines filters for querying readings.
type ReadingFilter struct {
	City          *string
	AccountNumber *string
	MeterID       *string
	StartDate     *time.Time
	EndDate       *time.Time
	Season        *string
	HeatingSeason *bool
	Limit         int
	Offset        int
}

// StatsFilter defines filters for aggregate consumption statistics.
type StatsFilter struct {
	City *string
	Year *int
}

// FeatureFilter defines filters for querying subscriber features.
type FeatureFilter struct {
	AccountNumber       *string
	SeasonalityCategory *string
	Limit               int
	Offset              int
}

// readingRepository implements ReadingRepository.
type readingRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewReadingRepository creates a new reading repository.
func NewReadingRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ReadingRepository {
	return &readingRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateReadingsBatch inserts readings in a single transaction,
// upserting on the (account_number, meter_id, reading_date) key so
// re-ingesting a file is idempotent.
func (r *readingRepository) CreateReadingsBatch(ctx context.Context, readings []*models.CleanReading) error {
	if len(readings) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(readings)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(readings),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (
			city, account_number, meter_id, reading_date,
			consumption, reading_method,
			month, year, quarter, season, heating_season,
			source_file, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (account_number, meter_id, reading_date) DO UPDATE SET
			city = EXCLUDED.city,
			consumption = EXCLUDED.consumption,
			reading_method = EXCLUDED.reading_method,
			source_file = EXCLUDED.source_file
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reading := range readings {
		_, err := stmt.ExecContext(ctx,
			reading.City,
			reading.AccountNumber,
			reading.MeterID,
			reading.ReadingDate,
			reading.Consumption,
			reading.ReadingMethod,
			reading.Month,
			reading.Year,
			reading.Quarter,
			reading.Season,
			reading.HeatingSeason,
			reading.SourceFile,
			reading.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(readings)))

	return nil
}

// GetReadings retrieves readings with filtering and pagination.
func (r *readingRepository) GetReadings(ctx context.Context, filter ReadingFilter) ([]*models.CleanReading, int, error) {
	query := `
		SELECT id, city, account_number, meter_id, reading_date,
		       consumption, reading_method,
		       month, year, quarter, season, heating_season,
		       source_file, created_at
		FROM readings
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.City != nil {
		query += fmt.Sprintf(" AND city = $%d", argNum)
		args = append(args, *filter.City)
		argNum++
	}

	if filter.AccountNumber != nil {
		query += fmt.Sprintf(" AND account_number = $%d", argNum)
		args = append(args, *filter.AccountNumber)
		argNum++
	}

	if filter.MeterID != nil {
		query += fmt.Sprintf(" AND meter_id = $%d", argNum)
		args = append(args, *filter.MeterID)
		argNum++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND reading_date >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND reading_date <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	if filter.Season != nil {
		query += fmt.Sprintf(" AND season = $%d", argNum)
		args = append(args, *filter.Season)
		argNum++
	}

	if filter.HeatingSeason != nil {
		query += fmt.Sprintf(" AND heating_season = $%d", argNum)
		args = append(args, *filter.HeatingSeason)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_readings", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count readings: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY reading_date DESC, account_number, meter_id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var readings []*models.CleanReading
	err = r.db.SelectContext(ctx, "get_readings", &readings, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get readings: %w", err)
	}

	return readings, totalCount, nil
}

// GetConsumptionStats computes aggregate statistics over the stored
// readings: counts, mean and total consumption, distinct subscriber
// and meter counts.
func (r *readingRepository) GetConsumptionStats(ctx context.Context, filter StatsFilter) (*models.ConsumptionStats, error) {
	query := `
		SELECT
			COUNT(*) AS reading_count,
			AVG(consumption) AS mean_consumption,
			SUM(consumption) AS total_consumption,
			COUNT(DISTINCT account_number) AS distinct_subscribers,
			COUNT(DISTINCT meter_id) AS distinct_meters,
			COUNT(DISTINCT city) AS distinct_cities
		FROM readings
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.City != nil {
		query += fmt.Sprintf(" AND city = $%d", argNum)
		args = append(args, *filter.City)
		argNum++
	}

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	var stats models.ConsumptionStats
	err := r.db.GetContext(ctx, "get_consumption_stats", &stats, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumption stats: %w", err)
	}

	return &stats, nil
}

// GetCityAggregates computes per-city consumption aggregates for
// reporting, optionally restricted to one year.
func (r *readingRepository) GetCityAggregates(ctx context.Context, year *int) ([]*models.CityAggregate, error) {
	query := `
		SELECT
			city,
			COUNT(*) AS reading_count,
			AVG(consumption) AS mean_consumption,
			SUM(consumption) AS total_consumption,
			COUNT(DISTINCT account_number) AS distinct_subscribers
		FROM readings
	`
	args := []interface{}{}

	if year != nil {
		query += " WHERE year = $1"
		args = append(args, *year)
	}

	query += " GROUP BY city ORDER BY total_consumption DESC NULLS LAST"

	var aggregates []*models.CityAggregate
	err := r.db.SelectContext(ctx, "get_city_aggregates", &aggregates, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get city aggregates: %w", err)
	}

	return aggregates, nil
}

// GetReadingMethodCounts counts the stored readings per reading
// method.
func (r *readingRepository) GetReadingMethodCounts(ctx context.Context) ([]*models.ReadingMethodCount, error) {
	query := `
		SELECT reading_method, COUNT(*) AS count
		FROM readings
		GROUP BY reading_method
		ORDER BY count DESC
	`

	var counts []*models.ReadingMethodCount
	err := r.db.SelectContext(ctx, "get_reading_method_counts", &counts, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get reading method counts: %w", err)
	}

	return counts, nil
}

// RefreshSubscriberFeatures recalculates the per-account feature table
// from the stored readings in a single set-based statement. The
// seasonality ratio is winter mean over summer mean, defaulting to 1.0
// when the summer mean is missing or zero; the category buckets are
// high (>2.0), medium (>1.5) and low.
func (r *readingRepository) RefreshSubscriberFeatures(ctx context.Context) (int64, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.StatsCalculationDuration.Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_REFRESH_FEATURES] Subscriber features refreshed", logging.Fields{
			"duration_ms": duration.Milliseconds(),
		})
	}()

	query := `
		INSERT INTO subscriber_features (
			account_number,
			mean_consumption, std_consumption, min_consumption, max_consumption,
			record_count, observation_days,
			winter_mean, summer_mean, seasonality_ratio, seasonality_category,
			updated_at
		)
		SELECT
			account_number,
			AVG(consumption),
			COALESCE(STDDEV_SAMP(consumption), 0),
			MIN(consumption),
			MAX(consumption),
			COUNT(*),
			(MAX(reading_date) - MIN(reading_date)),
			COALESCE(AVG(consumption) FILTER (WHERE season = 'winter'), 0),
			COALESCE(AVG(consumption) FILTER (WHERE season = 'summer'), 0),
			CASE
				WHEN COALESCE(AVG(consumption) FILTER (WHERE season = 'summer'), 0) > 0
				THEN COALESCE(AVG(consumption) FILTER (WHERE season = 'winter'), 0)
				     / AVG(consumption) FILTER (WHERE season = 'summer')
				ELSE 1.0
			END,
			CASE
				WHEN COALESCE(AVG(consumption) FILTER (WHERE season = 'summer'), 0) > 0
				     AND COALESCE(AVG(consumption) FILTER (WHERE season = 'winter'), 0)
				         / AVG(consumption) FILTER (WHERE season = 'summer') > 2.0
				THEN 'high'
				WHEN COALESCE(AVG(consumption) FILTER (WHERE season = 'summer'), 0) > 0
				     AND COALESCE(AVG(consumption) FILTER (WHERE season = 'winter'), 0)
				         / AVG(consumption) FILTER (WHERE season = 'summer') > 1.5
				THEN 'medium'
				ELSE 'low'
			END,
			NOW()
		FROM readings
		WHERE consumption IS NOT NULL
		GROUP BY account_number
		ON CONFLICT (account_number) DO UPDATE SET
			mean_consumption = EXCLUDED.mean_consumption,
			std_consumption = EXCLUDED.std_consumption,
			min_consumption = EXCLUDED.min_consumption,
			max_consumption = EXCLUDED.max_consumption,
			record_count = EXCLUDED.record_count,
			observation_days = EXCLUDED.observation_days,
			winter_mean = EXCLUDED.winter_mean,
			summer_mean = EXCLUDED.summer_mean,
			seasonality_ratio = EXCLUDED.seasonality_ratio,
			seasonality_category = EXCLUDED.seasonality_category,
			updated_at = EXCLUDED.updated_at
	`

	result, err := r.db.ExecContext(ctx, "refresh_subscriber_features", query)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh subscriber features: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

// GetSubscriberFeatures retrieves subscriber features with filtering
// and pagination.
func (r *readingRepository) GetSubscriberFeatures(ctx context.Context, filter FeatureFilter) ([]*models.SubscriberFeatures, int, error) {
	query := `
		SELECT account_number,
		       mean_consumption, std_consumption, min_consumption, max_consumption,
		       record_count, observation_days,
		       winter_mean, summer_mean, seasonality_ratio, seasonality_category,
		       updated_at
		FROM subscriber_features
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.AccountNumber != nil {
		query += fmt.Sprintf(" AND account_number = $%d", argNum)
		args = append(args, *filter.AccountNumber)
		argNum++
	}

	if filter.SeasonalityCategory != nil {
		query += fmt.Sprintf(" AND seasonality_category = $%d", argNum)
		args = append(args, *filter.SeasonalityCategory)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_subscriber_features", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriber features: %w", err)
	}

	query += " ORDER BY account_number"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var features []*models.SubscriberFeatures
	err = r.db.SelectContext(ctx, "get_subscriber_features", &features, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get subscriber features: %w", err)
	}

	return features, totalCount, nil
}

// HealthCheck performs a repository health check.
func (r *readingRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
