package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"gasmeter-platform/internal/config"
	"gasmeter-platform/internal/repository"
	"gasmeter-platform/internal/services"
	"gasmeter-platform/pkg/database"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	dataDir := flag.String("data-dir", "./raw_data", "Directory containing raw meter export files")
	batchSize := flag.Int("batch-size", 1000, "Number of records to insert in each batch")
	calculateStats := flag.Bool("calculate-stats", false, "Recalculate subscriber features after ingestion")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("gasmeter-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting meter reading ingestion", logging.Fields{
		"version":         "1.0.0",
		"data_dir":        *dataDir,
		"batch_size":      *batchSize,
		"calculate_stats": *calculateStats,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("gasmeter_ingester")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and services
	readingRepo := repository.NewReadingRepository(db, logger, metricsCollector)
	ingestionService := services.NewIngestionService(readingRepo, logger, metricsCollector)
	statsService := services.NewStatisticsService(readingRepo, logger, metricsCollector)
	readingService := services.NewReadingService(readingRepo, logger, metricsCollector)

	// Ingest data
	result, err := ingestionService.IngestDirectory(ctx, *dataDir, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:     %d\n", result.TotalFiles)
	fmt.Printf("Failed Files:    %d\n", result.FailedFiles)
	fmt.Printf("Total Rows:      %d\n", result.TotalRows)
	fmt.Printf("Ingested Rows:   %d\n", result.IngestedRows)
	fmt.Printf("Dropped Rows:    %d\n", result.DroppedRows)
	fmt.Printf("Skipped Rows:    %d\n", result.SkippedRows)
	fmt.Printf("Duration:        %v\n", result.Duration)
	if result.Duration.Seconds() > 0 {
		fmt.Printf("Rows/Second:     %.2f\n", float64(result.IngestedRows)/result.Duration.Seconds())
	}

	// Print the database-level summary
	if stats, err := readingService.GetConsumptionStats(ctx, repository.StatsFilter{}); err != nil {
		logger.Error(ctx, "[SUMMARY_ERROR] Failed to load database summary", logging.Fields{}, err)
	} else {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("DATABASE SUMMARY")
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Stored Readings:      %d\n", stats.ReadingCount)
		fmt.Printf("Distinct Subscribers: %d\n", stats.DistinctSubscribers)
		fmt.Printf("Distinct Meters:      %d\n", stats.DistinctMeters)
		fmt.Printf("Distinct Cities:      %d\n", stats.DistinctCities)

		if counts, err := readingService.GetReadingMethodCounts(ctx); err != nil {
			logger.Error(ctx, "[SUMMARY_ERROR] Failed to load reading method counts", logging.Fields{}, err)
		} else if len(counts) > 0 {
			fmt.Println("Readings by method:")
			for _, c := range counts {
				method := c.ReadingMethod
				if method == "" {
					method = "(unspecified)"
				}
				fmt.Printf("  %-20s %d\n", method, c.Count)
			}
		}
	}

	// Recalculate subscriber features if requested
	if *calculateStats {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("CALCULATING SUBSCRIBER FEATURES")
		fmt.Println(strings.Repeat("=", 80))

		affected, err := statsService.RefreshSubscriberFeatures(ctx)
		if err != nil {
			logger.Error(ctx, "[STATS_ERROR] Feature calculation failed", logging.Fields{}, err)
			fmt.Printf("Feature calculation failed: %v\n", err)
		} else {
			fmt.Printf("Feature calculation completed: %d subscribers updated\n", affected)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_rows":       result.TotalRows,
		"ingested_rows":    result.IngestedRows,
		"dropped_rows":     result.DroppedRows,
		"skipped_rows":     result.SkippedRows,
		"duration_seconds": result.Duration.Seconds(),
	})
}
