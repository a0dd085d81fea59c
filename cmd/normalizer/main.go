package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"gasmeter-platform/internal/config"
	"gasmeter-platform/internal/normalize"
	"gasmeter-platform/internal/services"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	rawDir := flag.String("raw-dir", "./raw_data", "Directory containing raw meter reading files")
	outDir := flag.String("out-dir", "./cleaned_data", "Directory to write normalized files into")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("gasmeter-normalizer", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[NORMALIZER_START] Starting raw file normalization", logging.Fields{
		"version":         "1.0.0",
		"raw_dir":         *rawDir,
		"out_dir":         *outDir,
		"chunk_size":      cfg.Normalizer.ChunkSize,
		"chunk_threshold": cfg.Normalizer.ChunkThreshold,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("gasmeter_normalizer")

	normalizer := normalize.NewNormalizer(normalize.Options{
		ChunkSize:      cfg.Normalizer.ChunkSize,
		ChunkThreshold: cfg.Normalizer.ChunkThreshold,
	})

	normalizationService := services.NewNormalizationService(normalizer, logger, metricsCollector)

	result, err := normalizationService.NormalizeDirectory(ctx, *rawDir, *outDir)
	if err != nil {
		logger.Fatal(ctx, "[NORMALIZER_ERROR] Normalization failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("NORMALIZATION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Succeeded Files:    %d\n", result.SucceededFiles)
	fmt.Printf("Failed Files:       %d\n", result.FailedFiles)
	fmt.Printf("Rows In:            %d\n", result.RowsIn)
	fmt.Printf("Rows Dropped:       %d\n", result.RowsDropped)
	fmt.Printf("Duplicates Removed: %d\n", result.DuplicatesRemoved)
	fmt.Printf("Rows Written:       %d\n", result.RowsWritten)
	fmt.Printf("Duration:           %v\n", result.Duration)

	logger.Info(ctx, "[NORMALIZER_COMPLETE] Normalization completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"succeeded_files":    result.SucceededFiles,
		"failed_files":       result.FailedFiles,
		"rows_written":       result.RowsWritten,
		"rows_dropped":       result.RowsDropped,
		"duplicates_removed": result.DuplicatesRemoved,
		"duration_seconds":   result.Duration.Seconds(),
	})

	if result.FailedFiles > 0 {
		os.Exit(1)
	}
}
