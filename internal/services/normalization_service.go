package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gasmeter-platform/internal/normalize"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

// NormalizationService drives the raw-file normalization pipeline over
// a directory of exports. Files are processed one at a time; a failed
// file is logged and counted, and the batch continues.
type NormalizationService struct {
	normalizer *normalize.Normalizer
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// BatchResult contains batch-level normalization statistics.
type BatchResult struct {
	TotalFiles        int
	SucceededFiles    int
	FailedFiles       int
	RowsIn            int
	RowsDropped       int
	DuplicatesRemoved int
	RowsWritten       int
	Duration          time.Duration
	FileResults       []*normalize.FileResult
	Errors            []string
}

// NewNormalizationService creates a new normalization service.
func NewNormalizationService(normalizer *normalize.Normalizer, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *NormalizationService {
	return &NormalizationService{
		normalizer: normalizer,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// NormalizeDirectory normalizes every *.csv file in rawDir into
// outDir.
func (s *NormalizationService) NormalizeDirectory(ctx context.Context, rawDir, outDir string) (*BatchResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[NORMALIZE_START] Starting raw file normalization", logging.Fields{
		"raw_dir": rawDir,
		"out_dir": outDir,
		"stage":   "INITIALIZATION",
	})

	files, err := filepath.Glob(filepath.Join(rawDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no raw files found in %s", rawDir)
	}

	result := &BatchResult{
		TotalFiles: len(files),
		Errors:     make([]string, 0),
	}

	s.logger.Info(ctx, "[NORMALIZE_FILES] Found raw files", logging.Fields{
		"file_count": len(files),
		"stage":      "FILE_DISCOVERY",
	})

	for _, filePath := range files {
		fileResult, err := s.normalizer.NormalizeFile(filePath, outDir)
		if err != nil {
			result.FailedFiles++
			result.Errors = append(result.Errors, err.Error())
			s.logger.Error(ctx, "[NORMALIZE_FILE_ERROR] File normalization failed", logging.Fields{
				"file_path": filePath,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordNormalizedFile("failed")
			continue
		}

		result.SucceededFiles++
		result.RowsIn += fileResult.RowsIn
		result.RowsDropped += fileResult.RowsDropped
		result.DuplicatesRemoved += fileResult.DuplicatesRemoved
		result.RowsWritten += fileResult.RowsWritten
		result.FileResults = append(result.FileResults, fileResult)

		s.metrics.RecordNormalizedFile("succeeded")
		s.metrics.NormalizationRowsDropped.Add(float64(fileResult.RowsDropped))

		s.logger.Info(ctx, "[NORMALIZE_FILE_SUCCESS] File normalized", logging.Fields{
			"file":               fileResult.File,
			"output_path":        fileResult.OutputPath,
			"encoding":           fileResult.Encoding,
			"rows_in":            fileResult.RowsIn,
			"rows_dropped":       fileResult.RowsDropped,
			"duplicates_removed": fileResult.DuplicatesRemoved,
			"rows_written":       fileResult.RowsWritten,
			"stage":              "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.NormalizationDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[NORMALIZE_COMPLETE] Normalization completed", logging.Fields{
		"total_files":      result.TotalFiles,
		"succeeded_files":  result.SucceededFiles,
		"failed_files":     result.FailedFiles,
		"rows_in":          result.RowsIn,
		"rows_dropped":     result.RowsDropped,
		"rows_written":     result.RowsWritten,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}
