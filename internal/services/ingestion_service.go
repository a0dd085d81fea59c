package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gasmeter-platform/internal/models"
	"gasmeter-platform/internal/normalize"
	"gasmeter-platform/internal/repository"
	"gasmeter-platform/pkg/logging"
	"gasmeter-platform/pkg/metrics"
)

// IngestionService loads raw meter exports into the database, running
// each file through the normalization pipeline and batch-inserting the
// surviving readings. Readings with null or non-positive consumption
// are not persisted.
type IngestionService struct {
	repo    repository.ReadingRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics.
type IngestionResult struct {
	TotalFiles   int
	FailedFiles  int
	TotalRows    int
	IngestedRows int
	DroppedRows  int
	SkippedRows  int
	Duration     time.Duration
	Errors       []string
}

// FileIngestionResult contains per-file ingestion statistics.
type FileIngestionResult struct {
	TotalRows    int
	IngestedRows int
	DroppedRows  int
	SkippedRows  int
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(repo repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests all raw *.csv files from a directory.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting reading ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no data files found in %s", dataDir)
	}

	result := &IngestionResult{
		TotalFiles: len(files),
		Errors:     make([]string, 0),
	}

	s.logger.Info(ctx, "[INGEST_FILES] Found data files", logging.Fields{
		"file_count": len(files),
		"stage":      "FILE_DISCOVERY",
	})

	for _, filePath := range files {
		fileResult, err := s.IngestFile(ctx, filePath, batchSize)
		if err != nil {
			result.FailedFiles++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", filePath, err))
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRows += fileResult.TotalRows
		result.IngestedRows += fileResult.IngestedRows
		result.DroppedRows += fileResult.DroppedRows
		result.SkippedRows += fileResult.SkippedRows

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested", logging.Fields{
			"file_path":     filePath,
			"total_rows":    fileResult.TotalRows,
			"ingested_rows": fileResult.IngestedRows,
			"dropped_rows":  fileResult.DroppedRows,
			"skipped_rows":  fileResult.SkippedRows,
			"stage":         "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Ingestion completed", logging.Fields{
		"total_files":      result.TotalFiles,
		"failed_files":     result.FailedFiles,
		"total_rows":       result.TotalRows,
		"ingested_rows":    result.IngestedRows,
		"dropped_rows":     result.DroppedRows,
		"skipped_rows":     result.SkippedRows,
		"duration_seconds": result.Duration.Seconds(),
		"error_count":      len(result.Errors),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// IngestFile ingests a single raw export file. Dropped rows failed the
// row validator; skipped rows survived cleaning but carry null or
// non-positive consumption and are excluded from persistence.
func (s *IngestionService) IngestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	fileName := filepath.Base(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text, encodingLabel, err := normalize.DecodeBytes(data)
	if err != nil {
		return nil, &normalize.FileError{File: fileName, Stage: normalize.StageUnparsed, Err: err}
	}

	rows, err := normalize.ParseRows(text)
	if err != nil {
		return nil, &normalize.FileError{File: fileName, Stage: normalize.StageEncodingResolved, Err: err}
	}

	s.logger.Debug(ctx, "[INGEST_FILE_PARSED] File parsed", logging.Fields{
		"file":     fileName,
		"encoding": encodingLabel,
		"rows":     len(rows),
	})

	result := &FileIngestionResult{TotalRows: len(rows)}
	batch := make([]*models.CleanReading, 0, batchSize)

	for _, raw := range rows {
		reading, err := normalize.CleanRow(raw)
		if err != nil {
			if errors.Is(err, normalize.ErrRowDropped) {
				result.DroppedRows++
				s.metrics.RecordIngestionError("row_dropped")
				continue
			}
			return nil, err
		}

		if reading.Consumption == nil || *reading.Consumption <= 0 {
			result.SkippedRows++
			s.metrics.RecordIngestionError("non_positive_consumption")
			continue
		}

		reading.SourceFile = fileName
		reading.CreatedAt = time.Now().UTC()
		batch = append(batch, reading)

		if len(batch) >= batchSize {
			if err := s.repo.CreateReadingsBatch(ctx, batch); err != nil {
				return nil, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.IngestedRows += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.repo.CreateReadingsBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.IngestedRows += len(batch)
	}

	return result, nil
}
