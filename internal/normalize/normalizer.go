package normalize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gasmeter-platform/internal/models"
)

// Stage identifies how far a file progressed through the pipeline.
type Stage string

const (
	StageUnparsed         Stage = "unparsed"
	StageEncodingResolved Stage = "encoding_resolved"
	StageRowsParsed       Stage = "rows_parsed"
	StageFieldsCleaned    Stage = "fields_cleaned"
	StageRowsValidated    Stage = "rows_validated"
	StageFeaturesDerived  Stage = "features_derived"
	StagePersisted        Stage = "persisted"
)

// FileError is a file-level failure: the file is skipped, counted as
// failed, and the batch continues with the next file.
type FileError struct {
	File  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: failed at stage %s: %v", e.File, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ErrRowDropped marks a row that failed validation. Dropped rows are a
// routine outcome, counted in the file summary rather than surfaced
// per row.
var ErrRowDropped = errors.New("row dropped")

// FileResult is the per-file normalization summary.
type FileResult struct {
	File              string
	OutputPath        string
	Encoding          string
	RowsIn            int
	RowsDropped       int
	DuplicatesRemoved int
	RowsWritten       int
	Duration          time.Duration
}

// Options tune the normalizer's output chunking.
type Options struct {
	// ChunkThreshold is the row count above which output is flushed in
	// chunks; ChunkSize is the flush interval. Both bound peak memory
	// during serialization, not correctness.
	ChunkThreshold int
	ChunkSize      int
}

// DefaultOptions mirror the source system's 500k/200k split policy.
func DefaultOptions() Options {
	return Options{
		ChunkThreshold: 500000,
		ChunkSize:      200000,
	}
}

// Normalizer turns raw meter export files into cleaned, typed CSV
// files. It is stateless across files; aggregate counters live with
// the batch driver.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a Normalizer. Zero options fall back to the
// defaults.
func NewNormalizer(opts Options) *Normalizer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}
	if opts.ChunkThreshold <= 0 {
		opts.ChunkThreshold = DefaultOptions().ChunkThreshold
	}
	return &Normalizer{opts: opts}
}

// CleanRow cleans all six fields of a raw row, applies the row
// validator and derives calendar features. A row survives only if the
// account number and meter id are non-empty after cleaning and the
// date parsed; otherwise ErrRowDropped is returned. An unparseable
// consumption stays null and does not drop the row here.
func CleanRow(raw models.RawReading) (*models.CleanReading, error) {
	city := CleanText(raw.City)
	account := CleanText(raw.AccountNumber)
	method := CleanText(raw.ReadingMethod)
	meterID := CleanMeterID(raw.MeterID)

	date, dateErr := CleanDate(raw.ReadingDate)

	var consumption *float64
	if v, err := CleanConsumption(raw.Consumption); err == nil {
		consumption = &v
	}

	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("%w: empty account number", ErrRowDropped)
	}
	if dateErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrRowDropped, dateErr)
	}
	if strings.TrimSpace(meterID) == "" {
		return nil, fmt.Errorf("%w: empty meter id", ErrRowDropped)
	}

	return &models.CleanReading{
		City:          city,
		AccountNumber: account,
		MeterID:       meterID,
		ReadingDate:   date,
		Consumption:   consumption,
		ReadingMethod: method,
		Month:         int(date.Month()),
		Year:          date.Year(),
		Quarter:       QuarterForMonth(date.Month()),
		Season:        SeasonForMonth(date.Month()),
		HeatingSeason: IsHeatingSeason(date.Month()),
	}, nil
}

// NormalizeFile runs one file through the full pipeline and writes the
// cleaned output into outDir as <name>_cleaned.csv. File-level
// failures (encoding, schema) return a FileError and leave no partial
// output behind.
func (n *Normalizer) NormalizeFile(path, outDir string) (*FileResult, error) {
	start := time.Now()
	name := filepath.Base(path)

	result := &FileResult{File: name}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{File: name, Stage: StageUnparsed, Err: err}
	}

	text, encodingLabel, err := DecodeBytes(data)
	if err != nil {
		return nil, &FileError{File: name, Stage: StageUnparsed, Err: err}
	}
	result.Encoding = encodingLabel

	rows, err := ParseRows(text)
	if err != nil {
		return nil, &FileError{File: name, Stage: StageEncodingResolved, Err: err}
	}
	result.RowsIn = len(rows)

	cleaned := make([]*models.CleanReading, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, raw := range rows {
		record, err := CleanRow(raw)
		if err != nil {
			result.RowsDropped++
			continue
		}

		key := duplicateKey(record)
		if _, dup := seen[key]; dup {
			result.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}

		cleaned = append(cleaned, record)
	}

	outputName := strings.TrimSuffix(name, filepath.Ext(name)) + "_cleaned.csv"
	outputPath := filepath.Join(outDir, outputName)

	// Chunked flushing only engages above the threshold; smaller files
	// are flushed once on Close.
	chunkSize := 0
	if len(cleaned) > n.opts.ChunkThreshold {
		chunkSize = n.opts.ChunkSize
	}

	writer, err := NewChunkedWriter(outputPath, chunkSize)
	if err != nil {
		return nil, &FileError{File: name, Stage: StageFeaturesDerived, Err: err}
	}

	for _, record := range cleaned {
		if err := writer.Write(record); err != nil {
			writer.Abort()
			return nil, &FileError{File: name, Stage: StageFeaturesDerived, Err: err}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, &FileError{File: name, Stage: StageFeaturesDerived, Err: err}
	}

	result.OutputPath = outputPath
	result.RowsWritten = len(cleaned)
	result.Duration = time.Since(start)

	return result, nil
}

// duplicateKey joins the cleaned fields so exact duplicate rows can be
// removed, matching the source dashboard's duplicate check.
func duplicateKey(r *models.CleanReading) string {
	consumption := ""
	if r.Consumption != nil {
		consumption = fmt.Sprintf("%g", *r.Consumption)
	}
	return strings.Join([]string{
		r.City,
		r.AccountNumber,
		r.MeterID,
		r.ReadingDate.Format("2006-01-02"),
		consumption,
		r.ReadingMethod,
	}, "\x1f")
}
