package normalize

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gasmeter-platform/internal/models"
)

// outputHeader is the cleaned CSV column order: the six cleaned source
// fields followed by the derived calendar features.
var outputHeader = []string{
	"city", "account_number", "meter_id", "reading_date",
	"consumption", "reading_method",
	"month", "year", "quarter", "season", "heating_season",
}

// ChunkedWriter streams cleaned readings into a semicolon-delimited
// UTF-8 file with a byte order mark for spreadsheet compatibility. The
// header is written exactly once and rows are flushed every chunkSize
// records so peak memory stays bounded for large outputs; a chunkSize
// of zero defers all flushing to Close. Writes land
// in a temporary file that is renamed on Close, so a failed file never
// leaves a partial output visible to downstream readers.
type ChunkedWriter struct {
	path      string
	tmpPath   string
	file      *os.File
	csv       *csv.Writer
	chunkSize int
	rows      int
}

// NewChunkedWriter opens the temporary output file and writes the BOM
// and header row.
func NewChunkedWriter(path string, chunkSize int) (*ChunkedWriter, error) {
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write byte order mark: %w", err)
	}

	w := csv.NewWriter(file)
	w.Comma = ';'

	if err := w.Write(outputHeader); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return &ChunkedWriter{
		path:      path,
		tmpPath:   tmpPath,
		file:      file,
		csv:       w,
		chunkSize: chunkSize,
	}, nil
}

// Write appends one cleaned reading. Null consumption serializes as an
// empty cell; the heating-season flag serializes as 1/0.
func (w *ChunkedWriter) Write(r *models.CleanReading) error {
	consumption := ""
	if r.Consumption != nil {
		consumption = strconv.FormatFloat(*r.Consumption, 'f', -1, 64)
	}

	heating := "0"
	if r.HeatingSeason {
		heating = "1"
	}

	record := []string{
		r.City,
		r.AccountNumber,
		r.MeterID,
		r.ReadingDate.Format("2006-01-02"),
		consumption,
		r.ReadingMethod,
		strconv.Itoa(r.Month),
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Quarter),
		r.Season,
		heating,
	}

	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	w.rows++
	if w.chunkSize > 0 && w.rows%w.chunkSize == 0 {
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			return fmt.Errorf("failed to flush chunk: %w", err)
		}
	}

	return nil
}

// Rows returns the number of data rows written so far.
func (w *ChunkedWriter) Rows() int {
	return w.rows
}

// Close flushes remaining rows and atomically moves the temporary file
// into place.
func (w *ChunkedWriter) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		os.Remove(w.tmpPath)
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("failed to finalize output file: %w", err)
	}

	return nil
}

// Abort discards the temporary file without publishing anything.
func (w *ChunkedWriter) Abort() {
	w.file.Close()
	os.Remove(w.tmpPath)
}
