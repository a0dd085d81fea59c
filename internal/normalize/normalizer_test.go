package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"gasmeter-platform/internal/models"
)

func TestCleanRow(t *testing.T) {
	tests := []struct {
		name    string
		raw     models.RawReading
		wantErr bool
		check   func(*testing.T, *models.CleanReading)
	}{
		{
			name: "complete row",
			raw: models.RawReading{
				City:          "CityA",
				AccountNumber: "ACC1",
				MeterID:       "M-001",
				ReadingDate:   "05.03.22",
				Consumption:   "1 500,5",
				ReadingMethod: "manual",
			},
			check: func(t *testing.T, r *models.CleanReading) {
				if r.City != "CityA" {
					t.Errorf("City = %q, want %q", r.City, "CityA")
				}
				if r.AccountNumber != "ACC1" {
					t.Errorf("AccountNumber = %q, want %q", r.AccountNumber, "ACC1")
				}
				if r.MeterID != "001" {
					t.Errorf("MeterID = %q, want %q", r.MeterID, "001")
				}

				wantDate := time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC)
				if !r.ReadingDate.Equal(wantDate) {
					t.Errorf("ReadingDate = %v, want %v", r.ReadingDate, wantDate)
				}

				if r.Consumption == nil {
					t.Fatal("Consumption should not be nil")
				}
				if *r.Consumption != 1500.5 {
					t.Errorf("Consumption = %v, want %v", *r.Consumption, 1500.5)
				}

				if r.Month != 3 {
					t.Errorf("Month = %d, want 3", r.Month)
				}
				if r.Year != 2022 {
					t.Errorf("Year = %d, want 2022", r.Year)
				}
				if r.Quarter != 1 {
					t.Errorf("Quarter = %d, want 1", r.Quarter)
				}
				if r.Season != SeasonSpring {
					t.Errorf("Season = %q, want %q", r.Season, SeasonSpring)
				}
				if !r.HeatingSeason {
					t.Error("HeatingSeason should be true for March")
				}
			},
		},
		{
			name: "unparseable consumption survives as null",
			raw: models.RawReading{
				City:          "CityA",
				AccountNumber: "ACC1",
				MeterID:       "001",
				ReadingDate:   "15.06.2023",
				Consumption:   "12.3.4",
				ReadingMethod: "manual",
			},
			check: func(t *testing.T, r *models.CleanReading) {
				if r.Consumption != nil {
					t.Errorf("Consumption = %v, want nil", *r.Consumption)
				}
				if r.Season != SeasonSummer {
					t.Errorf("Season = %q, want %q", r.Season, SeasonSummer)
				}
				if r.HeatingSeason {
					t.Error("HeatingSeason should be false for June")
				}
			},
		},
		{
			name: "empty account number drops the row",
			raw: models.RawReading{
				City:        "CityA",
				MeterID:     "001",
				ReadingDate: "15.06.2023",
				Consumption: "100",
			},
			wantErr: true,
		},
		{
			name: "unparseable date drops the row",
			raw: models.RawReading{
				City:          "CityA",
				AccountNumber: "ACC1",
				MeterID:       "001",
				ReadingDate:   "not a date",
				Consumption:   "100",
			},
			wantErr: true,
		},
		{
			name: "meter id without digits drops the row",
			raw: models.RawReading{
				City:          "CityA",
				AccountNumber: "ACC1",
				MeterID:       "unknown",
				ReadingDate:   "15.06.2023",
				Consumption:   "100",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanRow(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected row to be dropped")
				}
				if !errors.Is(err, ErrRowDropped) {
					t.Fatalf("error = %v, want ErrRowDropped", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanRow failed: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestNormalizeFile(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()

	content := "CityA;ACC1;M-001;05.03.22;1 500,5;manual\n" +
		"CityA;ACC1;M-001;05.03.22;1 500,5;manual\n" + // exact duplicate
		"CityA;;M-002;05.03.22;10;manual\n" + // dropped: empty account
		"CityB;ACC2;M-003;06.03.22;abc;remote\n" // kept: null consumption

	inputPath := filepath.Join(rawDir, "export.csv")
	if err := os.WriteFile(inputPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	n := NewNormalizer(DefaultOptions())
	result, err := n.NormalizeFile(inputPath, outDir)
	if err != nil {
		t.Fatalf("NormalizeFile failed: %v", err)
	}

	if result.RowsIn != 4 {
		t.Errorf("RowsIn = %d, want 4", result.RowsIn)
	}
	if result.RowsDropped != 1 {
		t.Errorf("RowsDropped = %d, want 1", result.RowsDropped)
	}
	if result.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved = %d, want 1", result.DuplicatesRemoved)
	}
	if result.RowsWritten != 2 {
		t.Errorf("RowsWritten = %d, want 2", result.RowsWritten)
	}

	wantPath := filepath.Join(outDir, "export_cleaned.csv")
	if result.OutputPath != wantPath {
		t.Errorf("OutputPath = %q, want %q", result.OutputPath, wantPath)
	}

	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	if data[0] != 0xEF || data[1] != 0xBB || data[2] != 0xBF {
		t.Error("output should start with a UTF-8 byte order mark")
	}

	lines := strings.Split(strings.TrimRight(string(data[3:]), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d output lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "city;account_number;meter_id;reading_date") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "2022-03-05") {
		t.Errorf("row should carry the normalized date: %q", lines[1])
	}
	if !strings.Contains(lines[1], "1500.5") {
		t.Errorf("row should carry the parsed consumption: %q", lines[1])
	}
	if !strings.Contains(lines[2], ";;") {
		t.Errorf("null consumption should serialize as an empty cell: %q", lines[2])
	}
}

func TestNormalizeFile_Windows1251Input(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()

	// Repeated so the charset detector has a meaningful sample. The
	// repeats collapse in the duplicate check.
	text := strings.Repeat("Североград;ACC1;M-001;05.03.22;150,5;ручной ввод показаний\n", 20)
	encoded, _, err := transform.Bytes(charmap.Windows1251.NewEncoder(), []byte(text))
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	inputPath := filepath.Join(rawDir, "export.csv")
	if err := os.WriteFile(inputPath, encoded, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	n := NewNormalizer(DefaultOptions())
	result, err := n.NormalizeFile(inputPath, outDir)
	if err != nil {
		t.Fatalf("NormalizeFile failed: %v", err)
	}

	if result.RowsIn != 20 {
		t.Errorf("RowsIn = %d, want 20", result.RowsIn)
	}
	if result.DuplicatesRemoved != 19 {
		t.Errorf("DuplicatesRemoved = %d, want 19", result.DuplicatesRemoved)
	}
	if result.RowsWritten != 1 {
		t.Fatalf("RowsWritten = %d, want 1", result.RowsWritten)
	}

	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "Североград") {
		t.Error("output should contain the decoded city name in UTF-8")
	}
}

func TestNormalizeFile_SchemaError(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()

	inputPath := filepath.Join(rawDir, "bad.csv")
	if err := os.WriteFile(inputPath, []byte("a;b;c;d\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	n := NewNormalizer(DefaultOptions())
	_, err := n.NormalizeFile(inputPath, outDir)
	if err == nil {
		t.Fatal("expected a file-level error")
	}

	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %T: %v", err, err)
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected wrapped SchemaError, got %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected file should leave no output, found %d entries", len(entries))
	}
}

func TestNormalizeFile_MissingInput(t *testing.T) {
	n := NewNormalizer(DefaultOptions())
	_, err := n.NormalizeFile(filepath.Join(t.TempDir(), "missing.csv"), t.TempDir())
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}

	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %T", err)
	}
	if fileErr.Stage != StageUnparsed {
		t.Errorf("Stage = %q, want %q", fileErr.Stage, StageUnparsed)
	}
}
