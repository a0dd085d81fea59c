package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"gasmeter-platform/internal/models"
)

// rawColumnCount is the fixed column layout of the source exports:
// city, account number, meter id, reading date, consumption, method.
const rawColumnCount = 6

// SchemaError reports a file whose column layout does not match the
// expected six-column export format. The whole file is rejected before
// any row-level cleaning.
type SchemaError struct {
	Columns int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema: expected %d columns, got %d", rawColumnCount, e.Columns)
}

// ParseRows splits decoded file text into raw six-field records using
// ';' as the separator and '"' as the quote character. Every field
// stays raw text; no type inference happens here. Rows shorter than
// six fields after the first are padded with empty strings and left to
// the row validator; extra trailing fields are ignored.
func ParseRows(text string) ([]models.RawReading, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows []models.RawReading
	first := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse delimited text: %w", err)
		}

		if first {
			if len(record) < rawColumnCount {
				return nil, &SchemaError{Columns: len(record)}
			}
			first = false
		}

		for len(record) < rawColumnCount {
			record = append(record, "")
		}

		rows = append(rows, models.RawReading{
			City:          record[0],
			AccountNumber: record[1],
			MeterID:       record[2],
			ReadingDate:   record[3],
			Consumption:   record[4],
			ReadingMethod: record[5],
		})
	}

	return rows, nil
}
