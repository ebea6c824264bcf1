package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"agrovet/internal/metrics"
)

// MetricsFileName is the download name of the document metrics CSV.
const MetricsFileName = "agrovet_metrics.csv"

// WriteMetricsCSV writes one header row of metric keys and one row of values.
// The set should already be in output order (extracted keys, then derived).
func WriteMetricsCSV(w io.Writer, set metrics.Set) error {
	const op = "WriteMetricsCSV"

	if set.Len() == 0 {
		return fmt.Errorf("%s: %w", op, metrics.ErrNoMetrics)
	}

	entries := set.Entries()
	header := make([]string, len(entries))
	row := make([]string, len(entries))
	for i, e := range entries {
		header[i] = string(e.Key)
		row[i] = strconv.FormatFloat(e.Value, 'f', -1, 64)
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll([][]string{header, row}); err != nil {
		return fmt.Errorf("%s: failed to write CSV: %w", op, err)
	}
	return nil
}

// MetricsCSV renders the set as CSV bytes.
func MetricsCSV(set metrics.Set) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteMetricsCSV(&buf, set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadMetricsCSV parses a file written by WriteMetricsCSV.
func ReadMetricsCSV(r io.Reader) (metrics.Set, error) {
	const op = "ReadMetricsCSV"

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return metrics.Set{}, fmt.Errorf("%s: failed to read CSV: %w", op, err)
	}
	if len(records) != 2 {
		return metrics.Set{}, fmt.Errorf("%s: expected a header and one data row, got %d rows", op, len(records))
	}

	header, row := records[0], records[1]
	entries := make([]metrics.Entry, 0, len(header))
	for i, name := range header {
		key, err := metrics.ParseKey(strings.TrimSpace(name))
		if err != nil {
			return metrics.Set{}, fmt.Errorf("%s: column %d: %w", op, i+1, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return metrics.Set{}, fmt.Errorf("%s: invalid value for %s: %w", op, key, err)
		}
		entries = append(entries, metrics.Entry{Key: key, Value: v})
	}
	return metrics.NewSet(entries...), nil
}
