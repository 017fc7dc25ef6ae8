package normalize

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"insightsuite/internal/logger"
)

// LoadFile reads a raw tabular file and normalizes it through the adapter.
// Gzip compression is handled transparently, a UTF-8 BOM is stripped, and
// malformed rows are skipped rather than failing the batch.
func (a *Adapter) LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	header, rows, skipped, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read table from %s: %w", path, err)
	}

	res := a.Normalize(header, rows)
	res.TotalRows += skipped
	res.SkippedRows += skipped
	return res, nil
}

// readTable parses CSV content tolerantly: lazy quotes, variable field
// counts, and per-row parse errors counted instead of raised.
func readTable(r io.Reader) (header []string, rows [][]string, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err = cr.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			logger.Debug("skipping malformed row", "error", err.Error())
			continue
		}
		rows = append(rows, row)
	}
	return header, rows, skipped, nil
}
