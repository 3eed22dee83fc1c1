package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// column headers of the source dataset.
const (
	colID         = "ID"
	colName       = "Name"
	colType       = "Type"
	colAddress    = "Address"
	colTel        = "Tel"
	colCity       = "City"
	colTown       = "Town"
	colCreateDate = "CreateDate"
	colHostWords  = "HostWords"
)

// ReadCSV parses the source dataset from r. The first record is the
// header; columns are mapped by name so their order does not matter.
// Extra columns are ignored.
func ReadCSV(r io.Reader) ([]SourceRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	for _, required := range []string{colID, colName, colCreateDate} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []SourceRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, SourceRow{
			ID:         field(rec, colID),
			Name:       field(rec, colName),
			Type:       field(rec, colType),
			Address:    field(rec, colAddress),
			Tel:        field(rec, colTel),
			City:       field(rec, colCity),
			Town:       field(rec, colTown),
			CreateDate: field(rec, colCreateDate),
			HostWords:  field(rec, colHostWords),
		})
	}
	return rows, nil
}

// ReadCSVFile opens and parses the source dataset at path.
func ReadCSVFile(path string) ([]SourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}
