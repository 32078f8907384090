// ABOUTME: CSV catalog import for seeding the products table
// ABOUTME: Reads id,name,description,price,stock rows and upserts them

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImportProductsCSV reads product rows from r and upserts them into the
// store. The expected columns are id,name,description,price,stock. A header
// row is detected by a non-numeric first field and skipped. Returns the
// number of products imported.
func ImportProductsCSV(ctx context.Context, s Store, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5
	reader.TrimLeadingSpace = true

	count := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("reading CSV: %w", err)
		}
		line++

		id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			if line == 1 {
				// Header row
				continue
			}
			return count, fmt.Errorf("line %d: invalid product id %q", line, record[0])
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return count, fmt.Errorf("line %d: invalid price %q", line, record[3])
		}

		stock, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		if err != nil {
			return count, fmt.Errorf("line %d: invalid stock %q", line, record[4])
		}

		p := &Product{
			ID:          id,
			Name:        strings.TrimSpace(record[1]),
			Description: strings.TrimSpace(record[2]),
			Price:       price,
			Stock:       stock,
		}
		if p.Name == "" {
			return count, fmt.Errorf("line %d: product name is required", line)
		}

		if err := s.UpsertProduct(ctx, p); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		count++
	}

	return count, nil
}
