package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"cdncrawler/internal/model"
)

var header = []string{"Prefix", "Index", "TookMs", "Cache", "Link"}

// ExportStoreToCSV writes one row per stored probe, grouped by prefix in
// sorted order.
func ExportStoreToCSV(store model.Store, outputPath string) (int, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return 0, err
	}

	rows := 0
	for _, prefix := range store.Prefixes() {
		for i, r := range store[prefix] {
			record := []string{
				prefix,
				strconv.Itoa(i),
				strconv.FormatFloat(r.Took*1000, 'f', 2, 64),
				r.Cache,
				r.Link,
			}
			if err := writer.Write(record); err != nil {
				return rows, fmt.Errorf("write row %d of %s: %w", i, prefix, err)
			}
			rows++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, err
	}
	return rows, nil
}
