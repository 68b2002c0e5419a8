package xlsxtext

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// Extract renders each sheet as tab-separated lines under a sheet heading,
// so downstream chunking can keep rows of one sheet together.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	body, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open stored document: %w", err)
	}
	defer body.Close()

	workbook, err := excelize.OpenReader(body)
	if err != nil {
		return "", fmt.Errorf("parse xlsx %s: %w", doc.ID, err)
	}
	defer workbook.Close()

	var builder strings.Builder
	for i, sheet := range workbook.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q of %s: %w", sheet, doc.ID, err)
		}

		// The numbered form is what the chunker recognizes as a section
		// header, so each sheet becomes its own section titled after it.
		builder.WriteString(fmt.Sprintf("SECTION %d %s\n", i+1, sheet))
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			builder.WriteString(line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
