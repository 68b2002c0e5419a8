package xlsxtext

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/infrastructure/chunking"
)

type memoryStorage struct {
	data []byte
}

func (s *memoryStorage) Save(_ context.Context, _ string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *memoryStorage) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	workbook := excelize.NewFile()
	defer workbook.Close()

	if err := workbook.SetSheetName("Sheet1", "Budget"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	_ = workbook.SetCellValue("Budget", "A1", "Item")
	_ = workbook.SetCellValue("Budget", "B1", "Cost")
	_ = workbook.SetCellValue("Budget", "A2", "Crane rental")
	_ = workbook.SetCellValue("Budget", "B2", 12500)

	if _, err := workbook.NewSheet("Bids"); err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	_ = workbook.SetCellValue("Bids", "A1", "Vendor")
	_ = workbook.SetCellValue("Bids", "A2", "Acme Ltd")

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestExtractRendersSheetsAsNumberedSections(t *testing.T) {
	storage := &memoryStorage{data: buildWorkbook(t)}
	extractor := New(storage)

	text, err := extractor.Extract(context.Background(), &domain.Document{ID: "doc-1", StoragePath: "doc-1_bids.xlsx"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, fragment := range []string{"SECTION 1 Budget", "SECTION 2 Bids", "Item\tCost", "Crane rental\t12500", "Acme Ltd"} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("extracted text missing %q:\n%s", fragment, text)
		}
	}
}

func TestSheetHeadingsBecomeSectionTitles(t *testing.T) {
	storage := &memoryStorage{data: buildWorkbook(t)}
	extractor := New(storage)

	text, err := extractor.Extract(context.Background(), &domain.Document{ID: "doc-1", StoragePath: "doc-1_bids.xlsx"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	passages := chunking.NewSplitter(900, 150).Split(text)
	titles := make(map[string]bool, len(passages))
	for _, p := range passages {
		titles[p.SectionTitle] = true
	}
	if !titles["SECTION 1 Budget"] || !titles["SECTION 2 Bids"] {
		t.Fatalf("sheet names must survive as section titles, got %v", titles)
	}
}
