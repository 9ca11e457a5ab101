package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

type storageFake struct {
	files map[string][]byte
}

func (s *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[key] = raw
	return nil
}

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", "Revenue"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	rows := [][]any{
		{"Quarter", "Revenue"},
		{"Q3 2023", 4500000},
		{"Q4 2023", 5100000},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow("Revenue", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestExtractFlattensSheets(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"doc-1_revenue.xlsx": buildWorkbook(t),
	}}
	ex := NewExtractor(storage)

	text, err := ex.Extract(context.Background(), &domain.Document{
		ID: "doc-1", Filename: "revenue.xlsx", StoragePath: "doc-1_revenue.xlsx",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "## Revenue") {
		t.Fatalf("expected sheet heading, got %q", text)
	}
	if !strings.Contains(text, "Q3 2023") {
		t.Fatalf("expected row content, got %q", text)
	}
}

func TestExtractRejectsNonWorkbook(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"doc-2_fake.xlsx": []byte("just some text"),
	}}
	ex := NewExtractor(storage)

	_, err := ex.Extract(context.Background(), &domain.Document{
		ID: "doc-2", Filename: "fake.xlsx", StoragePath: "doc-2_fake.xlsx",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
