package xlsx

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

const (
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheet = "Sheet1"
	emptySheet   = "Documents"
)

var header = []any{"Name", "Category", "Status", "Size", "Uploaded at"}

// Exporter writes a grouped view as a workbook, one sheet per format group.
type Exporter struct {
	timeLayout string
}

func NewExporter() *Exporter {
	return &Exporter{timeLayout: time.RFC3339}
}

func (e *Exporter) ContentType() string {
	return ContentType
}

func (e *Exporter) Export(ctx context.Context, groups []domain.Group, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	if len(groups) == 0 {
		if err := f.SetSheetName(defaultSheet, emptySheet); err != nil {
			return fmt.Errorf("xlsx rename sheet: %w", err)
		}
		if err := writeHeader(f, emptySheet, headerStyle); err != nil {
			return err
		}
		return write(f, w)
	}

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		sheet := group.Label
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("xlsx rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx new sheet %q: %w", sheet, err)
		}

		if err := writeHeader(f, sheet, headerStyle); err != nil {
			return err
		}
		for row, doc := range group.Documents {
			cell, err := excelize.CoordinatesToCellName(1, row+2)
			if err != nil {
				return fmt.Errorf("xlsx cell name: %w", err)
			}
			values := []any{
				doc.Name,
				categoryCell(doc),
				string(doc.Status),
				domain.FormatSize(doc.SizeBytes),
				doc.UploadedAt.Format(e.timeLayout),
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("xlsx write row: %w", err)
			}
		}
	}

	f.SetActiveSheet(0)
	return write(f, w)
}

func writeHeader(f *excelize.File, sheet string, style int) error {
	row := header
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("xlsx write header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 40); err != nil {
		return fmt.Errorf("xlsx column width: %w", err)
	}
	return nil
}

func categoryCell(doc domain.Document) string {
	if doc.Status == domain.StatusAnalyzing || doc.Category == "" {
		return "-"
	}
	return string(doc.Category)
}

func write(f *excelize.File, w io.Writer) error {
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write workbook: %w", err)
	}
	return nil
}
