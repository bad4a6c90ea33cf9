package scheduler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/spider-crawler/spider/internal/orderedstore"
)

// ExportFormat names the file format a schedule dump is rendered as,
// adapted from the teacher's report.Exporter down to the one row
// shape the scheduler has: an ordered-store Entry.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
	ExportJSON ExportFormat = "json"
)

var exportColumns = []string{"score", "hash", "freq"}

// Export writes the full schedule to path in the given format (spec
// §13: rounding out the Admin component beyond the bare text dump).
// Rows are emitted in the schedule's own ascending (score, hash)
// order, same as Dump.
func (s *Scheduler) Export(path string, format ExportFormat) (rows int, err error) {
	cur, cerr := s.env.CursorOpen()
	if cerr != nil {
		s.errs.Push(KindInternal, cerr)
		return 0, cerr
	}
	defer cur.Abort()

	var entries []orderedstore.Entry
	if err := cur.All(func(e orderedstore.Entry) error {
		entries = append(entries, e)
		return nil
	}); err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}

	switch format {
	case ExportCSV:
		err = exportCSV(path, entries)
	case ExportXLSX:
		err = exportXLSX(path, entries)
	case ExportJSON:
		err = exportJSON(path, entries)
	default:
		err = fmt.Errorf("scheduler: export: unsupported format %q", format)
	}
	if err != nil {
		s.errs.Push(KindInternal, err)
		return 0, err
	}
	return len(entries), nil
}

func exportCSV(path string, entries []orderedstore.Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("scheduler: export csv: create: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write(exportColumns); err != nil {
		return fmt.Errorf("scheduler: export csv: header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			fmt.Sprintf("%.6e", e.Score),
			fmt.Sprintf("%016x", e.Hash),
			fmt.Sprintf("%.6e", e.Freq),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("scheduler: export csv: row: %w", err)
		}
	}
	return nil
}

func exportXLSX(path string, entries []orderedstore.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "schedule"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("scheduler: export xlsx: new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00C853"}},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, e := range entries {
		scoreCell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		hashCell, _ := excelize.CoordinatesToCellName(2, rowIdx+2)
		freqCell, _ := excelize.CoordinatesToCellName(3, rowIdx+2)

		f.SetCellValue(sheet, scoreCell, e.Score)
		f.SetCellValue(sheet, hashCell, fmt.Sprintf("%016x", e.Hash))
		f.SetCellValue(sheet, freqCell, e.Freq)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("scheduler: export xlsx: save: %w", err)
	}
	return nil
}

type exportRow struct {
	Score float32 `json:"score"`
	Hash  string  `json:"hash"`
	Freq  float32 `json:"freq"`
}

func exportJSON(path string, entries []orderedstore.Entry) error {
	rows := make([]exportRow, len(entries))
	for i, e := range entries {
		rows[i] = exportRow{Score: e.Score, Hash: fmt.Sprintf("%016x", e.Hash), Freq: e.Freq}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("scheduler: export json: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("scheduler: export json: write: %w", err)
	}
	return nil
}
