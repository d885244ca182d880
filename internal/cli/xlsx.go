package cli

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/tfexplorer/internal/vector"
)

const sheetName = "Results"

// WriteNeighborsXLSX saves ranked results as a spreadsheet with a header row
// (rank, word, similarity) at path. title, when set, goes in a row above the header.
func WriteNeighborsXLSX(path, title string, ns []vector.Neighbor) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	if title != "" {
		if err := f.SetCellValue(sheetName, "A1", title); err != nil {
			return err
		}
		row = 2
	}
	rows := make([][]interface{}, 0, len(ns)+1)
	rows = append(rows, []interface{}{"rank", "word", "similarity"})
	for i, n := range ns {
		rows = append(rows, []interface{}{i + 1, n.Word, n.Similarity})
	}
	for _, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := values
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
