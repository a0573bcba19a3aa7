package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/domainhound/domainhound/internal/model"
)

// ExportXLSX writes the records as a single-sheet workbook with the same
// columns as the CSV rendition.
func ExportXLSX(path string, recs []model.DomainRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range csvColumns {
		header.AddCell().Value = col
	}

	for _, rec := range recs {
		row := sheet.AddRow()
		for _, cell := range csvRow(rec) {
			row.AddCell().Value = cell
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}
