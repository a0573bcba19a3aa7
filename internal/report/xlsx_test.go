package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/domainhound/domainhound/internal/model"
)

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")

	recs := []model.DomainRecord{record("a.com"), record("b.com")}
	require.NoError(t, ExportXLSX(path, recs))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "domain", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "a.com", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "b.com", sheet.Rows[2].Cells[0].Value)
	assert.Equal(t, "7", sheet.Rows[1].Cells[2].Value)
}
