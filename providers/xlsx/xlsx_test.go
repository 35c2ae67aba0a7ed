package xlsx

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hengadev/hydrx"
	"github.com/hengadev/hydrx/providers/table"
)

type meal struct {
	Name       string `hydrate:"MealName"`
	GuestCount *int
	Vegetarian bool
}

func workbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	return f
}

func TestRead(t *testing.T) {
	f := workbook(t, [][]any{
		{"MealName", "GuestCount", "Vegetarian"},
		{"Breakfast", 2, true},
		{"Dinner"},
	})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Read(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"MealName", "GuestCount", "Vegetarian"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())

	engine, err := hydrx.New[meal]()
	require.NoError(t, err)

	meals, err := table.Hydrate(engine, tbl)
	require.NoError(t, err)

	assert.Equal(t, "Breakfast", meals[0].Name)
	assert.Equal(t, 2, *meals[0].GuestCount)
	assert.True(t, meals[0].Vegetarian)

	assert.Equal(t, "Dinner", meals[1].Name)
	assert.Nil(t, meals[1].GuestCount)
	assert.False(t, meals[1].Vegetarian)
}

func TestReadFile(t *testing.T) {
	f := workbook(t, [][]any{{"MealName"}, {"Lunch"}})
	_, err := f.NewSheet("Extra")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "meals.xlsx")
	require.NoError(t, f.SaveAs(path))

	sheets, err := Sheets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Extra"}, sheets)

	tbl, err := ReadFile(path, "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, hydrx.Value("Lunch"), tbl.Row(0).Lookup("MealName"))

	_, err = ReadFile(path, "Extra")
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadFile(path, "Missing")
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "none.xlsx"), "")
	assert.Error(t, err)
}

func TestRead_DuplicateHeader(t *testing.T) {
	f := workbook(t, [][]any{{"MealName", "MealName"}})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = Read(buf, "")
	assert.ErrorIs(t, err, table.ErrDuplicateColumn)
}
