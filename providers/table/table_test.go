package table

import (
	"strings"
	"testing"
	"time"

	"github.com/hengadev/hydrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meal struct {
	Name       string    `hydrate:"MealName"`
	Time       time.Time `hydrate:"MealTime"`
	GuestCount *int
}

const mealsCSV = `MealName,MealTime,GuestCount,Notes
Breakfast,2024-01-01T08:00:00,2,early
Dinner,2024-01-01T19:00:00,,late
`

func TestFromCSV(t *testing.T) {
	tbl, err := FromCSV(strings.NewReader(mealsCSV), nil, EmptyAsNull())
	require.NoError(t, err)

	assert.Equal(t, []string{"MealName", "MealTime", "GuestCount", "Notes"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())

	cell, ok := tbl.Row(1).Get("Notes")
	require.True(t, ok)
	assert.Equal(t, Text("late"), cell)
}

func TestHydrate(t *testing.T) {
	tbl, err := FromCSV(strings.NewReader(mealsCSV), nil, EmptyAsNull())
	require.NoError(t, err)

	engine, err := hydrx.New[meal]()
	require.NoError(t, err)

	meals, err := Hydrate(engine, tbl)
	require.NoError(t, err)
	require.Len(t, meals, 2)

	assert.Equal(t, "Breakfast", meals[0].Name)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), meals[0].Time)
	assert.Equal(t, 2, *meals[0].GuestCount)
	assert.Equal(t, "Dinner", meals[1].Name)
	assert.Nil(t, meals[1].GuestCount)
}

func TestHydrate_EmptyCellWithoutEmptyAsNull(t *testing.T) {
	tbl, err := FromCSV(strings.NewReader(mealsCSV), nil)
	require.NoError(t, err)

	engine, err := hydrx.New[meal]()
	require.NoError(t, err)

	_, err = Hydrate(engine, tbl)
	require.Error(t, err)

	var batchErr *hydrx.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Row)
	assert.Equal(t, "GuestCount", batchErr.Key)
}

func TestRowLookup(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		cell Cell
		key  string
		want hydrx.Result
	}{
		{name: "value", cell: Text("x"), key: "A", want: hydrx.Value("x")},
		{name: "null cell", cell: NullCell(), key: "A", want: hydrx.Null()},
		{name: "empty cell", cell: Text(""), key: "A", want: hydrx.Value("")},
		{name: "empty as null", opts: []Option{EmptyAsNull()}, cell: Text(""), key: "A", want: hydrx.Null()},
		{name: "trimmed to empty", opts: []Option{TrimSpace(), EmptyAsNull()}, cell: Text("  "), key: "A", want: hydrx.Null()},
		{name: "trimmed", opts: []Option{TrimSpace()}, cell: Text(" 4 "), key: "A", want: hydrx.Value("4")},
		{name: "missing column", cell: Text("x"), key: "B", want: hydrx.Null()},
		{name: "skip missing", opts: []Option{SkipMissing()}, cell: Text("x"), key: "B", want: hydrx.Skip()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New([]string{"A"}, tt.opts...)
			require.NoError(t, err)
			require.NoError(t, tbl.Append(tt.cell))

			assert.Equal(t, tt.want, Lookup(tbl.Row(0), tt.key))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New([]string{"A", "A"})
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = New([]string{"A", ""})
	assert.ErrorIs(t, err, ErrEmptyColumn)

	tbl, err := New([]string{"A"})
	require.NoError(t, err)
	assert.ErrorIs(t, tbl.AppendStrings("1", "2"), ErrRowWidth)

	require.NoError(t, tbl.Append())
	cell, ok := tbl.Row(0).Get("A")
	assert.True(t, ok)
	assert.False(t, cell.Valid)
}

func TestFromCSV_Errors(t *testing.T) {
	_, err := FromCSV(strings.NewReader(""), nil)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = FromCSV(strings.NewReader("A,B\n1,2,3\n"), nil)
	assert.ErrorIs(t, err, ErrRowWidth)

	_, err = FromCSV(strings.NewReader("A,A\n"), nil)
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestFromCSV_Options(t *testing.T) {
	tbl, err := FromCSV(strings.NewReader("# exported\nA;B\n1;2\n"), []CSVOption{WithComma(';'), WithComment('#')})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tbl.Columns())
	assert.Equal(t, hydrx.Value("2"), tbl.Row(0).Lookup("B"))
}

func TestAll(t *testing.T) {
	tbl, err := FromCSV(strings.NewReader(mealsCSV), nil)
	require.NoError(t, err)

	engine, err := hydrx.New[meal]()
	require.NoError(t, err)

	var names []string
	for m, err := range hydrx.HydrateSeq(engine, tbl.All(), Lookup, hydrx.Include("MealName")) {
		require.NoError(t, err)
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Breakfast", "Dinner"}, names)
}

func TestCompare(t *testing.T) {
	c := Compare([]string{"MealName", "MealTime", "GuestCount"}, []string{"MealName", "Notes", "MealTime"})
	assert.Equal(t, []string{"GuestCount"}, c.Missing)
	assert.Equal(t, []string{"Notes"}, c.Unused)
	assert.False(t, c.Complete())

	assert.True(t, Compare([]string{"A"}, []string{"A", "B"}).Complete())
}
