package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func findStruct(t *testing.T, structs []StructInfo, name string) StructInfo {
	t.Helper()
	for _, s := range structs {
		if s.StructName == name {
			return s
		}
	}
	t.Fatalf("struct %s not discovered", name)
	return StructInfo{}
}

func TestDiscoverStructs(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "meal.go", `package meals

import "time"

type MealTime struct {
	Time      time.Time `+"`hydrate:\"MealTime\"`"+`
	TimeOfDay time.Duration
}

type MealInfo struct {
	MealTime
	Name string `+"`hydrate:\"MealName\"`"+`
}

type MealWithGuests struct {
	MealInfo
	Guests     string
	GuestCount *int
	notes      string
	Internal   string `+"`hydrate:\"-\"`"+`
}
`)
	writeFile(t, dir, "plain.go", `package meals

type Plain struct {
	ID   int
	Name string
}
`)

	structs, err := DiscoverStructs(dir, &Config{})
	require.NoError(t, err)

	names := make([]string, 0, len(structs))
	for _, s := range structs {
		names = append(names, s.StructName)
	}
	assert.Equal(t, []string{"MealInfo", "MealTime", "MealWithGuests"}, names)

	guests := findStruct(t, structs, "MealWithGuests")
	assert.Equal(t, "meals", guests.PackageName)
	assert.Equal(t, "meal.go", guests.SourceFile)
	assert.True(t, guests.HasTags)
	assert.True(t, guests.Valid())
	assert.Equal(t, []string{"MealTime", "TimeOfDay", "MealName", "Guests", "GuestCount"}, guests.Keys())

	require.Len(t, guests.Fields, 6)
	first := guests.Fields[0]
	assert.Equal(t, "MealInfo.MealTime.Time", first.Path)
	assert.Equal(t, "time.Time", first.Type)
	assert.True(t, first.Explicit)
	assert.True(t, first.Embedded)

	last := guests.Fields[5]
	assert.Equal(t, "Internal", last.Name)
	assert.True(t, last.Ignored)
	assert.Empty(t, last.Key)

	count := guests.Fields[4]
	assert.Equal(t, "*int", count.Type)
	assert.False(t, count.Embedded)
}

func TestDiscoverStructsAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain.go", `package plain

type Plain struct {
	ID   int
	Name string
}
`)

	structs, err := DiscoverStructs(dir, &Config{All: true})
	require.NoError(t, err)
	require.Len(t, structs, 1)
	assert.False(t, structs[0].HasTags)
	assert.Equal(t, []string{"ID", "Name"}, structs[0].Keys())
}

func TestDiscoverStructsValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.go", `package bad

type Base struct {
	Name string
}

type Broken struct {
	Empty string `+"`hydrate:\"\"`"+`
	Comma string `+"`hydrate:\"a,b\"`"+`
}

type Duplicate struct {
	Base
	Other string `+"`hydrate:\"Name\"`"+`
}
`)

	structs, err := DiscoverStructs(dir, nil)
	require.NoError(t, err)

	broken := findStruct(t, structs, "Broken")
	assert.False(t, broken.Valid())
	for _, f := range broken.Fields {
		assert.False(t, f.IsValid, f.Name)
		require.Len(t, f.ValidationErrors, 1)
		assert.Contains(t, f.ValidationErrors[0], f.Name)
	}

	dup := findStruct(t, structs, "Duplicate")
	assert.False(t, dup.Valid())
	require.Len(t, dup.Errors, 1)
	assert.Contains(t, dup.Errors[0], "duplicate key 'Name'")
	assert.Contains(t, dup.Errors[0], "Base.Name")
}

func TestDiscoverStructsCustomTagName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "row.go", `package rows

type Row struct {
	ID   int    `+"`db:\"id\"`"+`
	Name string `+"`db:\"name\" hydrate:\"ignored_here\"`"+`
}
`)

	structs, err := DiscoverStructs(dir, &Config{TagName: "db"})
	require.NoError(t, err)
	require.Len(t, structs, 1)
	assert.Equal(t, []string{"id", "name"}, structs[0].Keys())
}

func TestDiscoverStructsEmbedded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "node.go", `package nodes

import "time"

type Node struct {
	*Node
	Value string `+"`hydrate:\"value\"`"+`
}

type Stamped struct {
	time.Time
	Label string `+"`hydrate:\"label\"`"+`
}

type Renamed struct {
	Inner `+"`hydrate:\"inner\"`"+`
}

type Inner struct {
	A string
}
`)

	structs, err := DiscoverStructs(dir, nil)
	require.NoError(t, err)

	node := findStruct(t, structs, "Node")
	assert.Equal(t, []string{"value"}, node.Keys())

	stamped := findStruct(t, structs, "Stamped")
	require.Len(t, stamped.Fields, 2)
	assert.Equal(t, "Time", stamped.Fields[0].Key)
	assert.True(t, stamped.Fields[0].Unresolved)

	renamed := findStruct(t, structs, "Renamed")
	assert.Equal(t, []string{"inner"}, renamed.Keys())
	assert.False(t, renamed.Fields[0].Unresolved)
}

func TestDiscoverStructsSkipsTestFilesAndPackages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", `package a

type A struct {
	X string `+"`hydrate:\"x\"`"+`
}
`)
	writeFile(t, dir, "a_test.go", `package a

type Fixture struct {
	Y string `+"`hydrate:\"y\"`"+`
}
`)

	structs, err := DiscoverStructs(dir, nil)
	require.NoError(t, err)
	require.Len(t, structs, 1)
	assert.Equal(t, "A", structs[0].StructName)

	structs, err = DiscoverStructs(dir, &Config{SkipPackages: []string{"a"}})
	require.NoError(t, err)
	assert.Empty(t, structs)
}

func TestFindStruct(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain.go", `package plain

type Plain struct {
	ID int
}
`)

	s, err := FindStruct(dir, "Plain", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID"}, s.Keys())

	_, err = FindStruct(dir, "Missing", nil)
	assert.ErrorContains(t, err, "struct Missing not found")
}

func TestDiscoverStructsParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.go", "package broken\n\ntype X struct {\n")

	_, err := DiscoverStructs(dir, nil)
	assert.ErrorContains(t, err, "failed to parse")
}
