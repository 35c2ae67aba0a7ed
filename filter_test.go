package hydrx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(members []member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.key()
	}
	return out
}

func TestNarrow(t *testing.T) {
	engine, err := New[MealWithGuests]()
	require.NoError(t, err)
	plan := engine.members

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{
			name: "no filter",
			want: []string{"MealTime", "TimeOfDay", "MealName", "Guests", "GuestCount"},
		},
		{
			name:    "include only",
			include: []string{"Guests", "MealTime"},
			want:    []string{"MealTime", "Guests"},
		},
		{
			name:    "exclude only",
			exclude: []string{"Guests"},
			want:    []string{"MealTime", "TimeOfDay", "MealName", "GuestCount"},
		},
		{
			name:    "include and exclude",
			include: []string{"Guests", "MealTime"},
			exclude: []string{"MealTime"},
			want:    []string{"Guests"},
		},
		{
			name:    "exclude everything",
			exclude: []string{"MealTime", "TimeOfDay", "MealName", "Guests", "GuestCount"},
			want:    []string{},
		},
		{
			name:    "unknown include keys",
			include: []string{"Dessert"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := narrow(plan, tt.include, tt.exclude)
			assert.Equal(t, tt.want, keysOf(got))
		})
	}
}

func TestNarrow_DoesNotMutatePlan(t *testing.T) {
	engine, err := New[MealWithGuests]()
	require.NoError(t, err)

	before := engine.Keys()
	narrowed := narrow(engine.members, []string{"Guests"}, nil)
	narrowed = append(narrowed, engine.members[0])

	assert.Len(t, narrowed, 2)
	assert.Equal(t, before, engine.Keys())
}

func TestWithIncludeExclude(t *testing.T) {
	engine, err := New[MealWithGuests](
		WithInclude("MealName", "Guests", "GuestCount"),
		WithExclude("GuestCount"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"MealName", "Guests"}, engine.Keys())

	lookup := newRecordingLookup(map[string]string{
		"MealTime":   "2024-05-01",
		"MealName":   "Dinner",
		"Guests":     "Ada",
		"GuestCount": "2",
	})
	meal, err := engine.Hydrate(lookup.Lookup)
	require.NoError(t, err)
	assert.Equal(t, "Dinner", meal.Name)
	assert.Equal(t, "Ada", meal.Guests)
	assert.Nil(t, meal.GuestCount)
	assert.True(t, meal.Time.IsZero())
	assert.Equal(t, []string{"MealName", "Guests"}, lookup.Asked())
}

func TestWithInclude_ComposesWithCallFilters(t *testing.T) {
	engine, err := New[MealWithGuests](WithInclude("MealName", "Guests"))
	require.NoError(t, err)

	lookup := newRecordingLookup(map[string]string{"MealName": "Dinner", "Guests": "Ada", "GuestCount": "2"})
	meal, err := engine.Hydrate(lookup.Lookup, Include("Guests", "GuestCount"))
	require.NoError(t, err)
	assert.Equal(t, "Ada", meal.Guests)
	assert.Empty(t, meal.Name)
	assert.Nil(t, meal.GuestCount)
	assert.Equal(t, []string{"Guests"}, lookup.Asked())

	lookup = newRecordingLookup(map[string]string{"MealName": "Dinner", "Guests": "Ada"})
	_, err = engine.Hydrate(lookup.Lookup, Exclude("Guests"))
	require.NoError(t, err)
	assert.Equal(t, []string{"MealName"}, lookup.Asked())
}

func TestWithInclude_StillValidatesWholePlan(t *testing.T) {
	type Clash struct {
		Name  string
		Label string `hydrate:"Name"`
	}

	_, err := New[Clash](WithExclude("Name"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = New[Meal](WithInclude())
	assert.True(t, IsConfigurationError(err))
}
