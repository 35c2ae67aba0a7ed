// Package hydrx populates Go structs from string lookups.
//
// An Engine is built once per struct type. It walks the type, collects every
// exported field (embedded structs flattened in declaration order) plus any
// registered properties, and freezes that list as the hydration plan. Each
// call then asks a lookup for the key of every planned member and converts the
// answer into the member's type.
//
// # Key Features
//
//   - Key overrides with the `hydrate:"Key"` struct tag, `hydrate:"-"` to ignore a field
//   - Values, nulls and skips: a null zeroes a member, a skip leaves it untouched
//   - Setter-backed properties, applied after all fields
//   - Include and Exclude filters per call
//   - Batch hydration over slices and iterators, with bounded workers
//   - FailFast or ContinueOnError batch policies
//   - Structured logging and metrics hooks
//   - Row sources for CSV, Excel, SQL rows, S3 objects, Redis hashes, Vault secrets, YAML and dotenv files
//
// # Quick Start
//
// Define your struct:
//
//	type Meal struct {
//	    Name     string    `hydrate:"MealName"`
//	    Time     time.Time `hydrate:"MealTime"`
//	    Guests   *int
//	    internal string
//	}
//
// Build an engine and hydrate:
//
//	engine, err := hydrx.New[Meal]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	meal, err := engine.Hydrate(hydrx.Map(map[string]string{
//	    "MealName": "Lunch",
//	    "MealTime": "2024-05-01T12:30:00Z",
//	}))
//
// Guests is absent from the map, so it is null and stays nil.
//
// # Lookups
//
// A Lookup returns a Result for a key:
//
//	hydrx.Value("42")  // convert and assign
//	hydrx.Null()       // assign the zero value
//	hydrx.Skip()       // leave the member as it is
//
// Target-aware lookups receive the instance being built; members earlier in
// the plan are already applied:
//
//	engine.HydrateTarget(func(m *Meal, key string) hydrx.Result {
//	    if key == "Guests" && m.Name == "Breakfast" {
//	        return hydrx.Skip()
//	    }
//	    return lookup(key)
//	})
//
// # Batches
//
//	meals, err := hydrx.HydrateMany(engine, rows, func(row []string, key string) hydrx.Result {
//	    return hydrx.Optional(column(row, key))
//	})
//
// With ContinueOnError the error is an errsx.Map of *BatchError keyed by row.
//
// # Error Handling
//
//	if hydrx.IsPlanError(err) {
//	    // type not hydratable; fix the struct
//	}
//	if hydrx.IsConversionError(err) {
//	    // bad raw value
//	}
//
// An Engine is immutable after New and safe for concurrent use.
package hydrx
