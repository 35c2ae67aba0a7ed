package hydrx

import (
	"sync"
	"time"
)

type Meal struct {
	Name string    `hydrate:"MealName"`
	Time time.Time `hydrate:"MealTime"`
}

type MealTime struct {
	Time      time.Time `hydrate:"MealTime"`
	TimeOfDay time.Duration
}

type MealInfo struct {
	MealTime
	Name string `hydrate:"MealName"`
}

type MealWithGuests struct {
	MealInfo
	Guests     string
	GuestCount *int
}

type Invoice struct {
	Number string
	total  int64
	paid   bool
}

func (i *Invoice) SetTotal(cents int64) { i.total = cents }

// recordingLookup answers from values and remembers every key it was asked.
type recordingLookup struct {
	mu     sync.Mutex
	values map[string]string
	asked  []string
}

func newRecordingLookup(values map[string]string) *recordingLookup {
	return &recordingLookup{values: values}
}

func (r *recordingLookup) Lookup(key string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked = append(r.asked, key)
	v, ok := r.values[key]
	return Optional(v, ok)
}

func (r *recordingLookup) Asked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.asked...)
}

func dinner() map[string]string {
	return map[string]string{
		"MealName":   "Dinner",
		"MealTime":   "2024-01-01T19:00:00",
		"TimeOfDay":  "19h",
		"Guests":     "Ada, Grace",
		"GuestCount": "2",
	}
}

func intPtr(n int) *int { return &n }
