package hydrx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	mu       sync.Mutex
	started  []string
	finished []error
	skipped  []string
	failures []error
	metadata []map[string]any
}

func (h *recordingHook) OnHydrateStart(ctx context.Context, operation string, metadata map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, operation)
	h.metadata = append(h.metadata, metadata)
}

func (h *recordingHook) OnHydrateComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = append(h.finished, err)
}

func (h *recordingHook) OnMemberSkipped(ctx context.Context, operation string, key string, metadata map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.skipped = append(h.skipped, key)
}

func (h *recordingHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, err)
}

func TestHooks_SingleCall(t *testing.T) {
	hook := &recordingHook{}
	engine, err := New[MealWithGuests](WithHook(hook))
	require.NoError(t, err)

	_, err = engine.Hydrate(func(key string) Result {
		if key == "Guests" {
			return Skip()
		}
		return Null()
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hydrate"}, hook.started)
	assert.Equal(t, []error{nil}, hook.finished)
	assert.Equal(t, []string{"Guests"}, hook.skipped)
	assert.Empty(t, hook.failures)

	md := hook.metadata[0]
	assert.Equal(t, "hydrx.MealWithGuests", md["target_type"])
	assert.Equal(t, 5, md["members"])
	assert.NotEmpty(t, md["call_id"])
}

func TestHooks_Failure(t *testing.T) {
	hook := &recordingHook{}
	engine, err := New[Meal](WithHook(hook))
	require.NoError(t, err)

	_, err = engine.Hydrate(Map(map[string]string{"MealTime": "not-a-date"}))
	require.Error(t, err)

	require.Len(t, hook.failures, 1)
	assert.ErrorIs(t, hook.failures[0], ErrConversion)
	assert.Equal(t, err, hook.finished[0])
}

func TestHooks_BatchMetadata(t *testing.T) {
	hook := &recordingHook{}
	engine, err := New[MealWithGuests](WithHook(hook), WithWorkers(2))
	require.NoError(t, err)

	_, err = HydrateMany(engine, guestRows(6), guestLookup, Include("MealName", "Guests"))
	require.NoError(t, err)

	assert.Equal(t, []string{"HydrateMany"}, hook.started)
	assert.Equal(t, 6, hook.metadata[0]["rows"])
	assert.Equal(t, 2, hook.metadata[0]["members"])
	assert.Len(t, hook.skipped, 6)
}

func TestWithMetrics(t *testing.T) {
	collector := NewInMemoryMetricsCollector()
	engine, err := New[MealWithGuests](WithMetrics(collector))
	require.NoError(t, err)

	for range 3 {
		_, err := engine.Hydrate(func(key string) Result {
			if key == "Guests" {
				return Skip()
			}
			return Null()
		})
		require.NoError(t, err)
	}
	_, err = engine.Hydrate(Map(map[string]string{"GuestCount": "many"}))
	require.Error(t, err)

	tags := map[string]string{"operation": "Hydrate", "target_type": "hydrx.MealWithGuests"}
	assert.Equal(t, int64(4), collector.Counter(MetricCalls, tags))
	assert.Equal(t, int64(1), collector.Counter(MetricErrors, tags))
	assert.Len(t, collector.Timings(MetricDuration, tags), 4)

	skipTags := map[string]string{"operation": "Hydrate", "target_type": "hydrx.MealWithGuests", "key": "Guests"}
	assert.Equal(t, int64(3), collector.Counter(MetricSkipped, skipTags))
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	engine, err := New[Meal](WithLogger(logger), WithMetrics(NewInMemoryMetricsCollector()))
	require.NoError(t, err)

	_, err = engine.Hydrate(Map(map[string]string{"MealTime": "not-a-date"}))
	require.Error(t, err)

	var sawError bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "Hydrate", entry["operation"])
		if entry["level"] == "ERROR" {
			sawError = true
			assert.Contains(t, entry["error"], "MealTime")
		}
	}
	assert.True(t, sawError)
}

func TestWithHook_Nil(t *testing.T) {
	_, err := New[Meal](WithHook(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
