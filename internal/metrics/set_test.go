package metrics_test

import (
	"testing"

	"agrovet/internal/metrics"
)

func TestSetMerge(t *testing.T) {
	left := metrics.NewSet(
		metrics.Entry{Key: metrics.PregnancyRate, Value: 50},
		metrics.Entry{Key: metrics.TotalCalvings, Value: 10},
	)
	right := metrics.NewSet(
		metrics.Entry{Key: metrics.CalvingsPerCowPerYear, Value: 0.9},
		metrics.Entry{Key: metrics.TotalCalvings, Value: 12},
	)

	merged := left.Merge(right)

	want := []metrics.Entry{
		{Key: metrics.PregnancyRate, Value: 50},
		{Key: metrics.TotalCalvings, Value: 12},
		{Key: metrics.CalvingsPerCowPerYear, Value: 0.9},
	}
	got := merged.Entries()
	if len(got) != len(want) {
		t.Fatalf("Merge() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, got[i], want[i])
		}
	}

	if v, _ := left.Get(metrics.TotalCalvings); v != 10 {
		t.Errorf("Merge() modified its receiver: total_calvings = %v", v)
	}
}

func TestSetEntriesIsACopy(t *testing.T) {
	s := metrics.NewSet(metrics.Entry{Key: metrics.AbortionRate, Value: 2})
	entries := s.Entries()
	entries[0].Value = 99

	if v, _ := s.Get(metrics.AbortionRate); v != 2 {
		t.Errorf("set changed through Entries(): abortion_rate = %v", v)
	}
}

func TestSetOrdered(t *testing.T) {
	s := metrics.NewSet(
		metrics.Entry{Key: metrics.CalvingsPerCowPerYear, Value: 1},
		metrics.Entry{Key: metrics.AbortionRate, Value: 2},
		metrics.Entry{Key: metrics.PregnancyRate, Value: 3},
	)

	got := s.Ordered().Keys()
	want := []metrics.Key{metrics.PregnancyRate, metrics.AbortionRate, metrics.CalvingsPerCowPerYear}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ordered().Keys() = %v, want %v", got, want)
		}
	}
}

func TestParseKey(t *testing.T) {
	if k, err := metrics.ParseKey("calving_interval_days"); err != nil || k != metrics.CalvingIntervalDays {
		t.Errorf("ParseKey() = %v, %v", k, err)
	}
	if _, err := metrics.ParseKey("milk_yield"); err == nil {
		t.Error("ParseKey() accepted an unknown key")
	}
}
