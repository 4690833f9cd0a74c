package observer

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestTrackingSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	tracking, err := NewTracking(dir, 2)
	if err != nil {
		t.Fatalf("could not create observer: %v", err)
	}

	returns := []float64{1, 2, 3}
	for _, r := range returns {
		tracking.AddReturn(r)
		tracking.AddEpisodeLength(int(r) * 10)
	}
	tracking.AddMeanQ(0.5)

	if err := tracking.Save(); err != nil {
		t.Fatalf("could not save: %v", err)
	}

	got, err := LoadData(filepath.Join(dir, "returns.bin"))
	if err != nil {
		t.Fatalf("could not load returns: %v", err)
	}
	if len(got) != len(returns) {
		t.Fatalf("got %v returns, want %v", len(got), len(returns))
	}
	for i := range returns {
		if got[i] != returns[i] {
			t.Errorf("return %v: got %v, want %v", i, got[i], returns[i])
		}
	}

	for _, name := range []string{"returns.png", "episode_lengths.png",
		"mean_q.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("plot %v was not saved: %v", name, err)
		}
	}

	// No buffer sizes were recorded, so none were saved
	if _, err := os.Stat(filepath.Join(dir, "buffer_sizes.bin")); err == nil {
		t.Error("empty series was saved")
	}
}

func TestRollingMean(t *testing.T) {
	got := rollingMean([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("element %v: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRollingMeanDisabled(t *testing.T) {
	data := []float64{1, 2, 3}
	got := rollingMean(data, 1)
	for i := range data {
		if got[i] != data[i] {
			t.Errorf("element %v: got %v, want %v", i, got[i], data[i])
		}
	}
}
