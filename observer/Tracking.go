package observer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Tracking is an Observer that records every statistic it is given
// and saves the series to disk, both as gob-encoded data files and as
// line plots.
type Tracking struct {
	dir    string
	window int

	returns        []float64
	episodeLengths []float64
	meanQ          []float64
	bufferSizes    []float64
}

// NewTracking returns an Observer that records training statistics
// and saves them under dir. Plots of the episodic series are smoothed
// with a rolling mean over window episodes; a window < 2 disables
// smoothing.
func NewTracking(dir string, window int) (*Tracking, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("newtracking: could not create directory: %v",
			err)
	}
	return &Tracking{dir: dir, window: window}, nil
}

// AddReturn records the return of a finished episode
func (t *Tracking) AddReturn(episodeReturn float64) {
	t.returns = append(t.returns, episodeReturn)
}

// AddEpisodeLength records the length of a finished episode
func (t *Tracking) AddEpisodeLength(steps int) {
	t.episodeLengths = append(t.episodeLengths, float64(steps))
}

// AddMeanQ records the mean action value over a sampled minibatch
func (t *Tracking) AddMeanQ(meanQ float64) {
	t.meanQ = append(t.meanQ, meanQ)
}

// AddBufferCapacity records how many transitions the buffer held
func (t *Tracking) AddBufferCapacity(size int) {
	t.bufferSizes = append(t.bufferSizes, float64(size))
}

// Save writes every non-empty series to the tracking directory as a
// gob data file and a PNG line plot.
func (t *Tracking) Save() error {
	series := []struct {
		name   string
		yLabel string
		data   []float64
		smooth bool
	}{
		{"returns", "Return", t.returns, true},
		{"episode_lengths", "Steps", t.episodeLengths, true},
		{"mean_q", "Mean action value", t.meanQ, false},
		{"buffer_sizes", "Transitions stored", t.bufferSizes, false},
	}

	for _, s := range series {
		if len(s.data) == 0 {
			continue
		}
		if err := t.saveData(s.name, s.data); err != nil {
			return fmt.Errorf("save: %v", err)
		}
		data := s.data
		if s.smooth {
			data = rollingMean(data, t.window)
		}
		if err := t.savePlot(s.name, s.yLabel, data); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// saveData gob-encodes a series to a file in the tracking directory
func (t *Tracking) saveData(name string, data []float64) error {
	file, err := os.Create(filepath.Join(t.dir, name+".bin"))
	if err != nil {
		return fmt.Errorf("could not create data file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("could not encode data: %v", err)
	}
	return nil
}

// savePlot draws a series as a line plot and saves it as a PNG in the
// tracking directory.
func (t *Tracking) savePlot(name, yLabel string, data []float64) error {
	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = yLabel

	points := make(plotter.XYs, len(data))
	for i, v := range data {
		points[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("could not plot %v: %v", name, err)
	}
	p.Add(line)

	return p.Save(8*vg.Inch, 8*vg.Inch,
		filepath.Join(t.dir, name+".png"))
}

// LoadData loads a series saved by a Tracking observer
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}
	return data, nil
}

// rollingMean returns the rolling mean of data over the given window.
// The first window-1 entries average over the shorter prefix.
func rollingMean(data []float64, window int) []float64 {
	if window < 2 {
		return data
	}
	means := make([]float64, len(data))
	sum := 0.0
	for i := range data {
		sum += data[i]
		if i >= window {
			sum -= data[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		means[i] = sum / float64(n)
	}
	return means
}
