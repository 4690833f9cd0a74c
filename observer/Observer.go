// Package observer implements tracking of training statistics
package observer

// Observer receives training statistics as they are produced. Agents
// always hold an Observer; agents that should not track anything use
// Null.
type Observer interface {
	AddReturn(episodeReturn float64)
	AddEpisodeLength(steps int)
	AddMeanQ(meanQ float64)
	AddBufferCapacity(size int)
}

// Null is an Observer that discards everything it is given
type Null struct{}

// NewNull returns an Observer that discards everything it is given
func NewNull() Null {
	return Null{}
}

// AddReturn discards the episodic return
func (n Null) AddReturn(float64) {}

// AddEpisodeLength discards the episode length
func (n Null) AddEpisodeLength(int) {}

// AddMeanQ discards the mean action value
func (n Null) AddMeanQ(float64) {}

// AddBufferCapacity discards the buffer size
func (n Null) AddBufferCapacity(int) {}
