package motion

import (
	"math"
	"time"
)

// Sample is a single accelerometer reading, in g.
type Sample struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Timestamp time.Time `json:"timestamp"`
}

// Sub returns the per-axis difference s - o.
func (s Sample) Sub(o Sample) Sample {
	return Sample{
		X:         s.X - o.X,
		Y:         s.Y - o.Y,
		Z:         s.Z - o.Z,
		Timestamp: s.Timestamp,
	}
}

func (s Sample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// Mean returns the per-axis arithmetic mean of samples.
// The second return value is false for an empty slice.
func Mean(samples []Sample) (Sample, bool) {
	if len(samples) == 0 {
		return Sample{}, false
	}

	var sum Sample
	for _, s := range samples {
		sum.X += s.X
		sum.Y += s.Y
		sum.Z += s.Z
	}

	n := float64(len(samples))
	return Sample{
		X: sum.X / n,
		Y: sum.Y / n,
		Z: sum.Z / n,
	}, true
}
