package motion_test

import (
	"testing"

	"github.com/2beens/gymcoach/internal/motion"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer(t *testing.T) {
	b := motion.NewRingBuffer(3)
	assert.Equal(t, 3, b.Cap())
	assert.Nil(t, b.Last(2))

	for i := 1; i <= 5; i++ {
		b.Push(motion.Sample{X: float64(i)})
	}
	assert.Equal(t, 3, b.Len())

	last := b.Last(10)
	assert.Equal(t, []float64{3, 4, 5}, []float64{last[0].X, last[1].X, last[2].X})
	last = b.Last(2)
	assert.Equal(t, []float64{4, 5}, []float64{last[0].X, last[1].X})

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Last(1))
}

func TestRingBuffer_DefaultCapacity(t *testing.T) {
	assert.Equal(t, motion.DefaultBufferSize, motion.NewRingBuffer(0).Cap())
}

func TestMeanAndMagnitude(t *testing.T) {
	_, ok := motion.Mean(nil)
	assert.False(t, ok)

	mean, ok := motion.Mean([]motion.Sample{{X: 1, Y: 2, Z: 3}, {X: 3, Y: 4, Z: 5}})
	assert.True(t, ok)
	assert.Equal(t, 2.0, mean.X)
	assert.Equal(t, 3.0, mean.Y)
	assert.Equal(t, 4.0, mean.Z)

	assert.Equal(t, 5.0, motion.Sample{X: 3, Y: 4}.Magnitude())
	assert.Equal(t, 2.0, motion.Sample{X: 2}.Sub(motion.Sample{}).Magnitude())
}

func TestFeedSource(t *testing.T) {
	src := motion.NewFeedSource()
	var got []float64
	unsubscribe := src.Subscribe(func(s motion.Sample) { got = append(got, s.X) })
	assert.Equal(t, 1, src.SubscriberCount())

	src.Push(motion.Sample{X: 1})
	src.Push(motion.Sample{X: 2})
	unsubscribe()
	unsubscribe()
	src.Push(motion.Sample{X: 3})

	assert.Equal(t, []float64{1, 2}, got)
	assert.Equal(t, 0, src.SubscriberCount())
}
