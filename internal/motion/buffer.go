package motion

// RingBuffer keeps the most recent samples up to a fixed capacity,
// evicting the oldest first. It is not safe for concurrent use.
type RingBuffer struct {
	samples []Sample
	start   int
	size    int
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &RingBuffer{
		samples: make([]Sample, capacity),
	}
}

func (b *RingBuffer) Push(s Sample) {
	capacity := len(b.samples)
	if b.size < capacity {
		b.samples[(b.start+b.size)%capacity] = s
		b.size++
		return
	}
	b.samples[b.start] = s
	b.start = (b.start + 1) % capacity
}

func (b *RingBuffer) Len() int {
	return b.size
}

func (b *RingBuffer) Cap() int {
	return len(b.samples)
}

// Last returns a copy of the most recent k samples, oldest first.
func (b *RingBuffer) Last(k int) []Sample {
	if k > b.size {
		k = b.size
	}
	if k <= 0 {
		return nil
	}

	out := make([]Sample, k)
	capacity := len(b.samples)
	first := b.start + b.size - k
	for i := 0; i < k; i++ {
		out[i] = b.samples[(first+i)%capacity]
	}
	return out
}

func (b *RingBuffer) Clear() {
	b.start = 0
	b.size = 0
}
