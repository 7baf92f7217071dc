package motion

import "sync"

// Source pushes accelerometer samples to its subscribers in arrival order.
type Source interface {
	Subscribe(listener func(Sample)) (unsubscribe func())
}

// FeedSource is an in-process Source. Whoever owns the sensor (or a
// recording) pushes samples into it with Push.
type FeedSource struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(Sample)
	order     []uint64
}

func NewFeedSource() *FeedSource {
	return &FeedSource{
		listeners: make(map[uint64]func(Sample)),
	}
}

func (f *FeedSource) Subscribe(listener func(Sample)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.listeners[id] = listener
	f.order = append(f.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.listeners, id)
			for i, oid := range f.order {
				if oid == id {
					f.order = append(f.order[:i], f.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Push delivers s to every current subscriber. Listeners are called
// outside the lock, so they may unsubscribe from within.
func (f *FeedSource) Push(s Sample) {
	f.mu.Lock()
	listeners := make([]func(Sample), 0, len(f.order))
	for _, id := range f.order {
		listeners = append(listeners, f.listeners[id])
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

func (f *FeedSource) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}
