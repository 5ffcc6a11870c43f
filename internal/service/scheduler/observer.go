package scheduler

import "sync"

// Observer is told that the alarm collection changed.
type Observer interface {
	OnAlarmsChanged()
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func()

// OnAlarmsChanged calls f.
func (f ObserverFunc) OnAlarmsChanged() {
	f()
}

// Notifier fans a change notification out to any number of subscribers.
type Notifier struct {
	// subscribers maps subscription handles to observers.
	subscribers map[int]Observer
	// next is the handle of the next subscription.
	next int
	// mu protects subscribers and next.
	mu sync.Mutex
}

// NewNotifier creates a notifier without subscribers.
func NewNotifier() *Notifier {
	return &Notifier{
		subscribers: make(map[int]Observer),
	}
}

// Subscribe registers o and returns a function that removes it again.
func (n *Notifier) Subscribe(o Observer) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	handle := n.next
	n.next++
	n.subscribers[handle] = o

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		delete(n.subscribers, handle)
	}
}

// OnAlarmsChanged notifies every subscriber.
func (n *Notifier) OnAlarmsChanged() {
	n.mu.Lock()

	observers := make([]Observer, 0, len(n.subscribers))
	for _, o := range n.subscribers {
		observers = append(observers, o)
	}

	n.mu.Unlock()

	for _, o := range observers {
		o.OnAlarmsChanged()
	}
}
