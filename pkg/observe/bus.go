package observe

import "sync"

// Bus is the in-process invalidation channel behind observable queries.
// Repositories publish the table they touched after every committed write;
// subscribers re-run their query on each notification. Notifications are
// coalescing: a subscriber that has not drained its channel gets at most one
// pending signal, which is enough because it re-reads the store anyway.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription delivers invalidation signals for a set of tables.
type Subscription struct {
	bus    *Bus
	tables map[string]struct{}
	ch     chan string
	once   sync.Once
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers interest in the given tables. An empty table set
// matches every write.
func (b *Bus) Subscribe(tables ...string) *Subscription {
	sub := &Subscription{
		bus:    b,
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan string, 1),
	}
	for _, table := range tables {
		sub.tables[table] = struct{}{}
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish signals every subscription watching the table. Never blocks the
// writer: a full subscriber channel means a signal is already pending.
func (b *Bus) Publish(table string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if len(sub.tables) > 0 {
			if _, ok := sub.tables[table]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- table:
		default:
		}
	}
}

// C returns the notification channel.
func (s *Subscription) C() <-chan string {
	return s.ch
}

// Close detaches the subscription from the bus.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
}
