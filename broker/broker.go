package broker

import (
	"sync"

	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"

	"github.com/google/uuid"
)

// Subscription is the queue of event batches of a single viewer. Batches
// are delivered in the order they were sent.
type Subscription struct {
	id     string
	ch     chan []events.Event
	closed chan struct{}
	once   sync.Once
	broker *Broker
}

func (s *Subscription) ID() string {
	return s.id
}

// Events returns the channel batches are delivered on. It is never closed,
// select on Done as well.
func (s *Subscription) Events() <-chan []events.Event {
	return s.ch
}

// Done is closed once the subscription is removed from the broker, either
// by Close or because the viewer could not keep up.
func (s *Subscription) Done() <-chan struct{} {
	return s.closed
}

func (s *Subscription) Close() {
	s.broker.Unsubscribe(s.id)
}

func (s *Subscription) close() {
	s.once.Do(func() {
		close(s.closed)
	})
}

// Broker fans events out to every live subscription. Sending never blocks:
// a subscription whose queue is full is dropped and the viewer has to
// reconnect to get a fresh catch-up.
type Broker struct {
	log *logging.Logger
	cfg Config

	mu   sync.RWMutex
	subs map[string]*Subscription
}

// New creates a new broker.
func New(log *logging.Logger, cfg Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = 1
	}
	return &Broker{
		log:  log,
		cfg:  cfg,
		subs: map[string]*Subscription{},
	}
}

// ReloadConf updates the internal configuration.
func (b *Broker) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}
}

// Subscribe registers a new subscription. catchUp, if any, is queued as the
// first batch, before any event sent after this call returns.
func (b *Broker) Subscribe(catchUp ...events.Event) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		ch:     make(chan []events.Event, b.cfg.SubscriberBuffer+1),
		closed: make(chan struct{}),
		broker: b,
	}
	if len(catchUp) > 0 {
		sub.ch <- catchUp
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	n := len(b.subs)
	b.mu.Unlock()

	metrics.ConnectedViewersSet(n)
	b.log.Debug("new subscription", logging.String("id", sub.id), logging.Int("subscribers", n))
	return sub
}

// Unsubscribe removes the subscription with the given id, if it exists.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	n := len(b.subs)
	b.mu.Unlock()

	if !ok {
		return
	}
	sub.close()
	metrics.ConnectedViewersSet(n)
	b.log.Debug("subscription removed", logging.String("id", id), logging.Int("subscribers", n))
}

// Send delivers evts as one batch to every subscription.
func (b *Broker) Send(evts ...events.Event) {
	if len(evts) == 0 {
		return
	}

	var slow []string
	b.mu.RLock()
	for id, sub := range b.subs {
		select {
		case sub.ch <- evts:
		default:
			slow = append(slow, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range slow {
		b.log.Warn("dropping slow subscriber", logging.String("id", id))
		metrics.BroadcastDropInc()
		b.Unsubscribe(id)
	}
}

// Count returns the number of live subscriptions.
func (b *Broker) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close removes every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = map[string]*Subscription{}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	metrics.ConnectedViewersSet(0)
}
