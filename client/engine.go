package client

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/leaderboard"
)

// Intent is a paint the local user paid for.
type Intent struct {
	PaymentRef   string
	Cell         int
	Actor        string
	Annotation   string
	CaptchaToken string
}

// Notifier forwards a paid paint to the server.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/notifier_mock.go -package mocks github.com/ogeth777/baseworld/client Notifier
type Notifier interface {
	NotifyPaint(ctx context.Context, in Intent) error
}

type Status int

const (
	// StatusConfirmed means the server accepted the paint.
	StatusConfirmed Status = iota
	// StatusSyncing means the paint is shown but not confirmed yet, it is
	// sent again in the background.
	StatusSyncing
	// StatusRejected means the server refused the paint, it is no longer shown.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusSyncing:
		return "provisionally accepted, syncing"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Engine is the local view of the canvas. What is shown for a cell is the
// server state, unless the user painted it and no server event for that
// cell was received since.
type Engine struct {
	log      *logging.Logger
	cfg      Config
	notifier Notifier

	mu          sync.Mutex
	confirmed   []int8
	owners      map[int]string
	annotations map[int]string
	optimistic  map[int]Intent
	inbound     []events.TilePainted
	retry       []Intent
	leaderboard []leaderboard.Entry
	airdrop     *events.Airdrop
	endgame     bool
}

func NewEngine(log *logging.Logger, cfg Config, notifier Notifier) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		log:         log,
		cfg:         cfg,
		notifier:    notifier,
		owners:      map[int]string{},
		annotations: map[int]string{},
		optimistic:  map[int]Intent{},
	}
}

// Submit shows the paint right away then notifies the server. It blocks for
// the round trip, the optimistic paint is visible before it returns.
func (e *Engine) Submit(ctx context.Context, in Intent) Status {
	e.mu.Lock()
	e.optimistic[in.Cell] = in
	e.mu.Unlock()

	return e.notify(ctx, in)
}

func (e *Engine) notify(ctx context.Context, in Intent) Status {
	err := e.notifier.NotifyPaint(ctx, in)
	switch {
	case err == nil:
		return StatusConfirmed
	case errors.Is(err, ErrRejected):
		e.log.Info("paint rejected", logging.Cell(in.Cell), logging.Error(err))
		e.rollback(in)
		return StatusRejected
	default:
		e.log.Warn("paint not confirmed, will retry", logging.Cell(in.Cell), logging.Error(err))
		e.enqueueRetry(in)
		return StatusSyncing
	}
}

func (e *Engine) rollback(in Intent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.optimistic[in.Cell]; ok && cur.PaymentRef == in.PaymentRef {
		delete(e.optimistic, in.Cell)
	}
}

func (e *Engine) enqueueRetry(in Intent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.retry {
		if r.PaymentRef == in.PaymentRef {
			return
		}
	}
	e.retry = append(e.retry, in)
}

// DrainRetries sends every queued paint again and returns how many are
// still waiting.
func (e *Engine) DrainRetries(ctx context.Context) int {
	e.mu.Lock()
	queue := e.retry
	e.retry = nil
	e.mu.Unlock()

	for _, in := range queue {
		if ctx.Err() != nil {
			e.enqueueRetry(in)
			continue
		}
		if st := e.notify(ctx, in); st == StatusConfirmed {
			e.log.Info("paint confirmed after retry", logging.Cell(in.Cell))
		}
	}
	return e.PendingRetries()
}

// Ingest queues a server paint, it is shown at the next Flush.
func (e *Engine) Ingest(tp events.TilePainted) {
	e.mu.Lock()
	e.inbound = append(e.inbound, tp)
	e.mu.Unlock()
}

// Flush applies the queued server paints and returns how many were applied.
func (e *Engine) Flush() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.inbound)
	for _, tp := range e.inbound {
		if tp.Index < 0 {
			continue
		}
		e.grow(tp.Index + 1)
		e.confirmed[tp.Index] = 1
		e.owners[tp.Index] = tp.Owner
		if tp.Annotation == "" {
			delete(e.annotations, tp.Index)
		} else {
			e.annotations[tp.Index] = tp.Annotation
		}
		delete(e.optimistic, tp.Index)
	}
	e.inbound = e.inbound[:0]
	return n
}

// Resync replaces the server state with a full snapshot. Optimistic paints
// are kept on top of it: the snapshot may predate them.
func (e *Engine) Resync(painted []int8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmed = append(make([]int8, 0, len(painted)), painted...)
	e.log.Debug("grid resynchronised",
		logging.Int("cells", len(painted)),
		logging.Int("optimistic", len(e.optimistic)))
}

func (e *Engine) grow(n int) {
	if n > len(e.confirmed) {
		e.confirmed = append(e.confirmed, make([]int8, n-len(e.confirmed))...)
	}
}

// Handle applies an event received on the push channel.
func (e *Engine) Handle(ev events.Event) error {
	switch ev.Type {
	case events.InitGridEvent:
		var painted []int8
		if err := ev.Decode(&painted); err != nil {
			return err
		}
		e.Resync(painted)
	case events.InitAnnotationsEvent:
		annotations := map[int]string{}
		if err := ev.Decode(&annotations); err != nil {
			return err
		}
		e.mu.Lock()
		e.annotations = annotations
		e.mu.Unlock()
	case events.TilePaintedEvent:
		var tp events.TilePainted
		if err := ev.Decode(&tp); err != nil {
			return err
		}
		e.Ingest(tp)
	case events.LeaderboardUpdateEvent:
		var entries []leaderboard.Entry
		if err := ev.Decode(&entries); err != nil {
			return err
		}
		e.mu.Lock()
		e.leaderboard = entries
		e.mu.Unlock()
	case events.SpawnAirdropEvent:
		var a events.Airdrop
		if err := ev.Decode(&a); err != nil {
			return err
		}
		e.mu.Lock()
		e.airdrop = &a
		e.mu.Unlock()
	case events.AirdropClaimedEvent, events.AirdropExpiredEvent:
		var a events.AirdropExpired
		if err := ev.Decode(&a); err != nil {
			return err
		}
		e.mu.Lock()
		if e.airdrop != nil && e.airdrop.ID == a.ID {
			e.airdrop = nil
		}
		e.mu.Unlock()
	case events.EndgameTriggeredEvent:
		e.mu.Lock()
		e.endgame = true
		e.mu.Unlock()
	default:
		e.log.Debug("unknown event", logging.String("event", ev.Type.String()))
	}
	return nil
}

// Run flushes server paints and retries unconfirmed ones until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	flush := time.NewTicker(e.cfg.FlushInterval.Get())
	defer flush.Stop()
	retry := time.NewTicker(e.cfg.RetryInterval.Get())
	defer retry.Stop()

	// the retry round trips must not hold the flush cadence
	retries := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-retries:
				e.DrainRetries(ctx)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-flush.C:
			e.Flush()
		case <-retry.C:
			select {
			case retries <- struct{}{}:
			default:
			}
		}
	}
}

func (e *Engine) Painted(cell int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.painted(cell)
}

func (e *Engine) painted(cell int) bool {
	if _, ok := e.optimistic[cell]; ok {
		return true
	}
	return cell >= 0 && cell < len(e.confirmed) && e.confirmed[cell] != 0
}

// Owner returns the owner shown for cell.
func (e *Engine) Owner(cell int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if in, ok := e.optimistic[cell]; ok {
		return in.Actor
	}
	return e.owners[cell]
}

func (e *Engine) Annotation(cell int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if in, ok := e.optimistic[cell]; ok {
		return in.Annotation
	}
	return e.annotations[cell]
}

// PaintedCount returns the number of cells shown painted.
func (e *Engine) PaintedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, v := range e.confirmed {
		if v != 0 {
			n++
		}
	}
	for cell := range e.optimistic {
		if cell < 0 || cell >= len(e.confirmed) || e.confirmed[cell] == 0 {
			n++
		}
	}
	return n
}

func (e *Engine) GridSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.confirmed)
}

// Optimistic returns the cells painted locally and not confirmed by a
// server event yet.
func (e *Engine) Optimistic() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, 0, len(e.optimistic))
	for cell := range e.optimistic {
		out = append(out, cell)
	}
	sort.Ints(out)
	return out
}

func (e *Engine) PendingRetries() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.retry)
}

func (e *Engine) Leaderboard() []leaderboard.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]leaderboard.Entry(nil), e.leaderboard...)
}

func (e *Engine) Airdrop() (events.Airdrop, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.airdrop == nil {
		return events.Airdrop{}, false
	}
	return *e.airdrop, true
}

func (e *Engine) Endgame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endgame
}
