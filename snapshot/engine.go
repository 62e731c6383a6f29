package snapshot

import (
	"errors"
	"sync"
	"time"

	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"

	"github.com/dustin/go-humanize"
)

var ErrNoSource = errors.New("no snapshot source")

// Source returns the current state to persist. It is called when the write
// happens, not when it is scheduled.
type Source func() Document

// Engine debounces snapshot writes: the first ScheduleSave after a write
// arms a timer, later calls are coalesced into that write.
type Engine struct {
	log   *logging.Logger
	cfg   Config
	store Store

	source Source
	now    func() time.Time

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	closed  bool

	// serialises writes, a slow store must not interleave two documents
	saveMu sync.Mutex
	// timer writes started before Close
	inflight sync.WaitGroup
}

// New creates a new snapshot engine writing to store.
func New(log *logging.Logger, cfg Config, store Store) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		log:   log,
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

// ReloadConf updates the internal configuration. The debounce delay applies
// from the next scheduled write.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.mu.Lock()
	e.cfg.Debounce = cfg.Debounce
	e.mu.Unlock()
}

func (e *Engine) SetSource(src Source) {
	e.mu.Lock()
	e.source = src
	e.mu.Unlock()
}

// ScheduleSave marks the state dirty. It never blocks on I/O.
func (e *Engine) ScheduleSave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.pending {
		return
	}
	e.pending = true
	e.timer = time.AfterFunc(e.cfg.Debounce.Get(), e.fire)
}

// Pending reports whether a write is scheduled.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

func (e *Engine) fire() {
	e.mu.Lock()
	// once closed, Close writes whatever is pending
	if !e.pending || e.closed {
		e.mu.Unlock()
		return
	}
	e.pending = false
	e.timer = nil
	e.inflight.Add(1)
	e.mu.Unlock()
	defer e.inflight.Done()

	if err := e.save(); err != nil {
		e.log.Error("could not write snapshot, retrying", logging.Error(err))
		e.mu.Lock()
		closed := e.closed
		if closed {
			e.pending = true
		}
		e.mu.Unlock()
		if !closed {
			e.ScheduleSave()
		}
	}
}

func (e *Engine) save() error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	defer metrics.EngineTimeCounterAdd("snapshot", "save")()

	e.mu.Lock()
	source := e.source
	e.mu.Unlock()
	if source == nil {
		metrics.SnapshotWriteInc("error")
		return ErrNoSource
	}

	doc := source()
	doc.SavedAt = e.now().UnixMilli()
	data, err := doc.encode()
	if err == nil {
		err = e.store.Save(data)
	}
	if err != nil {
		metrics.SnapshotWriteInc("error")
		return err
	}

	metrics.SnapshotWriteInc("ok")
	e.log.Debug("snapshot written",
		logging.String("size", humanize.Bytes(uint64(len(data)))),
		logging.Int("painters", len(doc.Painters)),
	)
	return nil
}

// Load reads the last snapshot. A missing or unreadable snapshot is not an
// error: the caller starts from an empty state and false is returned.
func (e *Engine) Load() (Document, bool) {
	data, err := e.store.Load()
	if errors.Is(err, ErrNoSnapshot) {
		e.log.Info("no snapshot found, starting from an empty canvas")
		return Document{}, false
	}
	if err != nil {
		e.log.Warn("could not read snapshot, starting from an empty canvas", logging.Error(err))
		return Document{}, false
	}

	doc, err := decodeDocument(data)
	if err != nil {
		e.log.Warn("snapshot is corrupted, starting from an empty canvas",
			logging.String("size", humanize.Bytes(uint64(len(data)))),
			logging.Error(err),
		)
		return Document{}, false
	}

	e.log.Info("snapshot loaded",
		logging.String("size", humanize.Bytes(uint64(len(data)))),
		logging.String("saved", humanize.Time(time.UnixMilli(doc.SavedAt))),
		logging.Int("painters", len(doc.Painters)),
	)
	return doc, true
}

// Close waits for a write in progress, writes the pending snapshot, if any,
// and closes the store. Nothing is scheduled after Close.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	e.inflight.Wait()

	e.mu.Lock()
	pending := e.pending
	e.pending = false
	e.mu.Unlock()

	var err error
	if pending {
		if err = e.save(); err != nil {
			e.log.Error("could not write final snapshot", logging.Error(err))
		}
	}

	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if cerr := e.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
