package canvas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ogeth777/baseworld/airdrop"
	"github.com/ogeth777/baseworld/broker"
	"github.com/ogeth777/baseworld/captcha"
	"github.com/ogeth777/baseworld/cooldown"
	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/grid"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"
	"github.com/ogeth777/baseworld/leaderboard"
	"github.com/ogeth777/baseworld/payment"
	"github.com/ogeth777/baseworld/snapshot"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrReusedRef    = fmt.Errorf("%w: payment reference already used", payment.ErrPaymentRejected)
)

// Verifier resolves and consumes payment references.
type Verifier interface {
	Verify(ctx context.Context, ref string, cell int, actor string) payment.Result
	Consumed(ref string) (payment.Claim, bool)
	Consume(ref string, claim payment.Claim) (payment.Claim, bool)
	Ledger() []payment.Consumption
	RestoreLedger(ledger []payment.Consumption)
}

// Broker fans events out to viewers.
type Broker interface {
	Send(evts ...events.Event)
	Subscribe(catchUp ...events.Event) *broker.Subscription
}

// Persister schedules a snapshot of the state.
type Persister interface {
	ScheduleSave()
}

// Airdrops is the airdrop slot as seen by the engine.
type Airdrops interface {
	WithActive(fn func(inst airdrop.Instance, ok bool))
	Claim(actor, id string) error
}

type PaintRequest struct {
	PaymentRef   string
	Cell         int
	Actor        string
	Annotation   string
	CaptchaToken string
	RemoteIP     string
}

type UserState struct {
	LastPaintTime int64 `json:"lastPaintTime"`
	ServerTime    int64 `json:"serverTime"`
}

type Stats struct {
	PaintedCells int     `json:"paintedCells"`
	GridSize     int     `json:"gridSize"`
	Percentage   float64 `json:"percentage"`
	Painters     int     `json:"painters"`
	Viewers      int     `json:"viewers"`
	Endgame      bool    `json:"endgame"`
}

// Engine runs the paint pipeline. Every commit happens under mu, payment
// verification is the only step waiting outside of it.
type Engine struct {
	log   *logging.Logger
	cfg   Config
	state *State

	verifier  Verifier
	broker    Broker
	persister Persister
	airdrops  Airdrops
	gate      captcha.Gate

	now func() time.Time

	mu      sync.Mutex
	endgame bool
}

func NewEngine(
	log *logging.Logger,
	cfg Config,
	state *State,
	verifier Verifier,
	broker Broker,
	persister Persister,
	airdrops Airdrops,
	gate captcha.Gate,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	if gate == nil {
		gate = captcha.NoopGate{}
	}
	return &Engine{
		log:       log,
		cfg:       cfg,
		state:     state,
		verifier:  verifier,
		broker:    broker,
		persister: persister,
		airdrops:  airdrops,
		gate:      gate,
		now:       time.Now,
	}
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
}

// NormaliseActor strips the surrounding blanks of an actor id. Case is
// significant: two ids differing only by case are two actors.
func NormaliseActor(actor string) string {
	return strings.TrimSpace(actor)
}

// Paint runs the gates for req and applies the mutation. On error nothing
// was changed: no cell, no score and no cooldown.
func (e *Engine) Paint(ctx context.Context, req PaintRequest) (err error) {
	defer metrics.EngineTimeCounterAdd("canvas", "paint")()
	defer func() {
		metrics.PaintCounterInc(resultLabel(err))
	}()

	actor := NormaliseActor(req.Actor)
	if actor == "" {
		return fmt.Errorf("%w: missing address", ErrInvalidInput)
	}
	if !e.state.Grid.ValidIndex(req.Cell) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, grid.ErrOutOfRange)
	}
	if err := grid.ValidateAnnotation(req.Annotation); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ref := strings.TrimSpace(req.PaymentRef)
	if ref == "" {
		return fmt.Errorf("%w: missing payment reference", ErrInvalidInput)
	}
	claim := payment.Claim{Actor: actor, Cell: req.Cell}

	if err := e.gate.Verify(ctx, req.CaptchaToken, req.RemoteIP); err != nil {
		return err
	}

	// a replay of an accepted request is answered without touching the chain
	if used, ok := e.verifier.Consumed(ref); ok {
		return e.replayed(used, claim, ref)
	}

	if err := e.state.Cooldowns.CheckAndGate(actor, e.now()).Err(); err != nil {
		return err
	}

	if err := e.verifier.Verify(ctx, ref, req.Cell, actor).Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if used, fresh := e.verifier.Consume(ref, claim); !fresh {
		return e.replayed(used, claim, ref)
	}

	cell, err := e.state.Grid.Paint(req.Cell, actor, req.Annotation)
	if err != nil {
		// inputs were validated above
		e.log.Panic("could not paint a validated cell", logging.Cell(req.Cell), logging.Error(err))
	}
	e.state.Cooldowns.Commit(actor, e.now())
	score := e.state.Leaderboard.RecordMutation(actor)
	e.persister.ScheduleSave()

	evts := []events.Event{
		events.NewTilePainted(cell.Index, cell.Owner, cell.Annotation),
		events.NewLeaderboardUpdate(e.state.Leaderboard.TopK(e.cfg.LeaderboardSize)),
	}

	painted := e.state.Grid.CountPainted()
	metrics.PaintedCellsSet(painted)
	if fraction := e.state.Grid.PaintedFraction(); !e.endgame && fraction > e.cfg.EndgameThreshold {
		e.endgame = true
		evts = append(evts, events.NewEndgameTriggered(painted, fraction))
		e.log.Info("endgame reached", logging.Int("painted", painted), logging.Float64("fraction", fraction))
	}

	e.broker.Send(evts...)

	e.log.Debug("cell painted",
		logging.Cell(cell.Index),
		logging.Actor(actor),
		logging.Uint64("score", score),
	)
	return nil
}

// replayed answers a request whose payment reference is already consumed:
// the same request succeeds again, anything else is refused.
func (e *Engine) replayed(used, claim payment.Claim, ref string) error {
	if used == claim {
		e.log.Debug("replayed paint request", logging.String("ref", ref), logging.Actor(claim.Actor))
		return nil
	}
	e.log.Info("payment reference reused",
		logging.String("ref", ref),
		logging.Actor(claim.Actor),
		logging.Cell(claim.Cell))
	return ErrReusedRef
}

// UserState returns the last accepted paint of actor, in ms since epoch,
// zero if it has none.
func (e *Engine) UserState(actor string) UserState {
	now := e.now()
	us := UserState{ServerTime: now.UnixMilli()}
	if last, ok := e.state.Cooldowns.LastAccepted(NormaliseActor(actor)); ok {
		us.LastPaintTime = last.UnixMilli()
	}
	return us
}

// ClaimAirdrop gives the live airdrop id to actor.
func (e *Engine) ClaimAirdrop(actor, id string) error {
	actor = NormaliseActor(actor)
	if actor == "" {
		return fmt.Errorf("%w: missing address", ErrInvalidInput)
	}
	if id == "" {
		return fmt.Errorf("%w: missing airdrop id", ErrInvalidInput)
	}
	return e.airdrops.Claim(actor, id)
}

// Subscribe registers a viewer. Its first batch is a full catch-up, taken
// under the engine lock and the airdrop slot lock so no delta committed
// afterwards is missed.
func (e *Engine) Subscribe() *broker.Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.state.Grid.Snapshot()
	catchUp := []events.Event{
		events.NewInitGrid(snap.Painted),
		events.NewInitAnnotations(snap.Annotations),
		events.NewLeaderboardUpdate(e.state.Leaderboard.TopK(e.cfg.LeaderboardSize)),
	}
	if e.endgame {
		catchUp = append(catchUp, events.NewEndgameTriggered(e.state.Grid.CountPainted(), e.state.Grid.PaintedFraction()))
	}

	var sub *broker.Subscription
	e.airdrops.WithActive(func(inst airdrop.Instance, ok bool) {
		if ok {
			catchUp = append(catchUp, events.NewSpawnAirdrop(inst.Event()))
		}
		sub = e.broker.Subscribe(catchUp...)
	})
	return sub
}

func (e *Engine) Leaderboard() []leaderboard.Entry {
	return e.state.Leaderboard.TopK(e.cfg.LeaderboardSize)
}

func (e *Engine) Stats(viewers int) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	painted := e.state.Grid.CountPainted()
	return Stats{
		PaintedCells: painted,
		GridSize:     e.state.Grid.Size(),
		Percentage:   e.state.Grid.PaintedFraction() * 100,
		Painters:     len(e.state.Leaderboard.Counts()),
		Viewers:      viewers,
		Endgame:      e.endgame,
	}
}

// Document is the snapshot source of the engine.
func (e *Engine) Document() snapshot.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.state.Grid.Snapshot()
	doc := snapshot.Document{
		Grid:        snap.Painted,
		Painters:    snap.Owners,
		Annotations: snap.Annotations,
		Leaderboard: e.state.Leaderboard.Counts(),
	}
	for _, c := range e.verifier.Ledger() {
		doc.Consumed = append(doc.Consumed, snapshot.ConsumedRef{Ref: c.Ref, Actor: c.Claim.Actor, Cell: c.Claim.Cell})
	}
	return doc
}

// Restore loads doc into the state. A document without a grid is read as
// painted where it records a painter. A grid of another size is discarded
// and the canvas starts empty, consumed payment references are kept.
func (e *Engine) Restore(doc snapshot.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ledger := make([]payment.Consumption, 0, len(doc.Consumed))
	for _, c := range doc.Consumed {
		ledger = append(ledger, payment.Consumption{Ref: c.Ref, Claim: payment.Claim{Actor: c.Actor, Cell: c.Cell}})
	}
	e.verifier.RestoreLedger(ledger)

	painted := doc.Grid
	if len(painted) == 0 {
		painted = make([]int8, e.state.Grid.Size())
		for i := range doc.Painters {
			if e.state.Grid.ValidIndex(i) {
				painted[i] = 1
			}
		}
	}

	err := e.state.Grid.Restore(grid.Snapshot{
		Painted:     painted,
		Owners:      doc.Painters,
		Annotations: doc.Annotations,
	})
	if err != nil {
		e.log.Warn("could not restore grid, starting from an empty canvas",
			logging.Int("snapshot-size", len(doc.Grid)),
			logging.Int("grid-size", e.state.Grid.Size()),
			logging.Error(err))
		return
	}
	e.state.Leaderboard.Restore(doc.Leaderboard)

	count := e.state.Grid.CountPainted()
	metrics.PaintedCellsSet(count)
	// already announced before the restart
	e.endgame = e.state.Grid.PaintedFraction() > e.cfg.EndgameThreshold
	e.log.Info("canvas restored",
		logging.Int("painted", count),
		logging.Int("painters", len(doc.Leaderboard)),
		logging.Int("consumed-refs", len(ledger)),
		logging.Bool("endgame", e.endgame))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, captcha.ErrCaptchaFailed):
		return "captcha"
	case errors.Is(err, payment.ErrPaymentRejected):
		return "rejected"
	case errors.Is(err, payment.ErrPaymentIndeterminate):
		return "indeterminate"
	case errors.Is(err, cooldown.ErrCooldownActive):
		return "cooldown"
	default:
		return "error"
	}
}
