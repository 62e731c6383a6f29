package airdrop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"
)

var (
	// ErrClaimRejected is the parent of every claim failure.
	ErrClaimRejected = errors.New("airdrop claim rejected")

	ErrNoActiveAirdrop = fmt.Errorf("%w: no active airdrop", ErrClaimRejected)
	ErrUnknownAirdrop  = fmt.Errorf("%w: airdrop already claimed or expired", ErrClaimRejected)
)

// CooldownResetter clears the cooldown of the winner of a claim.
type CooldownResetter interface {
	Reset(actor string)
}

// Broadcaster pushes events to viewers without blocking.
type Broadcaster interface {
	Send(evts ...events.Event)
}

// Position is a point on the unit sphere, uniformly distributed.
type Position struct {
	Theta float64
	Phi   float64
}

type Instance struct {
	ID        string
	SpawnedAt time.Time
	ExpiresAt time.Time
	Position  Position
}

func (i Instance) Event() events.Airdrop {
	return events.Airdrop{
		ID:        i.ID,
		SpawnedAt: i.SpawnedAt.UnixMilli(),
		ExpiresAt: i.ExpiresAt.UnixMilli(),
		Position:  events.Position{Theta: i.Position.Theta, Phi: i.Position.Phi},
	}
}

// Scheduler owns the single airdrop slot. Claims and expiry are resolved
// under one lock so exactly one of them wins for a given instance.
type Scheduler struct {
	log       *logging.Logger
	cfg       Config
	cooldowns CooldownResetter
	broker    Broadcaster

	mu     sync.Mutex
	active *Instance
	expiry *time.Timer
	lastID int64
	rnd    *rand.Rand
	now    func() time.Time
}

// New creates a new airdrop scheduler.
func New(log *logging.Logger, cfg Config, cooldowns CooldownResetter, broker Broadcaster) *Scheduler {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Scheduler{
		log:       log,
		cfg:       cfg,
		cooldowns: cooldowns,
		broker:    broker,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// ReloadConf updates the internal configuration. Interval changes apply
// after a restart.
func (s *Scheduler) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
	s.mu.Lock()
	s.cfg.TTL = cfg.TTL
	s.mu.Unlock()
}

// Start attempts a spawn every interval until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("airdrops disabled")
		return
	}

	ticker := time.NewTicker(s.cfg.Interval.Get())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-ticker.C:
			s.Spawn()
		}
	}
}

// Spawn creates a new airdrop if the slot is empty. It returns false if an
// airdrop is already live.
func (s *Scheduler) Spawn() (Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return Instance{}, false
	}

	now := s.now()
	inst := Instance{
		ID:        s.nextID(now),
		SpawnedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL.Get()),
		Position: Position{
			Theta: 2 * math.Pi * s.rnd.Float64(),
			Phi:   math.Acos(2*s.rnd.Float64() - 1),
		},
	}
	s.active = &inst

	id := inst.ID
	s.expiry = time.AfterFunc(s.cfg.TTL.Get(), func() {
		s.expire(id)
	})

	s.broker.Send(events.NewSpawnAirdrop(inst.Event()))
	metrics.AirdropInc("spawned")
	s.log.Info("airdrop spawned",
		logging.String("id", id),
		logging.Time("expires-at", inst.ExpiresAt),
	)
	return inst, true
}

// nextID derives the id from the spawn time, bumped when two spawns land
// on the same millisecond.
func (s *Scheduler) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// Claim gives the live airdrop with the given id to actor and clears its
// cooldown.
func (s *Scheduler) Claim(actor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoActiveAirdrop
	}
	if s.active.ID != id {
		return ErrUnknownAirdrop
	}

	// a timer already fired is waiting on the lock and will find no match
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	s.active = nil
	s.cooldowns.Reset(actor)

	s.broker.Send(events.NewAirdropClaimed(id, actor))
	metrics.AirdropInc("claimed")
	s.log.Info("airdrop claimed", logging.String("id", id), logging.Actor(actor))
	return nil
}

// expire clears the airdrop with the given id if it is still live.
func (s *Scheduler) expire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.ID != id {
		return false
	}
	s.active = nil
	s.expiry = nil

	s.broker.Send(events.NewAirdropExpired(id))
	metrics.AirdropInc("expired")
	s.log.Info("airdrop expired", logging.String("id", id))
	return true
}

// Active returns the live airdrop, if any.
func (s *Scheduler) Active() (Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Instance{}, false
	}
	return *s.active, true
}

// WithActive calls fn with the live airdrop while holding the slot, so no
// spawn, claim or expiry is broadcast until fn returns. fn must not call
// back into the scheduler.
func (s *Scheduler) WithActive(fn func(inst Instance, ok bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		fn(Instance{}, false)
		return
	}
	fn(*s.active, true)
}

// Stop cancels the expiry of the live airdrop. It stays claimable.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}
