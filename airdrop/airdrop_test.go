package airdrop_test

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ogeth777/baseworld/airdrop"
	"github.com/ogeth777/baseworld/events"
	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resetter struct {
	mu    sync.Mutex
	reset []string
}

func (r *resetter) Reset(actor string) {
	r.mu.Lock()
	r.reset = append(r.reset, actor)
	r.mu.Unlock()
}

type recorder struct {
	mu   sync.Mutex
	evts []events.Event
}

func (r *recorder) Send(evts ...events.Event) {
	r.mu.Lock()
	r.evts = append(r.evts, evts...)
	r.mu.Unlock()
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.evts))
	for _, e := range r.evts {
		out = append(out, e.Type)
	}
	return out
}

type testScheduler struct {
	*airdrop.Scheduler
	cooldowns *resetter
	broker    *recorder
}

func getScheduler(ttl time.Duration) *testScheduler {
	cfg := airdrop.NewDefaultConfig()
	cfg.TTL = encoding.Duration{Duration: ttl}
	r, b := &resetter{}, &recorder{}
	return &testScheduler{
		Scheduler: airdrop.New(logging.NewTestLogger(), cfg, r, b),
		cooldowns: r,
		broker:    b,
	}
}

func TestSpawnOnlyWhenSlotIsEmpty(t *testing.T) {
	s := getScheduler(time.Hour)
	defer s.Stop()

	inst, ok := s.Spawn()
	require.True(t, ok)
	assert.NotEmpty(t, inst.ID)
	assert.Equal(t, time.Hour, inst.ExpiresAt.Sub(inst.SpawnedAt))

	_, ok = s.Spawn()
	assert.False(t, ok)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, inst.ID, active.ID)
	assert.Equal(t, []events.Type{events.SpawnAirdropEvent}, s.broker.types())
}

func TestPositionIsOnTheSphere(t *testing.T) {
	s := getScheduler(time.Hour)
	for i := 0; i < 100; i++ {
		inst, ok := s.Spawn()
		require.True(t, ok)
		assert.GreaterOrEqual(t, inst.Position.Theta, 0.0)
		assert.Less(t, inst.Position.Theta, 2*math.Pi)
		assert.GreaterOrEqual(t, inst.Position.Phi, 0.0)
		assert.LessOrEqual(t, inst.Position.Phi, math.Pi)
		require.NoError(t, s.Claim("X", inst.ID))
	}
}

func TestIDsAreUniqueWithinTheSameMillisecond(t *testing.T) {
	s := getScheduler(time.Hour)
	now := time.UnixMilli(1700000000000)
	s.SetNow(func() time.Time { return now })

	seen := map[string]struct{}{}
	for i := 0; i < 10; i++ {
		inst, ok := s.Spawn()
		require.True(t, ok)
		_, dup := seen[inst.ID]
		assert.False(t, dup, inst.ID)
		seen[inst.ID] = struct{}{}
		require.NoError(t, s.Claim("X", inst.ID))
	}
}

func TestClaimResetsCooldownAndClearsSlot(t *testing.T) {
	s := getScheduler(time.Hour)
	inst, _ := s.Spawn()

	require.NoError(t, s.Claim("X", inst.ID))
	assert.Equal(t, []string{"X"}, s.cooldowns.reset)

	_, ok := s.Active()
	assert.False(t, ok)
	assert.Equal(t, []events.Type{events.SpawnAirdropEvent, events.AirdropClaimedEvent}, s.broker.types())

	err := s.Claim("Y", inst.ID)
	assert.ErrorIs(t, err, airdrop.ErrNoActiveAirdrop)
	assert.ErrorIs(t, err, airdrop.ErrClaimRejected)
	assert.Equal(t, []string{"X"}, s.cooldowns.reset)

	// a spent instance cannot expire anymore
	assert.False(t, s.Expire(inst.ID))
}

func TestClaimWithStaleID(t *testing.T) {
	s := getScheduler(time.Hour)
	defer s.Stop()
	s.Spawn()

	err := s.Claim("X", "1")
	assert.ErrorIs(t, err, airdrop.ErrUnknownAirdrop)
	assert.ErrorIs(t, err, airdrop.ErrClaimRejected)
	assert.Empty(t, s.cooldowns.reset)

	_, ok := s.Active()
	assert.True(t, ok)
}

func TestAirdropExpires(t *testing.T) {
	s := getScheduler(10 * time.Millisecond)
	inst, _ := s.Spawn()

	require.Eventually(t, func() bool {
		_, ok := s.Active()
		return !ok
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.Claim("X", inst.ID), airdrop.ErrClaimRejected)
	assert.Empty(t, s.cooldowns.reset)
	assert.Equal(t, []events.Type{events.SpawnAirdropEvent, events.AirdropExpiredEvent}, s.broker.types())
}

func TestConcurrentClaimsHaveASingleWinner(t *testing.T) {
	s := getScheduler(time.Hour)
	inst, _ := s.Spawn()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if s.Claim(fmt.Sprintf("actor-%d", i), inst.ID) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, s.cooldowns.reset, 1)
	assert.False(t, s.Expire(inst.ID))
}

func TestWithActiveHoldsTheSlot(t *testing.T) {
	s := getScheduler(time.Hour)
	s.WithActive(func(_ airdrop.Instance, ok bool) {
		assert.False(t, ok)
	})

	inst, _ := s.Spawn()
	claimed := make(chan error, 1)
	s.WithActive(func(active airdrop.Instance, ok bool) {
		require.True(t, ok)
		assert.Equal(t, inst.ID, active.ID)

		go func() { claimed <- s.Claim("X", inst.ID) }()
		select {
		case <-claimed:
			assert.Fail(t, "claim resolved while the slot was held")
		case <-time.After(50 * time.Millisecond):
		}
		// nothing broadcast past the spawn yet
		assert.Equal(t, []events.Type{events.SpawnAirdropEvent}, s.broker.types())
	})

	select {
	case err := <-claimed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.FailNow(t, "claim never resolved")
	}
	assert.Equal(t, []events.Type{events.SpawnAirdropEvent, events.AirdropClaimedEvent}, s.broker.types())
}
