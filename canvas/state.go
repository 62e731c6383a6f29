package canvas

import (
	"github.com/ogeth777/baseworld/cooldown"
	"github.com/ogeth777/baseworld/grid"
	"github.com/ogeth777/baseworld/leaderboard"
)

// State groups the authoritative stores. It is built once at startup and
// shared by the engine and the airdrop scheduler.
type State struct {
	Grid        *grid.Store
	Cooldowns   *cooldown.Manager
	Leaderboard *leaderboard.Aggregator
}

func NewState(gridSize int, cooldowns *cooldown.Manager) *State {
	return &State{
		Grid:        grid.New(gridSize),
		Cooldowns:   cooldowns,
		Leaderboard: leaderboard.New(),
	}
}
