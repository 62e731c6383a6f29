package canvas

import (
	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const namedLogger = "canvas"

type Config struct {
	Level            encoding.LogLevel `long:"log-level"`
	GridSize         int               `long:"grid-size" description:"number of cells, fixed for the lifetime of the canvas"`
	LeaderboardSize  int               `long:"leaderboard-size" description:"number of entries broadcast in leaderboard updates"`
	EndgameThreshold float64           `long:"endgame-threshold" description:"painted fraction past which the endgame is announced, once"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:            encoding.LogLevel{Level: logging.InfoLevel},
		GridSize:         40000,
		LeaderboardSize:  10,
		EndgameThreshold: 0.99,
	}
}
