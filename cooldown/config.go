package cooldown

import (
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const (
	namedLogger = "cooldown"

	defaultWindow = 5 * time.Minute
)

type Config struct {
	Level           encoding.LogLevel `long:"log-level"`
	Window          encoding.Duration `long:"window" description:"minimum time between two accepted paints of the same actor, e.g. 5m"`
	CleanupInterval encoding.Duration `long:"cleanup-interval" description:"how often expired cooldown records are dropped"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		Window:          encoding.Duration{Duration: defaultWindow},
		CleanupInterval: encoding.Duration{Duration: time.Minute},
	}
}
