package airdrop

import (
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const namedLogger = "airdrop"

// Config represents the configuration of the airdrop scheduler.
type Config struct {
	Level    encoding.LogLevel `long:"log-level"`
	Enabled  bool              `long:"enabled" description:"spawn airdrops"`
	Interval encoding.Duration `long:"interval" description:"how often a spawn is attempted, nothing spawns while an airdrop is live"`
	TTL      encoding.Duration `long:"ttl" description:"how long an airdrop stays claimable"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:    encoding.LogLevel{Level: logging.InfoLevel},
		Enabled:  true,
		Interval: encoding.Duration{Duration: 3 * time.Minute},
		TTL:      encoding.Duration{Duration: time.Minute},
	}
}
