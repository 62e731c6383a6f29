package broker

import (
	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const namedLogger = "broker"

// Config represents the configuration of the broker.
type Config struct {
	Level            encoding.LogLevel `long:"log-level"`
	SubscriberBuffer int               `long:"subscriber-buffer" description:"number of event batches queued per viewer before it is dropped as too slow"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:            encoding.LogLevel{Level: logging.InfoLevel},
		SubscriberBuffer: 256,
	}
}
