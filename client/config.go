package client

import (
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const namedLogger = "client"

type Config struct {
	Level          encoding.LogLevel `long:"log-level"`
	ServerURL      string            `long:"server-url" description:"base url of the canvas server"`
	FlushInterval  encoding.Duration `long:"flush-interval" description:"how often received paints are applied to the local grid"`
	RetryInterval  encoding.Duration `long:"retry-interval" description:"how often unconfirmed paints are sent again"`
	RequestTimeout encoding.Duration `long:"request-timeout"`
	ReconnectMax   encoding.Duration `long:"reconnect-max" description:"upper bound of the delay between two reconnections"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:          encoding.LogLevel{Level: logging.InfoLevel},
		ServerURL:      "http://localhost:3000",
		FlushInterval:  encoding.Duration{Duration: 100 * time.Millisecond},
		RetryInterval:  encoding.Duration{Duration: 5 * time.Second},
		RequestTimeout: encoding.Duration{Duration: 30 * time.Second},
		ReconnectMax:   encoding.Duration{Duration: 30 * time.Second},
	}
}
