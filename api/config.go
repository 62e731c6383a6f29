package api

import (
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

// namedLogger is the identifier for package and should ideally match the package name
// this is simply emitted as a hierarchical label e.g. 'api.http'.
const namedLogger = "api"

// Config represents the configuration of the api package.
type Config struct {
	Level          encoding.LogLevel `long:"log-level"`
	IP             string            `long:"ip" description:"Bind to address <ip>"`
	Port           int               `long:"port" description:"Listen for connection on port <port>"`
	RequestTimeout encoding.Duration `long:"request-timeout" description:"upper bound of a request, must exceed the payment max wait"`
	AllowedOrigins []string          `long:"allowed-origins" description:"CORS origins, * allows all"`
	RateLimit      RateLimitConfig   `group:"RateLimit" namespace:"ratelimit"`
	Websocket      WebsocketConfig   `group:"Websocket" namespace:"websocket"`
}

// RateLimitConfig bounds the number of API requests per client IP.
type RateLimitConfig struct {
	Enabled  encoding.Bool     `long:"enabled" choice:"true" choice:"false"`
	Requests int               `long:"requests" description:"requests allowed per window"`
	Window   encoding.Duration `long:"window"`
}

type WebsocketConfig struct {
	WriteWait    encoding.Duration `long:"write-wait" description:"time allowed to write a message to a viewer"`
	PingInterval encoding.Duration `long:"ping-interval" description:"keepalive period, the viewer must answer within two periods"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:          encoding.LogLevel{Level: logging.InfoLevel},
		IP:             "0.0.0.0",
		Port:           3000,
		RequestTimeout: encoding.Duration{Duration: 20 * time.Second},
		AllowedOrigins: []string{"*"},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 100,
			Window:   encoding.Duration{Duration: 15 * time.Minute},
		},
		Websocket: WebsocketConfig{
			WriteWait:    encoding.Duration{Duration: 10 * time.Second},
			PingInterval: encoding.Duration{Duration: 30 * time.Second},
		},
	}
}
