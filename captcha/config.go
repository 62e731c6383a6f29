package captcha

import (
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const (
	namedLogger = "captcha"

	defaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
)

type Config struct {
	Level     encoding.LogLevel `long:"log-level"`
	Secret    string            `long:"secret" description:"recaptcha secret, the gate is disabled when empty"`
	VerifyURL string            `long:"verify-url"`
	MinScore  float64           `long:"min-score" description:"tokens scoring at or under this value are refused"`
	Timeout   encoding.Duration `long:"timeout"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:     encoding.LogLevel{Level: logging.InfoLevel},
		VerifyURL: defaultVerifyURL,
		MinScore:  0.5,
		Timeout:   encoding.Duration{Duration: 5 * time.Second},
	}
}
