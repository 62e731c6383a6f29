//lint:file-ignore SA5008 duplicated struct tags are ok for config

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ogeth777/baseworld/airdrop"
	"github.com/ogeth777/baseworld/api"
	"github.com/ogeth777/baseworld/broker"
	"github.com/ogeth777/baseworld/canvas"
	"github.com/ogeth777/baseworld/captcha"
	"github.com/ogeth777/baseworld/client"
	"github.com/ogeth777/baseworld/cooldown"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"
	"github.com/ogeth777/baseworld/internal/pprof"
	"github.com/ogeth777/baseworld/payment"
	"github.com/ogeth777/baseworld/snapshot"

	"github.com/BurntSushi/toml"
)

const configFileName = "config.toml"

var ErrConfigExists = errors.New("configuration already exists")

// Config ties together all other application configuration types.
type Config struct {
	Logging  logging.Config  `group:"Logging" namespace:"logging"`
	API      api.Config      `group:"API" namespace:"api"`
	Canvas   canvas.Config   `group:"Canvas" namespace:"canvas"`
	Cooldown cooldown.Config `group:"Cooldown" namespace:"cooldown"`
	Payment  payment.Config  `group:"Payment" namespace:"payment"`
	Snapshot snapshot.Config `group:"Snapshot" namespace:"snapshot"`
	Airdrop  airdrop.Config  `group:"Airdrop" namespace:"airdrop"`
	Broker   broker.Config   `group:"Broker" namespace:"broker"`
	Captcha  captcha.Config  `group:"Captcha" namespace:"captcha"`
	Metrics  metrics.Config  `group:"Metrics" namespace:"metrics"`
	Client   client.Config   `group:"Client" namespace:"client"`
	Pprof    pprof.Config    `group:"Pprof" namespace:"pprof"`
}

// NewDefaultConfig returns the default configuration of every package.
func NewDefaultConfig() Config {
	return Config{
		Logging:  logging.NewDefaultConfig(),
		API:      api.NewDefaultConfig(),
		Canvas:   canvas.NewDefaultConfig(),
		Cooldown: cooldown.NewDefaultConfig(),
		Payment:  payment.NewDefaultConfig(),
		Snapshot: snapshot.NewDefaultConfig(),
		Airdrop:  airdrop.NewDefaultConfig(),
		Broker:   broker.NewDefaultConfig(),
		Captcha:  captcha.NewDefaultConfig(),
		Metrics:  metrics.NewDefaultConfig(),
		Client:   client.NewDefaultConfig(),
		Pprof:    pprof.NewDefaultConfig(),
	}
}

// Path returns the location of the configuration file in rootPath.
func Path(rootPath string) string {
	return filepath.Join(rootPath, configFileName)
}

// Read loads the configuration file of rootPath over the defaults.
func Read(rootPath string) (*Config, error) {
	buf, err := os.ReadFile(Path(rootPath))
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", Path(rootPath), err)
	}
	return &cfg, nil
}

// Write saves cfg in rootPath. An existing file is only replaced when
// overwrite is set.
func Write(rootPath string, cfg Config, overwrite bool) error {
	path := Path(rootPath)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w at %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(rootPath, 0o700); err != nil {
		return fmt.Errorf("could not create %s: %w", rootPath, err)
	}

	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return fmt.Errorf("could not encode configuration: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
