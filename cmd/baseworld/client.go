package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ogeth777/baseworld/client"
	"github.com/ogeth777/baseworld/internal/config"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/jessevdk/go-flags"
)

// clientFlags are the options shared by the commands talking to a server.
type clientFlags struct {
	HomeFlag
	Logging logging.Config `group:"Logging" namespace:"logging"`
	Client  client.Config  `group:"Client" namespace:"client"`
}

// clientSetup loads the client configuration from home, falling back to the
// defaults when the directory was never initialised. Command line values
// win over the file.
func clientSetup(opts clientFlags) (*logging.Logger, client.Config, *client.Client, error) {
	cfg := config.NewDefaultConfig()
	if read, err := config.Read(opts.root()); err == nil {
		cfg = *read
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, client.Config{}, nil, err
	}

	merged := clientFlags{Logging: cfg.Logging, Client: cfg.Client}
	if _, err := flags.NewParser(&merged, flags.Default|flags.IgnoreUnknown).Parse(); err != nil {
		return nil, client.Config{}, nil, err
	}

	clt, err := client.New(merged.Client.ServerURL, merged.Client.RequestTimeout.Get())
	if err != nil {
		return nil, client.Config{}, nil, fmt.Errorf("invalid server url: %w", err)
	}
	return logging.NewLoggerFromConfig(merged.Logging), merged.Client, clt, nil
}
