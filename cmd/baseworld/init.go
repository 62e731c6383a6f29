package main

import (
	"context"
	"fmt"

	"github.com/ogeth777/baseworld/internal/config"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	HomeFlag

	Force bool `short:"f" long:"force" description:"Erase existing configuration at the specified path"`
}

var initCmd InitCmd

func (opts *InitCmd) Execute(_ []string) error {
	logger := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer logger.AtExit()

	root := opts.root()
	if err := config.Write(root, config.NewDefaultConfig(), opts.Force); err != nil {
		return fmt.Errorf("couldn't save configuration file: %w, re-run using -f to replace it", err)
	}

	logger.Info("configuration generated successfully", logging.String("path", config.Path(root)))
	return nil
}

func Init(_ context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{}

	short := "Initializes a canvas server"
	long := "Generate the default configuration of a canvas server"

	_, err := parser.AddCommand("init", short, long, &initCmd)
	return err
}
