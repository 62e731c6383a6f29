package main

import (
	"context"
	"fmt"

	"github.com/ogeth777/baseworld/version"

	"github.com/jessevdk/go-flags"
)

type versionCmd struct{}

func (versionCmd) Execute(_ []string) error {
	fmt.Printf("baseworld %s (%s)\n", version.Get(), version.GetCommitHash())
	return nil
}

func Version(_ context.Context, parser *flags.Parser) error {
	_, err := parser.AddCommand("version", "Show version info", "Show version info", &versionCmd{})
	return err
}
