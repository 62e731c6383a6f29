package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/adrg/xdg"
	"github.com/jessevdk/go-flags"
)

// Empty is the root of the command line, every option lives on a subcommand.
type Empty struct{}

// HomeFlag is the directory holding the configuration and the state.
type HomeFlag struct {
	Home string `long:"home" description:"Path to the directory holding the configuration and the state"`
}

func (h HomeFlag) root() string {
	if h.Home != "" {
		return h.Home
	}
	return filepath.Join(xdg.DataHome, "baseworld")
}

// Subcommand is the signature of a sub command that can be registered.
type Subcommand func(context.Context, *flags.Parser) error

// Register registers one or more subcommands.
func Register(ctx context.Context, parser *flags.Parser, cmds ...Subcommand) error {
	for _, fn := range cmds {
		if err := fn(ctx, parser); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx := context.Background()
	if err := Main(ctx); err != nil {
		os.Exit(1)
	}
}

func Main(ctx context.Context) error {
	parser := flags.NewParser(&Empty{}, flags.Default)

	if err := Register(ctx, parser,
		Init,
		Node,
		Watch,
		Paint,
		Claim,
		Version,
	); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return err
	}

	if _, err := parser.Parse(); err != nil {
		return err
	}
	return nil
}

// waitSig will wait for a sigterm or sigint interrupt.
func waitSig(ctx context.Context, log *logging.Logger) {
	gracefulStop := make(chan os.Signal, 1)
	signal.Notify(gracefulStop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(gracefulStop)

	select {
	case sig := <-gracefulStop:
		log.Info("Caught signal", logging.String("name", fmt.Sprintf("%+v", sig)))
	case <-ctx.Done():
	}
}
