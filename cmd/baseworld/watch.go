package main

import (
	"context"
	"time"

	"github.com/ogeth777/baseworld/client"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type WatchCmd struct {
	ctx context.Context
	clientFlags

	Every time.Duration `long:"every" default:"10s" description:"how often the canvas summary is printed"`
}

var watchCmd WatchCmd

func (opts *WatchCmd) Execute(_ []string) error {
	log, cfg, clt, err := clientSetup(opts.clientFlags)
	if err != nil {
		return err
	}
	defer log.AtExit()

	engine := client.NewEngine(log, cfg, clt)
	stream := client.NewStream(log, cfg, clt.StreamURL(), engine)

	ctx, cancel := context.WithCancel(opts.ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return stream.Run(ctx) })
	eg.Go(func() error {
		engine.Run(ctx)
		return nil
	})
	eg.Go(func() error {
		ticker := time.NewTicker(opts.Every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				summarise(log, engine)
			}
		}
	})
	eg.Go(func() error {
		waitSig(ctx, log)
		cancel()
		return nil
	})
	return eg.Wait()
}

func summarise(log *logging.Logger, engine *client.Engine) {
	fields := []zap.Field{
		logging.String("painted", humanize.Comma(int64(engine.PaintedCount()))),
		logging.Int("cells", engine.GridSize()),
		logging.Bool("endgame", engine.Endgame()),
	}
	if lb := engine.Leaderboard(); len(lb) > 0 {
		fields = append(fields, logging.String("leader", lb[0].Address), logging.Uint64("score", lb[0].Score))
	}
	if a, ok := engine.Airdrop(); ok {
		fields = append(fields, logging.String("airdrop", a.ID))
	}
	log.Info("canvas", fields...)
}

func Watch(ctx context.Context, parser *flags.Parser) error {
	watchCmd = WatchCmd{ctx: ctx}

	short := "Follows a canvas server"
	long := "Connect to the push channel of a canvas server and print a summary of the canvas"

	_, err := parser.AddCommand("watch", short, long, &watchCmd)
	return err
}
