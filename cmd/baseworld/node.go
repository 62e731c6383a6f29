package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ogeth777/baseworld/airdrop"
	"github.com/ogeth777/baseworld/api"
	"github.com/ogeth777/baseworld/broker"
	"github.com/ogeth777/baseworld/canvas"
	"github.com/ogeth777/baseworld/captcha"
	"github.com/ogeth777/baseworld/cooldown"
	"github.com/ogeth777/baseworld/internal/config"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"
	"github.com/ogeth777/baseworld/internal/pprof"
	"github.com/ogeth777/baseworld/payment"
	"github.com/ogeth777/baseworld/snapshot"
	"github.com/ogeth777/baseworld/version"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type NodeCmd struct {
	ctx context.Context
	HomeFlag
	config.Config
}

var nodeCmd NodeCmd

func (opts *NodeCmd) Execute(_ []string) error {
	root := opts.root()
	cfg, err := config.Read(root)
	if err != nil {
		return fmt.Errorf("couldn't load configuration, run init first: %w", err)
	}
	if _, err := flags.NewParser(cfg, flags.Default|flags.IgnoreUnknown).Parse(); err != nil {
		return err
	}

	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()
	log.Info("starting canvas server",
		logging.String("version", version.Get()),
		logging.String("version-hash", version.GetCommitHash()),
		logging.String("home", root))

	ctx, cancel := context.WithCancel(opts.ctx)
	defer cancel()

	if cfg.Pprof.Enabled {
		prof, err := pprof.New(log, root, cfg.Pprof)
		if err != nil {
			return fmt.Errorf("couldn't start profiling: %w", err)
		}
		defer func() {
			if err := prof.Stop(); err != nil {
				log.Error("couldn't save profiles", logging.Error(err))
			}
		}()
	}

	if cfg.Metrics.Enabled {
		if err := metrics.Setup(); err != nil {
			return fmt.Errorf("couldn't set up metrics: %w", err)
		}
	}

	watcher, err := config.NewWatcher(ctx, log, root)
	if err != nil {
		return fmt.Errorf("couldn't watch configuration: %w", err)
	}

	ethClient, err := payment.Dial(ctx, cfg.Payment.RPCURL)
	if err != nil {
		return fmt.Errorf("couldn't reach the payment oracle: %w", err)
	}
	defer ethClient.Close()
	gateway, err := payment.New(log, cfg.Payment, ethClient)
	if err != nil {
		return err
	}

	store, err := snapshot.NewStore(root, cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("couldn't open the snapshot store: %w", err)
	}
	snapshots := snapshot.New(log, cfg.Snapshot, store)

	cooldowns := cooldown.New(log, cfg.Cooldown)
	brk := broker.New(log, cfg.Broker)
	airdrops := airdrop.New(log, cfg.Airdrop, cooldowns, brk)
	state := canvas.NewState(cfg.Canvas.GridSize, cooldowns)
	engine := canvas.NewEngine(log, cfg.Canvas, state, gateway, brk, snapshots, airdrops, captcha.New(log, cfg.Captcha))

	if doc, ok := snapshots.Load(); ok {
		engine.Restore(doc)
	}
	snapshots.SetSource(engine.Document)

	srv := api.New(log, cfg.API, cfg.Metrics, engine, brk)

	watcher.OnConfigUpdate(
		func(cfg config.Config) { srv.ReloadConf(cfg.API) },
		func(cfg config.Config) { engine.ReloadConf(cfg.Canvas) },
		func(cfg config.Config) { brk.ReloadConf(cfg.Broker) },
		func(cfg config.Config) { airdrops.ReloadConf(cfg.Airdrop) },
		func(cfg config.Config) { snapshots.ReloadConf(cfg.Snapshot) },
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		cooldowns.StartCleanup(ctx, cfg.Cooldown.CleanupInterval.Get())
		return nil
	})
	eg.Go(func() error {
		airdrops.Start(ctx)
		return nil
	})
	eg.Go(func() error {
		return srv.Start()
	})
	eg.Go(func() error {
		waitSig(ctx, log)
		cancel()
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		return srv.Stop(sctx)
	})

	err = eg.Wait()
	brk.Close()
	if serr := snapshots.Close(); serr != nil {
		log.Error("could not write the last snapshot", logging.Error(serr))
		err = errors.Join(err, serr)
	}
	if err != nil {
		log.Error("canvas server stopped with an error", logging.Error(err))
		return err
	}
	log.Info("canvas server stopped with success")
	return nil
}

func Node(ctx context.Context, parser *flags.Parser) error {
	nodeCmd = NodeCmd{ctx: ctx}

	short := "Runs a canvas server"
	long := "Serve the canvas API and push channel, any configuration value can be overridden on the command line"

	_, err := parser.AddCommand("node", short, long, &nodeCmd)
	return err
}
