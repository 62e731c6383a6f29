package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ogeth777/baseworld/client"
	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
)

type PaintCmd struct {
	ctx context.Context
	clientFlags

	TxHash       string        `long:"tx" required:"true" description:"hash of the payment transaction"`
	Tile         int           `long:"tile" required:"true" description:"index of the cell to paint"`
	Address      string        `long:"address" required:"true" description:"address of the painter"`
	Annotation   string        `long:"annotation" description:"message attached to the cell"`
	CaptchaToken string        `long:"captcha-token"`
	Wait         time.Duration `long:"wait" default:"2m" description:"how long an unconfirmed paint is retried"`
}

var paintCmd PaintCmd

func (opts *PaintCmd) Execute(_ []string) error {
	log, cfg, clt, err := clientSetup(opts.clientFlags)
	if err != nil {
		return err
	}
	defer log.AtExit()

	ctx, cancel := context.WithTimeout(opts.ctx, opts.Wait)
	defer cancel()

	engine := client.NewEngine(log, cfg, clt)
	status := engine.Submit(ctx, client.Intent{
		PaymentRef:   opts.TxHash,
		Cell:         opts.Tile,
		Actor:        opts.Address,
		Annotation:   opts.Annotation,
		CaptchaToken: opts.CaptchaToken,
	})
	log.Info("paint submitted", logging.Cell(opts.Tile), logging.String("status", status.String()))

	ticker := time.NewTicker(cfg.RetryInterval.Get())
	defer ticker.Stop()
	for status == client.StatusSyncing && engine.PendingRetries() > 0 {
		select {
		case <-ctx.Done():
			return errors.New("paint still not confirmed, the payment can be submitted again later")
		case <-ticker.C:
			engine.DrainRetries(ctx)
		}
		if engine.PendingRetries() == 0 {
			if len(engine.Optimistic()) == 0 {
				status = client.StatusRejected
			} else {
				status = client.StatusConfirmed
			}
		}
	}

	if status == client.StatusRejected {
		fmt.Printf("cell %d: %s\n", opts.Tile, color.RedString(status.String()))
		return fmt.Errorf("paint of cell %d rejected", opts.Tile)
	}
	fmt.Printf("cell %d: %s\n", opts.Tile, color.GreenString(status.String()))
	log.Info("paint confirmed", logging.Cell(opts.Tile))
	return nil
}

func Paint(ctx context.Context, parser *flags.Parser) error {
	paintCmd = PaintCmd{ctx: ctx}

	short := "Paints a cell"
	long := "Tell the server about a paid paint, retrying until it is confirmed or rejected"

	_, err := parser.AddCommand("paint", short, long, &paintCmd)
	return err
}
