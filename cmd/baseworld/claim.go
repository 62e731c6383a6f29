package main

import (
	"context"

	"github.com/ogeth777/baseworld/internal/logging"

	"github.com/jessevdk/go-flags"
)

type ClaimCmd struct {
	ctx context.Context
	clientFlags

	Address   string `long:"address" required:"true" description:"address of the claimer"`
	AirdropID string `long:"airdrop-id" required:"true"`
}

var claimCmd ClaimCmd

func (opts *ClaimCmd) Execute(_ []string) error {
	log, _, clt, err := clientSetup(opts.clientFlags)
	if err != nil {
		return err
	}
	defer log.AtExit()

	if err := clt.ClaimAirdrop(opts.ctx, opts.Address, opts.AirdropID); err != nil {
		return err
	}
	log.Info("airdrop claimed, cooldown reset", logging.Actor(opts.Address), logging.String("airdrop", opts.AirdropID))
	return nil
}

func Claim(ctx context.Context, parser *flags.Parser) error {
	claimCmd = ClaimCmd{ctx: ctx}

	short := "Claims an airdrop"
	long := "Claim the live airdrop, resetting the cooldown of the claimer"

	_, err := parser.AddCommand("claim", short, long, &claimCmd)
	return err
}
