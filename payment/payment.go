package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentRejected      = errors.New("payment rejected")
	ErrPaymentIndeterminate = errors.New("payment not final yet")
	ErrInvalidMinPrice      = errors.New("invalid minimum price")

	errReceiptNotFound = errors.New("receipt not found")
)

// ETHClient is the read-only subset of the chain client the gateway needs.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/eth_client_mock.go -package mocks github.com/ogeth777/baseworld/payment ETHClient
type ETHClient interface {
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*ethtypes.Receipt, error)
	TransactionByHash(ctx context.Context, hash ethcommon.Hash) (tx *ethtypes.Transaction, isPending bool, err error)
}

// Dial connects to the JSON-RPC endpoint.
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("could not instantiate ethereum client: %w", err)
	}
	return c, nil
}

type Status int

const (
	StatusIndeterminate Status = iota
	StatusConfirmed
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusRejected:
		return "rejected"
	case StatusIndeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Result is the outcome of a verification.
type Result struct {
	Status   Status
	Reason   string
	Attempts uint64
}

// Err maps the result to ErrPaymentRejected or ErrPaymentIndeterminate, nil
// when confirmed.
func (r Result) Err() error {
	switch r.Status {
	case StatusConfirmed:
		return nil
	case StatusRejected:
		return fmt.Errorf("%w: %s", ErrPaymentRejected, r.Reason)
	default:
		return fmt.Errorf("%w: %s", ErrPaymentIndeterminate, r.Reason)
	}
}

// Claim is the mutation a payment reference was used for.
type Claim struct {
	Actor string
	Cell  int
}

// Consumption is one entry of the consumed references ledger.
type Consumption struct {
	Ref   string
	Claim Claim
}

// Gateway resolves payment references to a finality status.
type Gateway struct {
	log    *logging.Logger
	cfg    Config
	client ETHClient

	painted  paintedEvent
	contract *ethcommon.Address
	minValue *uint256.Int

	consumed *lru.Cache[string, Claim]
}

func New(log *logging.Logger, cfg Config, client ETHClient) (*Gateway, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}

	painted, err := loadPaintedEvent()
	if err != nil {
		return nil, err
	}

	size := cfg.ConsumedCacheSize
	if size <= 0 {
		size = 1
	}
	consumed, err := lru.New[string, Claim](size)
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		log:      log,
		cfg:      cfg,
		client:   client,
		painted:  painted,
		consumed: consumed,
	}

	if cfg.ContractAddress != "" {
		if !ethcommon.IsHexAddress(cfg.ContractAddress) {
			return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
		}
		addr := ethcommon.HexToAddress(cfg.ContractAddress)
		g.contract = &addr
	}

	if cfg.MinPrice != "" {
		price, err := decimal.NewFromString(cfg.MinPrice)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMinPrice, cfg.MinPrice)
		}
		wei, overflow := uint256.FromBig(price.Shift(18).BigInt())
		if overflow {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMinPrice, cfg.MinPrice)
		}
		g.minValue = wei
	}

	return g, nil
}

// NormaliseRef returns the canonical form of a payment reference, and false
// if it is not a transaction hash.
func NormaliseRef(ref string) (string, bool) {
	b, err := hexutil.Decode(strings.TrimSpace(ref))
	if err != nil || len(b) != ethcommon.HashLength {
		return "", false
	}
	return ethcommon.BytesToHash(b).Hex(), true
}

// RefKey is the key ref is remembered under once consumed: the canonical
// hash when ref is a transaction hash, the trimmed reference otherwise.
func RefKey(ref string) string {
	if norm, ok := NormaliseRef(ref); ok {
		return norm
	}
	return strings.TrimSpace(ref)
}

// Verify polls the chain for the receipt of ref until it is final or the
// attempts are exhausted. It never returns an error: failures to reach the
// oracle are reported as StatusIndeterminate.
func (g *Gateway) Verify(ctx context.Context, ref string, cell int, actor string) Result {
	start := time.Now()
	res := g.verify(ctx, ref, cell, actor)
	metrics.PaymentVerificationInc(res.Status.String())
	metrics.PaymentVerificationObserve(time.Since(start))

	log := g.log.With(logging.String("ref", ref), logging.Cell(cell), logging.Actor(actor),
		logging.Uint64("attempts", res.Attempts))
	switch res.Status {
	case StatusConfirmed:
		log.Debug("payment confirmed")
	case StatusRejected:
		log.Info("payment rejected", logging.String("reason", res.Reason))
	default:
		log.Warn("payment indeterminate", logging.String("reason", res.Reason))
	}
	return res
}

func (g *Gateway) verify(ctx context.Context, ref string, cell int, actor string) Result {
	norm, ok := NormaliseRef(ref)
	if !ok {
		if g.cfg.RequireTxHash {
			return Result{Status: StatusRejected, Reason: "malformed payment reference"}
		}
		// receipts are only indexed by transaction hash
		return Result{Status: StatusIndeterminate, Reason: "reference unknown to the payment oracle"}
	}
	hash := ethcommon.HexToHash(norm)

	if wait := g.cfg.MaxWait.Get(); wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	var (
		receipt  *ethtypes.Receipt
		attempts uint64
	)
	op := func() error {
		attempts++
		r, err := g.client.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return errReceiptNotFound
			}
			return err
		}
		if r == nil {
			return errReceiptNotFound
		}
		receipt = r
		return nil
	}
	notify := func(err error, next time.Duration) {
		g.log.Debug("receipt lookup failed, retrying",
			logging.String("ref", norm),
			logging.Uint64("attempt", attempts),
			logging.Duration("next", next),
			logging.Error(err))
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.cfg.RetryDelay.Get()), g.cfg.MaxAttempts-1),
		ctx,
	)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		reason := "receipt not available yet"
		if !errors.Is(err, errReceiptNotFound) {
			reason = "payment oracle unreachable"
		}
		return Result{Status: StatusIndeterminate, Reason: reason, Attempts: attempts}
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return Result{Status: StatusRejected, Reason: "transaction failed on chain", Attempts: attempts}
	}

	if g.contract != nil && !g.painted.findPainted(receipt.Logs, *g.contract, cell, actor) {
		return Result{Status: StatusRejected, Reason: "transaction did not paint this tile for this address", Attempts: attempts}
	}

	if g.minValue != nil {
		tx, _, err := g.client.TransactionByHash(ctx, hash)
		if err != nil {
			return Result{Status: StatusIndeterminate, Reason: "payment oracle unreachable", Attempts: attempts}
		}
		// a value that does not fit 256 bits is above any price
		if value, overflow := uint256.FromBig(tx.Value()); !overflow && value.Lt(g.minValue) {
			return Result{Status: StatusRejected, Reason: "payment below the tile price", Attempts: attempts}
		}
		if g.contract != nil && (tx.To() == nil || *tx.To() != *g.contract) {
			return Result{Status: StatusRejected, Reason: "payment sent to an unexpected address", Attempts: attempts}
		}
	}

	return Result{Status: StatusConfirmed, Attempts: attempts}
}

// Consumed returns the mutation ref was already used for, if any.
func (g *Gateway) Consumed(ref string) (Claim, bool) {
	return g.consumed.Get(RefKey(ref))
}

// Consume records ref as used by claim. It returns false if ref was already
// consumed, in which case the existing claim is returned.
func (g *Gateway) Consume(ref string, claim Claim) (Claim, bool) {
	key := RefKey(ref)
	if found, _ := g.consumed.ContainsOrAdd(key, claim); found {
		existing, _ := g.consumed.Peek(key)
		return existing, false
	}
	return claim, true
}

// Ledger returns the consumed references, least recently used first.
func (g *Gateway) Ledger() []Consumption {
	keys := g.consumed.Keys()
	out := make([]Consumption, 0, len(keys))
	for _, k := range keys {
		if claim, ok := g.consumed.Peek(k); ok {
			out = append(out, Consumption{Ref: k, Claim: claim})
		}
	}
	return out
}

// RestoreLedger adds the given consumed references, in order, on top of the
// current ones.
func (g *Gateway) RestoreLedger(ledger []Consumption) {
	for _, c := range ledger {
		if key := RefKey(c.Ref); key != "" {
			g.consumed.Add(key, c.Claim)
		}
	}
}
