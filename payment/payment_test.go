package payment_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
	"github.com/ogeth777/baseworld/payment"
	"github.com/ogeth777/baseworld/payment/mocks"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRef     = "0x8f0f4a86d7b3c1e4a3b2f5f4d6c4a2e1b0c9d8e7f6a5b4c3d2e1f0a9b8c7d6e5"
	testPainter = "0x00000000000000000000000000000000000000aa"
)

var testContract = ethcommon.HexToAddress("0x9Ec87D0a207d535B958A62B00634B4b1817c3501")

type testGateway struct {
	*payment.Gateway
	client *mocks.MockETHClient
}

func getTestGateway(t *testing.T, edit func(*payment.Config)) *testGateway {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockETHClient(ctrl)

	cfg := payment.NewDefaultConfig()
	cfg.RetryDelay = encoding.Duration{Duration: time.Millisecond}
	cfg.MaxAttempts = 3
	if edit != nil {
		edit(&cfg)
	}

	g, err := payment.New(logging.NewTestLogger(), cfg, client)
	require.NoError(t, err)
	return &testGateway{Gateway: g, client: client}
}

func paintedLog(contract ethcommon.Address, tile int64, painter string) *ethtypes.Log {
	return &ethtypes.Log{
		Address: contract,
		Topics: []ethcommon.Hash{
			crypto.Keccak256Hash([]byte("Painted(uint256,address)")),
			ethcommon.BigToHash(big.NewInt(tile)),
			ethcommon.BytesToHash(ethcommon.HexToAddress(painter).Bytes()),
		},
	}
}

func successfulReceipt(logs ...*ethtypes.Log) *ethtypes.Receipt {
	return &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, Logs: logs}
}

func TestVerifyConfirmed(t *testing.T) {
	g := getTestGateway(t, nil)
	g.client.EXPECT().
		TransactionReceipt(gomock.Any(), ethcommon.HexToHash(testRef)).
		Times(1).
		Return(successfulReceipt(paintedLog(testContract, 7, testPainter)), nil)

	res := g.Verify(context.Background(), testRef, 7, testPainter)
	assert.Equal(t, payment.StatusConfirmed, res.Status)
	assert.Equal(t, uint64(1), res.Attempts)
	assert.NoError(t, res.Err())
}

func TestVerifyRetriesUntilReceiptIsMined(t *testing.T) {
	g := getTestGateway(t, nil)
	gomock.InOrder(
		g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(2).Return(nil, ethereum.NotFound),
		g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(1).
			Return(successfulReceipt(paintedLog(testContract, 7, testPainter)), nil),
	)

	res := g.Verify(context.Background(), testRef, 7, testPainter)
	assert.Equal(t, payment.StatusConfirmed, res.Status)
	assert.Equal(t, uint64(3), res.Attempts)
}

func TestVerifyIndeterminateWhenAttemptsExhausted(t *testing.T) {
	g := getTestGateway(t, nil)
	g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(3).Return(nil, ethereum.NotFound)

	res := g.Verify(context.Background(), testRef, 7, testPainter)
	assert.Equal(t, payment.StatusIndeterminate, res.Status)
	assert.Equal(t, uint64(3), res.Attempts)
	assert.ErrorIs(t, res.Err(), payment.ErrPaymentIndeterminate)
}

func TestVerifyIndeterminateWhenOracleUnreachable(t *testing.T) {
	g := getTestGateway(t, nil)
	g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(3).Return(nil, errors.New("connection refused"))

	res := g.Verify(context.Background(), testRef, 7, testPainter)
	assert.Equal(t, payment.StatusIndeterminate, res.Status)
	assert.Equal(t, "payment oracle unreachable", res.Reason)
}

func TestVerifyIndeterminateOnCancelledContext(t *testing.T) {
	g := getTestGateway(t, func(cfg *payment.Config) {
		cfg.RetryDelay = encoding.Duration{Duration: time.Hour}
	})
	g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).AnyTimes().Return(nil, ethereum.NotFound)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := g.Verify(ctx, testRef, 7, testPainter)
	assert.Equal(t, payment.StatusIndeterminate, res.Status)
}

func TestVerifyRejectsFailedTransaction(t *testing.T) {
	g := getTestGateway(t, nil)
	g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(1).
		Return(&ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed}, nil)

	res := g.Verify(context.Background(), testRef, 7, testPainter)
	assert.Equal(t, payment.StatusRejected, res.Status)
	assert.ErrorIs(t, res.Err(), payment.ErrPaymentRejected)
}

func TestVerifyRejectsMalformedReference(t *testing.T) {
	g := getTestGateway(t, nil)

	for _, ref := range []string{"", "0x1234", "not-a-hash", testRef + "00"} {
		res := g.Verify(context.Background(), ref, 7, testPainter)
		assert.Equal(t, payment.StatusRejected, res.Status, ref)
		assert.Zero(t, res.Attempts, ref)
	}
}

func TestVerifyOpaqueReferenceWithoutHashRequirement(t *testing.T) {
	g := getTestGateway(t, func(cfg *payment.Config) {
		cfg.RequireTxHash = false
	})

	// the chain is never asked about a reference it cannot index
	res := g.Verify(context.Background(), "r1", 7, testPainter)
	assert.Equal(t, payment.StatusIndeterminate, res.Status)
	assert.ErrorIs(t, res.Err(), payment.ErrPaymentIndeterminate)
	assert.Zero(t, res.Attempts)
}

func TestVerifyRejectsReceiptForAnotherTileOrPainter(t *testing.T) {
	tcs := []struct {
		name string
		log  *ethtypes.Log
	}{
		{name: "other tile", log: paintedLog(testContract, 8, testPainter)},
		{name: "other painter", log: paintedLog(testContract, 7, "0x00000000000000000000000000000000000000bb")},
		{name: "other contract", log: paintedLog(ethcommon.HexToAddress("0x01"), 7, testPainter)},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(tt *testing.T) {
			g := getTestGateway(tt, nil)
			g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(1).
				Return(successfulReceipt(tc.log), nil)

			res := g.Verify(context.Background(), testRef, 7, testPainter)
			assert.Equal(tt, payment.StatusRejected, res.Status)
		})
	}
}

func TestVerifyWithoutContractOnlyChecksStatus(t *testing.T) {
	g := getTestGateway(t, func(cfg *payment.Config) {
		cfg.ContractAddress = ""
	})
	g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(1).Return(successfulReceipt(), nil)

	res := g.Verify(context.Background(), testRef, 7, testPainter)
	assert.Equal(t, payment.StatusConfirmed, res.Status)
}

func TestVerifyMinimumPrice(t *testing.T) {
	tcs := []struct {
		name   string
		value  *big.Int
		expect payment.Status
	}{
		{name: "exact price", value: big.NewInt(4_000_000_000_000), expect: payment.StatusConfirmed},
		{name: "under price", value: big.NewInt(3_999_999_999_999), expect: payment.StatusRejected},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(tt *testing.T) {
			g := getTestGateway(tt, func(cfg *payment.Config) {
				cfg.MinPrice = "0.000004"
			})
			tx := ethtypes.NewTx(&ethtypes.LegacyTx{To: &testContract, Value: tc.value})
			g.client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).Times(1).
				Return(successfulReceipt(paintedLog(testContract, 7, testPainter)), nil)
			g.client.EXPECT().TransactionByHash(gomock.Any(), gomock.Any()).Times(1).Return(tx, false, nil)

			res := g.Verify(context.Background(), testRef, 7, testPainter)
			assert.Equal(tt, tc.expect, res.Status)
		})
	}
}

func TestNewRejectsInvalidMinPrice(t *testing.T) {
	for _, price := range []string{"-1", "free", "1e80"} {
		cfg := payment.NewDefaultConfig()
		cfg.MinPrice = price
		_, err := payment.New(logging.NewTestLogger(), cfg, nil)
		assert.ErrorIs(t, err, payment.ErrInvalidMinPrice, price)
	}
}

func TestConsume(t *testing.T) {
	g := getTestGateway(t, nil)
	claim := payment.Claim{Actor: testPainter, Cell: 7}

	_, ok := g.Consumed(testRef)
	assert.False(t, ok)

	got, fresh := g.Consume(testRef, claim)
	assert.True(t, fresh)
	assert.Equal(t, claim, got)

	// the same reference written differently is the same payment
	upper := "0x" + "8F0F4A86D7B3C1E4A3B2F5F4D6C4A2E1B0C9D8E7F6A5B4C3D2E1F0A9B8C7D6E5"
	got, fresh = g.Consume(upper, payment.Claim{Actor: "0x00000000000000000000000000000000000000bb", Cell: 9})
	assert.False(t, fresh)
	assert.Equal(t, claim, got)

	got, ok = g.Consumed(testRef)
	assert.True(t, ok)
	assert.Equal(t, claim, got)
}

func TestRefKey(t *testing.T) {
	upper := "0x" + "8F0F4A86D7B3C1E4A3B2F5F4D6C4A2E1B0C9D8E7F6A5B4C3D2E1F0A9B8C7D6E5"
	assert.Equal(t, testRef, payment.RefKey(" "+upper))
	assert.Equal(t, "r1", payment.RefKey("  r1 "))
	assert.Empty(t, payment.RefKey(" "))
}

func TestConsumeOpaqueReference(t *testing.T) {
	g := getTestGateway(t, nil)
	claim := payment.Claim{Actor: "X", Cell: 7}

	_, fresh := g.Consume("r1", claim)
	assert.True(t, fresh)

	got, ok := g.Consumed(" r1 ")
	assert.True(t, ok)
	assert.Equal(t, claim, got)

	// opaque references are case sensitive
	_, ok = g.Consumed("R1")
	assert.False(t, ok)
}

func TestLedgerRestore(t *testing.T) {
	g := getTestGateway(t, nil)
	g.Consume(testRef, payment.Claim{Actor: testPainter, Cell: 7})
	g.Consume("r1", payment.Claim{Actor: "X", Cell: 1})

	ledger := g.Ledger()
	require.Equal(t, []payment.Consumption{
		{Ref: testRef, Claim: payment.Claim{Actor: testPainter, Cell: 7}},
		{Ref: "r1", Claim: payment.Claim{Actor: "X", Cell: 1}},
	}, ledger)

	restarted := getTestGateway(t, nil)
	restarted.RestoreLedger(ledger)
	assert.Equal(t, ledger, restarted.Ledger())

	existing, fresh := restarted.Consume(testRef, payment.Claim{Actor: testPainter, Cell: 8})
	assert.False(t, fresh)
	assert.Equal(t, payment.Claim{Actor: testPainter, Cell: 7}, existing)
}

func TestLedgerKeepsMostRecentWhenFull(t *testing.T) {
	g := getTestGateway(t, func(cfg *payment.Config) {
		cfg.ConsumedCacheSize = 2
	})
	g.RestoreLedger([]payment.Consumption{
		{Ref: "r1", Claim: payment.Claim{Actor: "X", Cell: 1}},
		{Ref: "r2", Claim: payment.Claim{Actor: "X", Cell: 2}},
		{Ref: "r3", Claim: payment.Claim{Actor: "X", Cell: 3}},
	})

	_, ok := g.Consumed("r1")
	assert.False(t, ok)
	assert.Len(t, g.Ledger(), 2)
}
