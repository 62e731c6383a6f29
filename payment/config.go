package payment

import (
	"time"

	"github.com/ogeth777/baseworld/internal/config/encoding"
	"github.com/ogeth777/baseworld/internal/logging"
)

const (
	namedLogger = "payment"

	// address of the paint contract on base sepolia.
	defaultContractAddress = "0x9Ec87D0a207d535B958A62B00634B4b1817c3501"
)

type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	RPCURL      string            `long:"rpc-url" description:"JSON-RPC endpoint of the chain receipts are read from"`
	MaxAttempts uint64            `long:"max-attempts" description:"number of receipt lookups before the payment is reported indeterminate"`
	RetryDelay  encoding.Duration `long:"retry-delay" description:"delay between two receipt lookups"`
	MaxWait     encoding.Duration `long:"max-wait" description:"upper bound of the whole verification, keep it under the client request timeout"`

	RequireTxHash   bool   `long:"require-tx-hash" description:"reject payment references that are not 32-byte transaction hashes"`
	ContractAddress string `long:"contract-address" description:"if set, the receipt must contain a Painted event from this contract for the requested tile and painter"`
	MinPrice        string `long:"min-price" description:"if set, minimum transaction value in ETH, e.g. 0.000004"`

	ConsumedCacheSize int `long:"consumed-cache-size" description:"number of used payment references remembered to refuse replays"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:             encoding.LogLevel{Level: logging.InfoLevel},
		RPCURL:            "https://base-sepolia-rpc.publicnode.com",
		MaxAttempts:       5,
		RetryDelay:        encoding.Duration{Duration: 2 * time.Second},
		MaxWait:           encoding.Duration{Duration: 12 * time.Second},
		RequireTxHash:     true,
		ContractAddress:   defaultContractAddress,
		ConsumedCacheSize: 100000,
	}
}
