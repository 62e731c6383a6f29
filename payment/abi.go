package payment

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// paintABI is the subset of the paint contract ABI the gateway reads.
const paintABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "uint256", "name": "tileId", "type": "uint256"},
			{"indexed": true, "internalType": "address", "name": "painter", "type": "address"}
		],
		"name": "Painted",
		"type": "event"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "tileId", "type": "uint256"}],
		"name": "paint",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

type paintedEvent struct {
	id      ethcommon.Hash
	indexed abi.Arguments
}

func loadPaintedEvent() (paintedEvent, error) {
	parsed, err := abi.JSON(strings.NewReader(paintABI))
	if err != nil {
		return paintedEvent{}, fmt.Errorf("could not parse paint contract abi: %w", err)
	}
	ev, ok := parsed.Events["Painted"]
	if !ok {
		return paintedEvent{}, fmt.Errorf("paint contract abi has no Painted event")
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return paintedEvent{id: ev.ID, indexed: indexed}, nil
}

// findPainted reports whether logs contain a Painted event emitted by
// contract for the given tile and painter.
func (p paintedEvent) findPainted(logs []*ethtypes.Log, contract ethcommon.Address, tile int, painter string) bool {
	if !ethcommon.IsHexAddress(painter) {
		return false
	}
	want := ethcommon.HexToAddress(painter)
	wantTile := big.NewInt(int64(tile))

	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) != len(p.indexed)+1 || l.Topics[0] != p.id {
			continue
		}
		out := map[string]interface{}{}
		if err := abi.ParseTopicsIntoMap(out, p.indexed, l.Topics[1:]); err != nil {
			continue
		}
		gotTile, _ := out["tileId"].(*big.Int)
		gotPainter, _ := out["painter"].(ethcommon.Address)
		if gotTile != nil && gotTile.Cmp(wantTile) == 0 && gotPainter == want {
			return true
		}
	}
	return false
}
