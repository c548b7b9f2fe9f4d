package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"strings"
)

// Key joins storage key parts with '/', e.g. Key("listing", nft.Hex(), "0").
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

func AddressPart(addr common.Address) string {
	return addr.Hex()
}

func UintPart(v *uint256.Int) string {
	return v.Hex()
}
