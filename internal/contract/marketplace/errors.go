package marketplace

import (
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"strings"
)

// Kind is a marketplace failure. The revert reason of each kind is
// NftMarketplace__<Kind>(), which is what callers and tests match on.
type Kind int

const (
	KindUnknown Kind = iota
	ListingPriceCannotBeZero
	NotApprovedForMint
	PriceNotMet
	NoProceeds
	TransferFailed
	NotListed
	NotOwner
)

const reasonPrefix = "NftMarketplace__"

var kindNames = map[Kind]string{
	ListingPriceCannotBeZero: "ListingPriceCannotBeZero",
	NotApprovedForMint:       "NotApprovedForMint",
	PriceNotMet:              "PriceNotMet",
	NoProceeds:               "NoProceeds",
	TransferFailed:           "TransferFailed",
	NotListed:                "NotListed",
	NotOwner:                 "NotOwner",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Reason() string {
	return reasonPrefix + k.String() + "()"
}

func (k Kind) Revert() error {
	return chain.Revert(k.Reason())
}

// KindOf returns the marketplace failure carried by err, or KindUnknown when
// err is not a marketplace revert.
func KindOf(err error) Kind {
	reason, ok := chain.RevertReason(err)
	if !ok || !strings.HasPrefix(reason, reasonPrefix) {
		return KindUnknown
	}

	name := strings.TrimSuffix(strings.TrimPrefix(reason, reasonPrefix), "()")
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind
		}
	}

	return KindUnknown
}
