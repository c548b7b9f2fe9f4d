package elastic_search

import (
	"fmt"
)

type Indices string

var (
	NftActionIndex Indices = "nftaction"
)

// Get returns the full index name for a network, eg "hardhat.marketplace.nftaction".
func (i Indices) Get(network, prefix string) string {
	return fmt.Sprintf("%s.%s.%s", network, prefix, string(i))
}
