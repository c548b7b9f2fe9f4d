package entity

import (
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
	"regexp"
	"strings"
)

type Nft struct {
	Contract common.Address `json:"contract"`
	TokenId  uint64         `json:"tokenId"`
	TokenUri string         `json:"tokenUri"`
	Owner    common.Address `json:"owner"`
}

func (n Nft) Slug() string {
	return CreateNftSlug(n.TokenId, n.Contract)
}

func CreateNftSlug(tokenId uint64, contract common.Address) string {
	return slug.Make(fmt.Sprintf("nft-%d-%s", tokenId, contract.Hex()))
}

var ipfsCid = regexp.MustCompile("(Qm[1-9A-HJ-NP-Za-km-z]{44}|bafy[a-z2-7]{55})")

// GatewayUri rewrites an ipfs:// token uri onto an http gateway. Other uris
// are returned unchanged.
func (n Nft) GatewayUri(gateway string) string {
	if !strings.HasPrefix(n.TokenUri, "ipfs://") {
		return n.TokenUri
	}
	if ipfsCid.FindString(n.TokenUri) == "" {
		return n.TokenUri
	}

	return strings.TrimRight(gateway, "/") + "/ipfs/" + strings.TrimPrefix(n.TokenUri, "ipfs://")
}
