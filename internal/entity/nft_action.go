package entity

import (
	"crypto/md5"
	"fmt"
)

type NftAction struct {
	Contract    string     `json:"contract"`
	TokenId     string     `json:"tokenId"`
	TxID        string     `json:"txId"`
	BlockNum    uint64     `json:"blockNum"`
	LogIndex    int        `json:"logIndex"`
	Action      ActionType `json:"action"`
	From        string     `json:"from"`
	To          string     `json:"to"`
	Marketplace string     `json:"marketplace,omitempty"`
	Cost        string     `json:"cost,omitempty"`
	Fee         string     `json:"fee,omitempty"`
}

type ActionType string

const (
	MintAction                 ActionType = "mint"
	TransferAction             ActionType = "transfer"
	MarketplaceSaleAction      ActionType = "sale"
	MarketplaceListingAction   ActionType = "listing"
	MarketplaceDelistingAction ActionType = "delisting"
)

func (n NftAction) Slug() string {
	return CreateNftActionSlug(n.TokenId, n.Contract, n.TxID, string(n.Action))
}

func CreateNftActionSlug(tokenId, contract, txId, action string) string {
	data := []byte(fmt.Sprintf("nftaction-%s-%s-%s-%s", tokenId, contract, txId, action))
	return fmt.Sprintf("%x", md5.Sum(data))
}
