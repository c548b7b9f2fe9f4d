package entity

import (
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

type Deployment struct {
	Name        string         `json:"name"`
	Network     string         `json:"network"`
	Address     common.Address `json:"address"`
	Deployer    common.Address `json:"deployer"`
	Args        []string       `json:"args"`
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber uint64         `json:"blockNumber"`
	Verified    bool           `json:"verified"`
}

func (d Deployment) Slug() string {
	return CreateDeploymentSlug(d.Network, d.Name)
}

func CreateDeploymentSlug(network, name string) string {
	return slug.Make(fmt.Sprintf("deployment-%s-%s", network, name))
}
