package factory

import (
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

type transferParams struct {
	from    common.Address
	to      common.Address
	tokenId *uint256.Int
}

// CreateNftAction turns a Transfer log into a mint, when it comes from
// the zero address, or a transfer.
func CreateNftAction(receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error) {
	params, err := getTransferParams(log.Params)
	if err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("Nft transfer: Failed to read params")
		return nil, err
	}

	var action entity.NftAction
	if params.from == (common.Address{}) {
		action = CreateMintAction(receipt, logIndex, log.Address, params.tokenId, params.to)
	} else {
		action = CreateTransferAction(receipt, logIndex, log.Address, params.tokenId, params.from, params.to)
	}

	return &action, nil
}

func getTransferParams(params entity.Params) (*transferParams, error) {
	from, err := getAddress(params, "from")
	if err != nil {
		return nil, err
	}
	to, err := getAddress(params, "to")
	if err != nil {
		return nil, err
	}
	tokenId, err := getUint(params, "tokenId")
	if err != nil {
		return nil, err
	}

	return &transferParams{from, to, tokenId}, nil
}

func getAddress(params entity.Params, name string) (common.Address, error) {
	param, err := params.GetParam(name)
	if err != nil {
		return common.Address{}, err
	}

	return param.Address()
}

func getUint(params entity.Params, name string) (*uint256.Int, error) {
	param, err := params.GetParam(name)
	if err != nil {
		return nil, err
	}

	return param.Uint256()
}
