package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/holiman/uint256"
	"net/http"
	"strings"
)

var ErrNilResponse = errors.New("rpc response is nil, please check your network status")

// Provider is a typed client of a node's JSON-RPC surface. It implements
// binding.Backend, so contract bindings work against a remote node.
type Provider struct {
	rpcClient *rpcClient
}

func NewProvider(rpcClient *rpcClient) *Provider {
	return &Provider{rpcClient: rpcClient}
}

func (p *Provider) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := p.callInto(ctx, &accounts, "chain_accounts")
	return accounts, err
}

func (p *Provider) NamedAccounts(ctx context.Context) (map[string]common.Address, error) {
	var accounts map[string]common.Address
	err := p.callInto(ctx, &accounts, "chain_namedAccounts")
	return accounts, err
}

// NamedAccount resolves a single named account such as "deployer".
func (p *Provider) NamedAccount(ctx context.Context, name string) (common.Address, error) {
	accounts, err := p.NamedAccounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := accounts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("unknown named account %s", name)
	}

	return addr, nil
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := p.callInto(ctx, &number, "chain_blockNumber")
	return number, err
}

func (p *Provider) GetBalance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := p.callInto(ctx, &balance, "chain_getBalance", addr)
	return balance, err
}

func (p *Provider) Transact(ctx context.Context, msg entity.CallMsg) (*entity.Receipt, error) {
	var receipt entity.Receipt
	if err := p.callInto(ctx, &receipt, "chain_sendTransaction", msg); err != nil {
		return nil, err
	}

	return &receipt, nil
}

func (p *Provider) Call(ctx context.Context, msg entity.CallMsg) (interface{}, error) {
	var result interface{}
	err := p.callInto(ctx, &result, "chain_call", msg)
	return result, err
}

func (p *Provider) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*entity.Receipt, error) {
	var receipt entity.Receipt
	if err := p.callInto(ctx, &receipt, "chain_getTransactionReceipt", hash); err != nil {
		return nil, err
	}

	return &receipt, nil
}

// GetTransactionReceipts fetches many receipts in a single batch request.
// Receipts that could not be fetched are nil.
func (p *Provider) GetTransactionReceipts(ctx context.Context, hashes []common.Hash) ([]*entity.Receipt, error) {
	requests := make(rpcRequests, 0, len(hashes))
	for _, hash := range hashes {
		requests = append(requests, &rpcRequest{Method: "chain_getTransactionReceipt", Params: []interface{}{hash}})
	}

	responses, err := p.rpcClient.callBatch(ctx, requests)
	if err != nil {
		return nil, err
	}

	receipts := make([]*entity.Receipt, len(hashes))
	for _, resp := range responses {
		if resp == nil || resp.Error != nil || resp.Id < 0 || int(resp.Id) >= len(receipts) {
			continue
		}
		var receipt entity.Receipt
		if err := resp.decode(&receipt); err != nil {
			return nil, err
		}
		receipts[resp.Id] = &receipt
	}

	return receipts, nil
}

func (p *Provider) GetDeployment(ctx context.Context, name string) (*entity.Deployment, error) {
	var deployment entity.Deployment
	if err := p.callInto(ctx, &deployment, "chain_getDeployment", name); err != nil {
		return nil, err
	}

	return &deployment, nil
}

func (p *Provider) GetNft(ctx context.Context, contract common.Address, tokenId uint64) (*entity.Nft, error) {
	var nft entity.Nft
	if err := p.callInto(ctx, &nft, "chain_getNft", contract, tokenId); err != nil {
		return nil, err
	}

	return &nft, nil
}

// Health reports whether the node answers its health check.
func (p *Provider) Health(ctx context.Context) error {
	url := strings.TrimRight(p.rpcClient.url, "/") + "/health"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := p.rpcClient.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}

	return nil
}

func (p *Provider) callInto(ctx context.Context, v interface{}, method string, params ...interface{}) error {
	response, err := p.call(ctx, method, params...)
	if err != nil {
		return err
	}

	return response.decode(v)
}

func (p *Provider) call(ctx context.Context, method string, params ...interface{}) (*rpcResponse, error) {
	if params == nil {
		params = []interface{}{}
	}

	response, err := p.rpcClient.call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, ErrNilResponse
	}
	if response.Error != nil {
		return nil, response.Error
	}

	return response, nil
}
