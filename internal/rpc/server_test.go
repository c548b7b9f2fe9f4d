package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/contract/basicnft"
	"github.com/ZilDuck/nft-marketplace/internal/deploy"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *deploy.Fixture) {
	cfg := &config.Config{
		Network:           "hardhat",
		DevelopmentChains: []string{"hardhat"},
		NamedAccounts:     map[string]int{"deployer": 0, "player": 1},
		Chain:             config.ChainConfig{Accounts: 2, InitialBalance: "10", Seed: "rpc", TokenUri: config.DefaultTokenUri},
	}
	f, err := deploy.NewFixture(context.Background(), cfg, "all")
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(f.Chain, f.Env).Router())
	t.Cleanup(srv.Close)

	return srv, f
}

func post(t *testing.T, url, body string) []byte {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

type testResponse struct {
	Id     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Methods(t *testing.T) {
	srv, f := newTestServer(t)
	nft, err := f.Env.Get(basicnft.ContractName)
	require.NoError(t, err)
	deployer := f.Chain.Accounts()[0]

	t.Run("accounts", func(t *testing.T) {
		var resp testResponse
		require.NoError(t, json.Unmarshal(post(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"chain_accounts"}`), &resp))
		require.Nil(t, resp.Error)

		var accounts []common.Address
		require.NoError(t, json.Unmarshal(resp.Result, &accounts))
		require.Contains(t, accounts, deployer)
	})
	t.Run("call", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":2,"method":"chain_call","params":[{"from":"` + deployer.Hex() + `","to":"` + nft.Address.Hex() + `","method":"symbol","args":[]}]}`
		var resp testResponse
		require.NoError(t, json.Unmarshal(post(t, srv.URL, body), &resp))
		require.Nil(t, resp.Error)
		require.Equal(t, `"DOG"`, string(resp.Result))
	})
	t.Run("revert", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":3,"method":"chain_call","params":[{"from":"` + deployer.Hex() + `","to":"` + nft.Address.Hex() + `","method":"ownerOf","args":[7]}]}`
		var resp testResponse
		require.NoError(t, json.Unmarshal(post(t, srv.URL, body), &resp))
		require.NotNil(t, resp.Error)
		require.Equal(t, CodeReverted, resp.Error.Code)
		require.Equal(t, "execution reverted: "+basicnft.ReasonInvalidToken, resp.Error.Message)
	})
	t.Run("reverted transaction carries hash", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":4,"method":"chain_sendTransaction","params":[{"from":"` + deployer.Hex() + `","to":"` + nft.Address.Hex() + `","method":"approve","args":["` + deployer.Hex() + `","9"]}]}`
		var resp testResponse
		require.NoError(t, json.Unmarshal(post(t, srv.URL, body), &resp))
		require.NotNil(t, resp.Error)
		require.Equal(t, CodeReverted, resp.Error.Code)
		require.Contains(t, resp.Error.Data, "transactionHash")
	})
	t.Run("nft", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":7,"method":"chain_sendTransaction","params":[{"from":"` + deployer.Hex() + `","to":"` + nft.Address.Hex() + `","method":"mint","args":[]}]}`
		var resp testResponse
		require.NoError(t, json.Unmarshal(post(t, srv.URL, body), &resp))
		require.Nil(t, resp.Error)

		body = `{"jsonrpc":"2.0","id":8,"method":"chain_getNft","params":["` + nft.Address.Hex() + `",0]}`
		require.NoError(t, json.Unmarshal(post(t, srv.URL, body), &resp))
		require.Nil(t, resp.Error)

		var got entity.Nft
		require.NoError(t, json.Unmarshal(resp.Result, &got))
		require.Equal(t, deployer, got.Owner)
		require.Equal(t, config.DefaultTokenUri, got.TokenUri)
		require.Equal(t, uint64(0), got.TokenId)
	})
	t.Run("deployment", func(t *testing.T) {
		var resp testResponse
		require.NoError(t, json.Unmarshal(post(t, srv.URL, `{"jsonrpc":"2.0","id":5,"method":"chain_getDeployment","params":["BasicNft"]}`), &resp))
		require.Nil(t, resp.Error)

		var got entity.Deployment
		require.NoError(t, json.Unmarshal(resp.Result, &got))
		require.Equal(t, nft.Address, got.Address)
		require.Equal(t, basicnft.ContractName, got.Name)

		require.NoError(t, json.Unmarshal(post(t, srv.URL, `{"jsonrpc":"2.0","id":6,"method":"chain_getDeployment","params":["Nope"]}`), &resp))
		require.Equal(t, CodeInvalidParams, resp.Error.Code)
	})
}

func TestServer_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, tc := range map[string]struct {
		body string
		code ErrorCode
	}{
		"parse error":      {body: `{"jsonrpc":`, code: CodeParseError},
		"bad version":      {body: `{"jsonrpc":"1.0","id":1,"method":"chain_accounts"}`, code: CodeInvalidRequest},
		"unknown method":   {body: `{"jsonrpc":"2.0","id":1,"method":"eth_chainId"}`, code: CodeMethodNotFound},
		"params not array": {body: `{"jsonrpc":"2.0","id":1,"method":"chain_getBalance","params":{}}`, code: CodeInvalidParams},
		"missing param":    {body: `{"jsonrpc":"2.0","id":1,"method":"chain_getBalance","params":[]}`, code: CodeInvalidParams},
		"empty batch":      {body: `[]`, code: CodeInvalidRequest},
	} {
		t.Run(name, func(t *testing.T) {
			var resp testResponse
			require.NoError(t, json.Unmarshal(post(t, srv.URL, tc.body), &resp))
			require.NotNil(t, resp.Error)
			require.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestServer_Batch(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `[{"jsonrpc":"2.0","id":1,"method":"chain_blockNumber"},{"jsonrpc":"2.0","id":2,"method":"nope"}]`
	var responses []testResponse
	require.NoError(t, json.Unmarshal(post(t, srv.URL, body), &responses))
	require.Len(t, responses, 2)
	require.Equal(t, "2", string(responses[0].Result))
	require.Equal(t, CodeMethodNotFound, responses[1].Error.Code)
}
