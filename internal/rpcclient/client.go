package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

const jsonrpcVersion = "2.0"

var ErrEmptyBatch = errors.New("empty request list")

// A rpcClient represents a JSON RPC client (over HTTP(s)). Transport failures
// are retried; JSON-RPC errors, reverts included, never are.
type rpcClient struct {
	url        string
	httpClient *retryablehttp.Client
	timeout    time.Duration
	debug      bool
	nextId     int64
}

type rpcRequest struct {
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Id      int64       `json:"id"`
	JsonRpc string      `json:"jsonrpc"`
}

type rpcRequests []*rpcRequest

type RPCErrorCode int

// RPCError is the error member of a JSON-RPC response. A reverted call has
// code 3 and the message "execution reverted: <reason>".
type RPCError struct {
	Code    RPCErrorCode    `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var _, _ error = RPCError{}, (*RPCError)(nil)

func (e RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Id     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type rpcResponses []*rpcResponse

func (rResp rpcResponse) decode(v interface{}) error {
	if len(rResp.Result) == 0 {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(rResp.Result, v)
}

func NewClient(url string, timeout int, debug bool) (*rpcClient, error) {
	if len(url) == 0 {
		return nil, errors.New("bad call missing argument host")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 3

	return &rpcClient{
		url:        url,
		httpClient: retryClient,
		timeout:    time.Duration(timeout) * time.Second,
		debug:      debug,
	}, nil
}

func (c *rpcClient) id() int64 {
	return atomic.AddInt64(&c.nextId, 1)
}

func (c *rpcClient) call(ctx context.Context, method string, params interface{}) (*rpcResponse, error) {
	rpcR := rpcRequest{method, params, c.id(), jsonrpcVersion}

	zap.L().With(zap.String("request", rpcR.Method)).Debug("RpcClient: Request")

	var rr rpcResponse
	if err := c.post(ctx, rpcR, &rr); err != nil {
		return nil, err
	}

	return &rr, nil
}

func (c *rpcClient) callBatch(ctx context.Context, requests rpcRequests) (rpcResponses, error) {
	if len(requests) == 0 {
		return nil, ErrEmptyBatch
	}

	for i, req := range requests {
		req.Id = int64(i)
		req.JsonRpc = jsonrpcVersion
	}

	zap.L().With(zap.String("request", requests[0].Method), zap.Int("count", len(requests))).Debug("RpcClient: Batch Request")

	var rr rpcResponses
	if err := c.post(ctx, requests, &rr); err != nil {
		return nil, err
	}

	return rr, nil
}

func (c *rpcClient) post(ctx context.Context, payload interface{}, out interface{}) error {
	payloadBuffer := &bytes.Buffer{}
	if err := json.NewEncoder(payloadBuffer).Encode(payload); err != nil {
		return err
	}
	if c.debug {
		zap.L().With(zap.String("request", payloadBuffer.String())).Debug("RpcClient: Request body")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, payloadBuffer)
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json;charset=utf-8")
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("RpcClient: RPC Failure")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if c.debug {
		zap.L().With(zap.String("response", string(data)), zap.String("requestId", resp.Header.Get("X-Request-Id"))).Debug("RpcClient: Response")
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode rpc response (status %d): %w", resp.StatusCode, err)
	}

	return nil
}
