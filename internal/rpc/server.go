package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/deploy"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
	"io"
	"net/http"
)

const maxBodySize = 5 << 20

type handler func(ctx context.Context, params []json.RawMessage) (interface{}, error)

// Server exposes a chain over JSON-RPC 2.0.
type Server struct {
	chain   *chain.Chain
	env     deploy.Environment
	methods map[string]handler
}

func NewServer(c *chain.Chain, env deploy.Environment) *Server {
	s := &Server{chain: c, env: env}
	s.methods = map[string]handler{
		"chain_accounts":              s.accounts,
		"chain_namedAccounts":         s.namedAccounts,
		"chain_blockNumber":           s.blockNumber,
		"chain_getBalance":            s.getBalance,
		"chain_sendTransaction":       s.sendTransaction,
		"chain_call":                  s.call,
		"chain_getTransactionReceipt": s.getTransactionReceipt,
		"chain_getDeployment":         s.getDeployment,
		"chain_getNft":                s.getNft,
	}

	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRpc).Methods("POST")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK")
	}).Methods("GET")

	return r
}

func (s *Server) handleRpc(w http.ResponseWriter, r *http.Request) {
	requestId := "-"
	if u, err := uuid.NewV4(); err == nil {
		requestId = u.String()
	}
	w.Header().Set("X-Request-Id", requestId)
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.write(w, Response{JsonRpc: JsonRpcVersion, Id: json.RawMessage("null"), Error: newError(CodeParseError, "read body: %v", err)})
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var requests []Request
		if err := json.Unmarshal(body, &requests); err != nil || len(requests) == 0 {
			s.write(w, Response{JsonRpc: JsonRpcVersion, Id: json.RawMessage("null"), Error: newError(CodeInvalidRequest, "invalid batch")})
			return
		}
		responses := make([]Response, 0, len(requests))
		for _, req := range requests {
			responses = append(responses, s.handle(r.Context(), requestId, req))
		}
		s.write(w, responses)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.write(w, Response{JsonRpc: JsonRpcVersion, Id: json.RawMessage("null"), Error: newError(CodeParseError, "parse error: %v", err)})
		return
	}
	s.write(w, s.handle(r.Context(), requestId, req))
}

func (s *Server) handle(ctx context.Context, requestId string, req Request) Response {
	resp := Response{JsonRpc: JsonRpcVersion, Id: req.Id}
	if len(resp.Id) == 0 {
		resp.Id = json.RawMessage("null")
	}

	if req.JsonRpc != JsonRpcVersion || req.Method == "" {
		resp.Error = newError(CodeInvalidRequest, "invalid request")
		return resp
	}

	method, ok := s.methods[req.Method]
	if !ok {
		resp.Error = newError(CodeMethodNotFound, "method %s not found", req.Method)
		return resp
	}

	var params []json.RawMessage
	if len(req.Params) != 0 && string(req.Params) != "null" {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = newError(CodeInvalidParams, "params must be an array")
			return resp
		}
	}

	zap.L().With(zap.String("requestId", requestId), zap.String("method", req.Method)).Debug("RPC: Request")

	result, err := method(ctx, params)
	if err != nil {
		resp.Error = toRpcError(err)
		zap.L().With(
			zap.String("requestId", requestId),
			zap.String("method", req.Method),
			zap.String("error", resp.Error.Message),
		).Debug("RPC: Request failed")
		return resp
	}
	resp.Result = result

	return resp
}

func (s *Server) write(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().With(zap.Error(err)).Error("RPC: Failed to write response")
	}
}

type revertData struct {
	TxHash *common.Hash `json:"transactionHash,omitempty"`
}

type revertedTx struct {
	err     error
	receipt *entity.Receipt
}

func (e revertedTx) Error() string {
	return e.err.Error()
}

func (e revertedTx) Unwrap() error {
	return e.err
}

func toRpcError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	if reason, ok := chain.RevertReason(err); ok {
		e := &Error{Code: CodeReverted, Message: "execution reverted: " + reason}
		var tx revertedTx
		if errors.As(err, &tx) && tx.receipt != nil {
			e.Data = revertData{TxHash: &tx.receipt.TxHash}
		}
		return e
	}

	if errors.Is(err, deploy.ErrDeploymentNotFound) || errors.Is(err, chain.ErrReceiptNotFound) {
		return newError(CodeInvalidParams, "%s", err)
	}

	return newError(CodeServerError, "%s", err)
}
