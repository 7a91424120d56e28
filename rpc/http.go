package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"contenthub/core"
	"contenthub/native/common"
	"contenthub/native/registry"
	"contenthub/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	clientRatePerSecond = 10
	clientRateBurst     = 20
)

const (
	codeParseError       = -32700
	codeInvalidRequest   = -32600
	codeMethodNotFound   = -32601
	codeInvalidParams    = -32602
	codeServerError      = -32000
	codeUnauthorized     = -32001
	codeRateLimited      = -32020
	codeRoleUnauthorized = -32030
	codeAlreadyProcessed = -32031
	codeTransferFailed   = -32032
	codeContentExists    = -32033
	codeContentNotFound  = -32034
	codeModulePaused     = -32035
)

// Server exposes the registry node over JSON-RPC 2.0. Mutating methods
// require the bearer token when one is configured.
type Server struct {
	node      *core.Node
	authToken string
	metrics   *observability.RegistryMetrics

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer constructs the RPC server. An empty authToken disables write
// authentication (local development only).
func NewServer(node *core.Node, authToken string) *Server {
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(authToken),
		metrics:   observability.Registry(),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Handler returns the http.Handler serving both the JSON-RPC endpoint and the
// websocket event stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/ws/events", s.handleEventsWS)
	return mux
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) limiter(clientIP string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[clientIP]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(clientRatePerSecond), clientRateBurst)
		s.limiters[clientIP] = limiter
	}
	return limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) == 1
}

func isWriteMethod(method string) bool {
	switch method {
	case "registry_submitContent", "registry_approveContent", "registry_rejectContent",
		"registry_addContributor", "registry_removeContributor", "registry_setPause":
		return true
	}
	return false
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter(clientIP(r)).Allow() {
		writeRPCError(w, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeRPCError(w, nil, codeParseError, "failed to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, nil, codeParseError, "invalid JSON payload", nil)
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeRPCError(w, req.ID, codeInvalidRequest, "unsupported JSON-RPC version", nil)
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeRPCError(w, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	if isWriteMethod(req.Method) && !s.authorized(r) {
		s.metrics.ObserveError(req.Method, fmt.Sprintf("%d", codeUnauthorized))
		writeRPCError(w, req.ID, codeUnauthorized, "missing or invalid bearer token", nil)
		return
	}

	started := time.Now()
	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		s.metrics.ObserveRequest(req.Method, "error", time.Since(started))
		s.metrics.ObserveError(req.Method, fmt.Sprintf("%d", rpcErr.Code))
		writeRPCError(w, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	s.metrics.ObserveRequest(req.Method, "ok", time.Since(started))
	writeRPCResult(w, req.ID, result)
}

func (s *Server) dispatch(req *RPCRequest) (interface{}, *RPCError) {
	switch req.Method {
	case "registry_submitContent":
		return s.handleSubmitContent(req)
	case "registry_approveContent":
		return s.handleApproveContent(req)
	case "registry_rejectContent":
		return s.handleRejectContent(req)
	case "registry_addContributor":
		return s.handleAddContributor(req)
	case "registry_removeContributor":
		return s.handleRemoveContributor(req)
	case "registry_getContent":
		return s.handleGetContent(req)
	case "registry_isContributor":
		return s.handleIsContributor(req)
	case "registry_setPause":
		return s.handleSetPause(req)
	case "bank_balanceOf":
		return s.handleBalanceOf(req)
	default:
		return nil, &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

// errToRPC maps registry errors onto the JSON-RPC error taxonomy.
func errToRPC(err error) *RPCError {
	switch {
	case errors.Is(err, registry.ErrUnauthorized):
		return &RPCError{Code: codeRoleUnauthorized, Message: "caller not authorized"}
	case errors.Is(err, registry.ErrAlreadyProcessed):
		return &RPCError{Code: codeAlreadyProcessed, Message: "content already processed"}
	case errors.Is(err, registry.ErrTransferFailed):
		return &RPCError{Code: codeTransferFailed, Message: "reward transfer failed", Data: err.Error()}
	case errors.Is(err, registry.ErrContentExists):
		return &RPCError{Code: codeContentExists, Message: "content already exists"}
	case errors.Is(err, registry.ErrContentNotFound):
		return &RPCError{Code: codeContentNotFound, Message: "content not found"}
	case errors.Is(err, common.ErrModulePaused):
		return &RPCError{Code: codeModulePaused, Message: "registry module paused"}
	default:
		return &RPCError{Code: codeServerError, Message: err.Error()}
	}
}

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single params object"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

func writeRPCResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	status := http.StatusBadRequest
	switch code {
	case codeUnauthorized, codeRoleUnauthorized:
		status = http.StatusUnauthorized
	case codeRateLimited:
		status = http.StatusTooManyRequests
	case codeServerError, codeTransferFailed:
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}
