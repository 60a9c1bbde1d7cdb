// Package testutils provides test helpers shared across packages.
package testutils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RPCHandler answers a single JSON-RPC method. The returned value is marshalled as the result.
type RPCHandler func(params []json.RawMessage) (any, error)

// RPCError is returned by a handler to produce a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// RPCRequest is a request received by the RPCServer.
type RPCRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// RPCServer is a JSON-RPC over HTTP server that dispatches to per method handlers and records
// every request it receives. Unknown methods are answered with a -32601 error.
type RPCServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]RPCHandler
	requests []RPCRequest
}

// NewRPCServer starts an RPCServer which is closed when tb finishes.
func NewRPCServer(tb testing.TB, handlers map[string]RPCHandler) *RPCServer {
	tb.Helper()

	s := &RPCServer{handlers: handlers}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	tb.Cleanup(s.Close)

	return s
}

// Handle registers or replaces the handler of method.
func (s *RPCServer) Handle(method string, h RPCHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[method] = h
}

// Requests returns the recorded requests for method.
func (s *RPCServer) Requests(method string) []RPCRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []RPCRequest
	for _, r := range s.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}

	return out
}

func (s *RPCServer) serve(w http.ResponseWriter, r *http.Request) {
	var req RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = &RPCError{Code: -32601, Message: "method not found: " + req.Method}
	} else if result, err := h(req.Params); err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &RPCError{Code: -32000, Message: err.Error()}
		}
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Static returns a handler that always answers with result.
func Static(result any) RPCHandler {
	return func([]json.RawMessage) (any, error) { return result, nil }
}
