package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// maxRequestBody bounds the size of a JSON-RPC request body
const maxRequestBody = 1 << 20

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *MethodRegistry
	logger   *zap.Logger
}

// NewServer creates an RPC server serving the marketplace methods of svc
func NewServer(svc LedgerService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := &Server{
		registry: NewMethodRegistry(),
		logger:   logger.Named("rpc"),
	}
	registerMethods(server.registry, svc)
	return server
}

// Registry returns the methods served, shared with the websocket server
func (s *Server) Registry() *MethodRegistry {
	return s.registry
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGetRequest(w, r)
	case http.MethodPost:
		s.handlePostRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetRequest serves ?command=name without params, defaulting to server_info
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	ctx := &RpcContext{Context: r.Context(), ClientIP: getClientIP(r)}
	result, rpcErr := s.executeMethod(method, nil, ctx)
	s.writeResponse(w, map[string]interface{}{"command": method}, result, rpcErr)
}

func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeResponse(w, nil, nil, RpcErrorInternal("Failed to read request body"))
		return
	}

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, nil, nil, NewRpcError(RpcJSON_INVALID, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, nil, nil, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing method field"))
		return
	}

	// Params is an array holding one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx := &RpcContext{Context: r.Context(), ClientIP: getClientIP(r)}
	result, rpcErr := s.executeMethod(request.Method, params, ctx)

	requestObj := map[string]interface{}{"command": request.Method}
	if params != nil {
		var reqMap map[string]interface{}
		if err := json.Unmarshal(params, &reqMap); err == nil {
			reqMap["command"] = request.Method
			requestObj = reqMap
		}
	}
	s.writeResponse(w, requestObj, result, rpcErr)
}

func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, RpcErrorMethodNotFound(method)
	}

	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		s.logger.Debug("rpc method failed",
			zap.String("method", method),
			zap.String("client", ctx.ClientIP),
			zap.String("error", rpcErr.ErrorString))
	}
	return result, rpcErr
}

// writeResponse writes {"result": {...}} with result.status "success" or
// "error". Error responses echo the request.
func (s *Server) writeResponse(w http.ResponseWriter, request interface{}, result interface{}, rpcErr *RpcError) {
	var resultObj map[string]interface{}

	if rpcErr != nil {
		resultObj = map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
	} else {
		resultObj = toMap(result)
		resultObj["status"] = "success"
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"result": resultObj}); err != nil {
		s.logger.Warn("failed to write rpc response", zap.Error(err))
	}
}

// toMap flattens a result struct into a map so status can be added
func toMap(result interface{}) map[string]interface{} {
	if m, ok := result.(map[string]interface{}); ok {
		return m
	}
	out := make(map[string]interface{})
	if result == nil {
		return out
	}
	data, err := json.Marshal(result)
	if err != nil {
		return out
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	_ = dec.Decode(&out)
	return out
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
