package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/ledger/service"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// sendBufferSize is the number of queued messages after which a slow
	// subscriber is disconnected.
	sendBufferSize = 256
	maxMessageSize = 512 * 1024
	writeWait      = 10 * time.Second

	DefaultPingInterval = 30 * time.Second
)

// WebSocketServer serves RPC methods and event streams over websocket
type WebSocketServer struct {
	upgrader     websocket.Upgrader
	registry     *MethodRegistry
	logger       *zap.Logger
	pingInterval time.Duration
	removeHooks  func()

	mu          sync.RWMutex
	connections map[uint64]*wsConnection
	nextID      uint64
	closed      bool
}

// wsConnection is one client. writeLoop is the only writer to conn.
type wsConnection struct {
	id     uint64
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.RWMutex
	subscriptions map[Stream]bool

	closeOnce sync.Once
}

type transactionMessage struct {
	Type string `json:"type"`
	service.TransactionEvent
}

type ledgerMessage struct {
	Type string `json:"type"`
	service.LedgerEvent
}

// NewWebSocketServer creates a websocket server publishing the events of
// events to subscribed connections.
func NewWebSocketServer(registry *MethodRegistry, events *service.EventPublisher, logger *zap.Logger, pingInterval time.Duration) *WebSocketServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	ws := &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:     registry,
		logger:       logger.Named("websocket"),
		pingInterval: pingInterval,
		connections:  make(map[uint64]*wsConnection),
	}
	ws.removeHooks = events.AddHooks(&service.EventHooks{
		OnTransaction: func(e service.TransactionEvent) {
			ws.broadcast(StreamTransactions, transactionMessage{Type: "transaction", TransactionEvent: e})
		},
		OnLedgerClosed: func(e service.LedgerEvent) {
			ws.broadcast(StreamLedger, ledgerMessage{Type: "ledgerClosed", LedgerEvent: e})
		},
	})
	return ws
}

// ServeHTTP upgrades the request and serves the connection until it closes
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		conn.Close()
		return
	}
	ws.nextID++
	// The connection outlives the upgrade request
	ctx, cancel := context.WithCancel(context.Background())
	c := &wsConnection{
		id:            ws.nextID,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		done:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
		subscriptions: make(map[Stream]bool),
	}
	ws.connections[c.id] = c
	ws.mu.Unlock()

	ws.logger.Debug("websocket connected", zap.Uint64("conn", c.id), zap.String("client", getClientIP(r)))

	go ws.writeLoop(c)
	go ws.readLoop(c)
}

// ConnectionCount returns the number of open connections
func (ws *WebSocketServer) ConnectionCount() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.connections)
}

// Close unregisters from the event publisher and closes every connection
func (ws *WebSocketServer) Close() {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return
	}
	ws.closed = true
	conns := make([]*wsConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.mu.Unlock()

	ws.removeHooks()
	for _, c := range conns {
		ws.closeConnection(c)
	}
}

func (ws *WebSocketServer) closeConnection(c *wsConnection) {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		c.conn.Close()

		ws.mu.Lock()
		delete(ws.connections, c.id)
		ws.mu.Unlock()

		ws.logger.Debug("websocket disconnected", zap.Uint64("conn", c.id))
	})
}

func (ws *WebSocketServer) readLoop(c *wsConnection) {
	defer ws.closeConnection(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * ws.pingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * ws.pingInterval))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Debug("websocket read failed", zap.Uint64("conn", c.id), zap.Error(err))
			}
			return
		}
		ws.handleMessage(c, message)
	}
}

func (ws *WebSocketServer) writeLoop(c *wsConnection) {
	ticker := time.NewTicker(ws.pingInterval)
	defer func() {
		ticker.Stop()
		ws.closeConnection(c)
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.logger.Debug("websocket send failed", zap.Uint64("conn", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.logger.Debug("websocket ping failed", zap.Uint64("conn", c.id), zap.Error(err))
				return
			}
		}
	}
}

// queue hands a message to the write loop without blocking. A full buffer
// means the client is not keeping up and it is disconnected.
func (ws *WebSocketServer) queue(c *wsConnection, message []byte) {
	select {
	case <-c.done:
	case c.send <- message:
	default:
		ws.logger.Warn("websocket send buffer full, disconnecting", zap.Uint64("conn", c.id))
		go ws.closeConnection(c)
	}
}

func (ws *WebSocketServer) broadcast(stream Stream, msg interface{}) {
	ws.mu.RLock()
	targets := make([]*wsConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		if c.subscribed(stream) {
			targets = append(targets, c)
		}
	}
	ws.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		ws.logger.Error("failed to encode stream message", zap.String("stream", string(stream)), zap.Error(err))
		return
	}
	for _, c := range targets {
		ws.queue(c, data)
	}
}

func (c *wsConnection) subscribed(stream Stream) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[stream]
}

// handleMessage processes one command. Fields other than command and id
// are the method params.
func (ws *WebSocketServer) handleMessage(c *wsConnection, message []byte) {
	var cmdMap map[string]json.RawMessage
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(c, nil, nil, NewRpcError(RpcJSON_INVALID, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}

	var cmd WebSocketCommand
	if raw, ok := cmdMap["command"]; ok {
		_ = json.Unmarshal(raw, &cmd.Command)
	}
	if raw, ok := cmdMap["id"]; ok {
		_ = json.Unmarshal(raw, &cmd.ID)
	}
	if cmd.Command == "" {
		ws.sendError(c, cmd.ID, nil, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing command field"))
		return
	}
	delete(cmdMap, "command")
	delete(cmdMap, "id")
	if len(cmdMap) > 0 {
		cmd.Params, _ = json.Marshal(cmdMap)
	}

	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(c, cmd, true)
	case "unsubscribe":
		ws.handleSubscribe(c, cmd, false)
	default:
		ws.handleRPCMethod(c, cmd)
	}
}

func (ws *WebSocketServer) handleSubscribe(c *wsConnection, cmd WebSocketCommand, subscribe bool) {
	var request SubscriptionRequest
	if rpcErr := parseParams(cmd.Params, &request); rpcErr != nil {
		ws.sendError(c, cmd.ID, cmd, rpcErr)
		return
	}
	if len(request.Streams) == 0 {
		ws.sendError(c, cmd.ID, cmd, RpcErrorMissingField("streams"))
		return
	}
	for _, s := range request.Streams {
		if !validStream(s) {
			ws.sendError(c, cmd.ID, cmd, NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "Stream malformed: "+string(s)))
			return
		}
	}

	c.mu.Lock()
	for _, s := range request.Streams {
		if subscribe {
			c.subscriptions[s] = true
		} else {
			delete(c.subscriptions, s)
		}
	}
	c.mu.Unlock()

	ws.logger.Debug("websocket subscriptions changed",
		zap.Uint64("conn", c.id),
		zap.String("command", cmd.Command),
		zap.Any("streams", request.Streams))
	ws.sendResult(c, cmd.ID, map[string]interface{}{})
}

func (ws *WebSocketServer) handleRPCMethod(c *wsConnection, cmd WebSocketCommand) {
	handler, ok := ws.registry.Get(cmd.Command)
	if !ok {
		ws.sendError(c, cmd.ID, cmd, RpcErrorMethodNotFound(cmd.Command))
		return
	}
	result, rpcErr := handler.Handle(&RpcContext{Context: c.ctx, ClientIP: c.conn.RemoteAddr().String()}, cmd.Params)
	if rpcErr != nil {
		ws.sendError(c, cmd.ID, cmd, rpcErr)
		return
	}
	ws.sendResult(c, cmd.ID, result)
}

func (ws *WebSocketServer) sendResult(c *wsConnection, id interface{}, result interface{}) {
	ws.sendJSON(c, map[string]interface{}{
		"id":     id,
		"type":   "response",
		"status": "success",
		"result": result,
	})
}

func (ws *WebSocketServer) sendError(c *wsConnection, id interface{}, cmd interface{}, rpcErr *RpcError) {
	resp := map[string]interface{}{
		"id":            id,
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if cmd != nil {
		resp["request"] = cmd
	}
	ws.sendJSON(c, resp)
}

func (ws *WebSocketServer) sendJSON(c *wsConnection, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		ws.logger.Error("failed to encode websocket response", zap.Error(err))
		return
	}
	ws.queue(c, data)
}
