package app

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second

	// ActionAuthorization binds a connection to a user: "Authorization|<token>"
	ActionAuthorization = "Authorization"
)

// WebSocketMessage one inbound frame, "Type|Data"
type WebSocketMessage struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// ResResult websocket reply body
type ResResult struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// UserVerifyFunc confirms a token's user still exists before the connection is bound to it.
type UserVerifyFunc func(ctx context.Context, uid int64) error

// WebsocketClient 存储每个 WebSocket 连接及其相关状态
type WebsocketClient struct {
	ID   string
	conn *gws.Conn
	done chan struct{}
	once sync.Once

	mu  sync.RWMutex
	uid int64
}

// UID returns the bound user id, 0 while anonymous.
func (c *WebsocketClient) UID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uid
}

func (c *WebsocketClient) setUID(uid int64) {
	c.mu.Lock()
	c.uid = uid
	c.mu.Unlock()
}

func (c *WebsocketClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// ToResponse 将结果转换为 JSON 格式并发送给客户端
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action string) {
	res := ResResult{
		Code:   codeObj.Code(),
		Status: codeObj.Status(),
		Msg:    codeObj.Msg(),
		Data:   codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		res.Details = strings.Join(codeObj.Details(), ",")
	}
	payload, err := EncodeFrame(action, res)
	if err != nil {
		return
	}
	_ = c.conn.WriteMessage(gws.OpcodeText, payload)
}

// EncodeFrame builds a "type|json" text frame
func EncodeFrame(action string, content any) ([]byte, error) {
	body, err := sonic.Marshal(content)
	if err != nil {
		return nil, err
	}
	if action == "" {
		return body, nil
	}
	frame := make([]byte, 0, len(action)+1+len(body))
	frame = append(frame, action...)
	frame = append(frame, '|')
	frame = append(frame, body...)
	return frame, nil
}

// ParseFrame splits a "type|data" frame. A frame without a separator is all type.
func ParseFrame(frame string) WebSocketMessage {
	if i := strings.Index(frame, "|"); i != -1 {
		return WebSocketMessage{Type: frame[:i], Data: []byte(frame[i+1:])}
	}
	return WebSocketMessage{Type: frame}
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

// WebsocketServer is the registry of connected real-time subscribers.
// It lives for the lifetime of one server instance and is drained by Shutdown.
type WebsocketServer struct {
	handlers     map[string]func(*WebsocketClient, *WebSocketMessage)
	userVerify   UserVerifyFunc
	tokenManager TokenManager
	logger       *zap.Logger

	mu          sync.RWMutex
	clients     ConnStorage
	userClients map[int64]ConnStorage
	closed      bool

	up     *gws.Upgrader
	config WebsocketServerConfig
}

func NewWebsocketServer(c WebsocketServerConfig, tm TokenManager, logger *zap.Logger) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WebsocketServer{
		handlers:     make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		tokenManager: tm,
		logger:       logger,
		clients:      make(ConnStorage),
		userClients:  make(map[int64]ConnStorage),
		config:       c,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	w.Use(ActionAuthorization, w.Authorization)
	return w
}

// Run upgrades the request and starts the read loop.
func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		if w.isClosed() {
			NewResponse(c).ToResponse(code.ErrorServerBusy)
			return
		}
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("WebsocketServer upgrade err", zap.Error(err))
			return
		}
		client := &WebsocketClient{ID: uuid.NewString(), conn: socket, done: make(chan struct{})}
		w.AddClient(client)
		go w.pingLoop(client)
		go socket.ReadLoop()
	}
}

func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

func (w *WebsocketServer) UseUserVerify(fn UserVerifyFunc) {
	w.userVerify = fn
}

// Authorization binds the connection to the token's user.
func (w *WebsocketServer) Authorization(c *WebsocketClient, msg *WebSocketMessage) {
	reject := func(err error) {
		w.logger.Warn("WebsocketServer Authorization failed", zap.String("client", c.ID), zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken, ActionAuthorization)
		_ = c.conn.WriteClose(1000, []byte("AuthorizationFailed"))
	}

	if w.tokenManager == nil {
		reject(ErrInvalidToken)
		return
	}
	token := strings.TrimSpace(string(msg.Data))
	token = strings.TrimPrefix(token, "Bearer ")
	user, err := w.tokenManager.Parse(token)
	if err != nil {
		reject(err)
		return
	}
	if w.userVerify != nil {
		if err := w.userVerify(context.Background(), user.UID); err != nil {
			reject(err)
			return
		}
	}

	w.AddUserClient(c, user.UID)
	c.ToResponse(code.Success, ActionAuthorization)
	w.logger.Info("WebsocketServer User Enters", zap.String("client", c.ID), zap.Int64("uid", user.UID))
}

func (w *WebsocketServer) pingLoop(c *WebsocketClient) {
	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				w.logger.Debug("WebsocketServer ping err", zap.String("client", c.ID), zap.Error(err))
				return
			}
		}
	}
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.clients[conn]
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) AddUserClient(c *WebsocketClient, uid int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if old := c.UID(); old != 0 && old != uid {
		delete(w.userClients[old], c.conn)
	}
	c.setUID(uid)
	if w.userClients[uid] == nil {
		w.userClients[uid] = make(ConnStorage)
	}
	w.userClients[uid][c.conn] = c
}

// RemoveClient drops the connection from both indexes.
func (w *WebsocketServer) RemoveClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.clients[conn]
	if !ok {
		return nil
	}
	delete(w.clients, conn)
	if uid := c.UID(); uid != 0 {
		delete(w.userClients[uid], conn)
		if len(w.userClients[uid]) == 0 {
			delete(w.userClients, uid)
		}
	}
	return c
}

// ClientCount 当前连接数
func (w *WebsocketServer) ClientCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.clients)
}

// Broadcast sends payload to every connected client and returns how many writes were queued.
func (w *WebsocketServer) Broadcast(payload []byte) int {
	w.mu.RLock()
	conns := make([]*gws.Conn, 0, len(w.clients))
	for conn := range w.clients {
		conns = append(conns, conn)
	}
	w.mu.RUnlock()
	return w.broadcast(conns, payload)
}

// BroadcastToUser sends payload to the connections bound to uid.
func (w *WebsocketServer) BroadcastToUser(uid int64, payload []byte) int {
	w.mu.RLock()
	conns := make([]*gws.Conn, 0, len(w.userClients[uid]))
	for conn := range w.userClients[uid] {
		conns = append(conns, conn)
	}
	w.mu.RUnlock()
	return w.broadcast(conns, payload)
}

func (w *WebsocketServer) broadcast(conns []*gws.Conn, payload []byte) int {
	if len(conns) == 0 {
		return 0
	}
	b := gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	sent := 0
	for _, conn := range conns {
		if err := b.Broadcast(conn); err == nil {
			sent++
		}
	}
	return sent
}

// Shutdown closes every connection and refuses new ones.
func (w *WebsocketServer) Shutdown() {
	w.mu.Lock()
	w.closed = true
	conns := make([]*gws.Conn, 0, len(w.clients))
	for conn := range w.clients {
		conns = append(conns, conn)
	}
	w.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteClose(1001, []byte("ServerShutdown"))
	}
	w.logger.Info("WebsocketServer shutdown", zap.Int("closed", len(conns)))
}

func (w *WebsocketServer) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
	w.logger.Info("WebsocketServer Client Connect", zap.Int("count", w.ClientCount()))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	c := w.RemoveClient(conn)
	if c == nil {
		return
	}
	c.stop()
	w.logger.Info("WebsocketServer Client Leave",
		zap.String("client", c.ID),
		zap.Int64("uid", c.UID()),
		zap.Int("count", w.ClientCount()))
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))

	if message.Opcode != gws.OpcodeText {
		return
	}
	text := message.Data.String()
	if text == "close" {
		_ = conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.GetClient(conn)
	if c == nil {
		return
	}

	msg := ParseFrame(text)
	handler, ok := w.handlers[msg.Type]
	if !ok {
		c.ToResponse(code.ErrorInvalidParams.WithDetails("unknown action "+strconv.Quote(msg.Type)), msg.Type)
		return
	}
	handler(c, &msg)
}
