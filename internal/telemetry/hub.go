// Package telemetry 缓存最近一帧读数并通过 WebSocket 推送给订阅者
package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/taoyao-code/aqmon/internal/protocol/pms"
)

// Reading 带时间戳的一帧读数
type Reading struct {
	Frame   pms.Frame `json:"frame"`
	At      time.Time `json:"at"`
	Session string    `json:"session"`
}

// Message WebSocket 推送的消息信封
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const MessageReading = "reading"

// sendQueue 每个订阅者的待发消息上限，满时丢弃新读数
const sendQueue = 8

const writeWait = 5 * time.Second

// client 一个订阅者；写操作只发生在它自己的 writer 协程
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	dropped atomic.Uint64
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendQueue)}
}

// enqueue 非阻塞入队，队列满时丢弃
func (c *client) enqueue(b []byte) bool {
	select {
	case c.send <- b:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// writer 依次写出队列中的消息，直到 quit 关闭或写失败
// 写失败时关闭连接，读循环随之退出
func (c *client) writer(quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

// Hub 最新读数缓存 + 广播
type Hub struct {
	mu      sync.RWMutex
	latest  Reading
	has     bool
	clients map[*client]struct{}

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub 创建空 Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Publish 更新最新读数并投递给所有订阅者，从不阻塞在慢连接上
func (h *Hub) Publish(r Reading) {
	b, err := json.Marshal(Message{Type: MessageReading, Data: r})
	if err != nil {
		h.logger.Error("marshal reading failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.latest = r
	h.has = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.enqueue(b) {
			h.logger.Debug("websocket client too slow, reading dropped",
				zap.Uint64("dropped", c.dropped.Load()))
		}
	}
}

// Latest 返回最近一帧；尚无读数时 ok=false
func (h *Hub) Latest() (Reading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.has
}

// LastFrameAt 最近一帧的时间，尚无读数时为零值
func (h *Hub) LastFrameAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest.At
}

// Clients 当前订阅者数量
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeHTTP 升级为 WebSocket，连接后先推送最新读数
// 客户端发送的消息被丢弃，读循环仅用于探测断开
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(conn)
	if latest, ok := h.Latest(); ok {
		if b, err := json.Marshal(Message{Type: MessageReading, Data: latest}); err == nil {
			c.enqueue(b)
		}
	}
	h.add(c)

	quit := make(chan struct{})
	go c.writer(quit)
	defer func() {
		h.remove(c)
		close(quit)
		_ = conn.Close()
	}()
	h.logger.Debug("websocket client connected", zap.String("remote_addr", r.RemoteAddr))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Debug("websocket client disconnected", zap.Error(err))
			return
		}
	}
}
