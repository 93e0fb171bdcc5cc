package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shouni/go-coloring-kit/pkg/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub は RunState のスナップショットを接続中の WebSocket クライアントに配るのだ。
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub は空のハブを作成するのだ。
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Broadcast は BookGenerator のリスナーとして呼ばれるのだ。
// 生成処理を止めないよう、送信キューが詰まったクライアントの分は捨てるのだ。
func (h *Hub) Broadcast(state domain.RunState) {
	data, err := json.Marshal(state)
	if err != nil {
		slog.Error("Hub: スナップショットのエンコードに失敗したのだ", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("Hub: 送信キューが一杯なのでスナップショットを捨てたのだ", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Count は接続中のクライアント数を返すのだ。
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close はすべてのクライアントを切断するのだ。
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve は接続をアップグレードし、最初に現在の状態を送ってから配信を続けるのだ。
// 接続が切れるまで戻らないのだ。
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, snapshot func() domain.RunState) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Hub: WebSocket のアップグレードに失敗したのだ", "error", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}

	if !h.register(c, snapshot) {
		conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	c.readPump()
	h.unregister(c)
	<-done
}

func (h *Hub) register(c *wsClient, snapshot func() domain.RunState) bool {
	initial, err := json.Marshal(snapshot())
	if err != nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.send <- initial
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump はクライアントからの切断と pong を検知するだけなのだ。
func (c *wsClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump は接続への唯一の書き込み手なのだ。
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
