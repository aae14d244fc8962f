package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/RedaDarwiche/skyfight-server/protocol"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxFrameSize   = 64 << 10
	sendQueueDepth = 256
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
// 房间经 Enqueue 写入，由唯一的 writePump 协程负责写 socket
type ClientConn struct {
	id    string
	ws    *websocket.Conn
	codec protocol.Codec
	log   *zap.SugaredLogger

	mu     deadlock.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(ws *websocket.Conn, codec protocol.Codec, log *zap.SugaredLogger) *ClientConn {
	return &ClientConn{
		id:    uuid.NewString(),
		ws:    ws,
		codec: codec,
		log:   log,
		send:  make(chan []byte, sendQueueDepth),
	}
}

func (c *ClientConn) ID() string            { return c.id }
func (c *ClientConn) Codec() protocol.Codec { return c.codec }

// Enqueue 将要发送的消息压入队列（非阻塞，满或已关闭则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Close 关闭发送队列，writePump 发完剩余消息后关闭 socket
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *ClientConn) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// writePump 清空发送队列，并用 ping 保活
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		if rec := recover(); rec != nil {
			c.log.Errorw("write pump panic", "conn", c.id, "panic", rec)
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(c.messageType(), msg); err != nil {
				c.log.Debugw("write failed", "conn", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 解码帧并按到达顺序交给房间，返回时通知房间清理该连接
func (c *ClientConn) readPump(room *Room) {
	defer room.Disconnect(c.id)
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Errorw("read pump panic", "conn", c.id, "panic", rec)
		}
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := context.Background()
	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debugw("read failed", "conn", c.id, "err", err)
			}
			return
		}
		msg, err := protocol.DecodeInbound(c.codec, frame)
		if err != nil {
			var de *protocol.DecodeError
			msgType := ""
			if errors.As(err, &de) {
				msgType = de.Type
			}
			err = room.Reject(ctx, c.id, msgType, err)
		} else {
			err = room.Deliver(ctx, c.id, msg)
		}
		if err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWSHandler 升级 GET /ws，?codec=msgpack 使用二进制 MessagePack 帧
func NewWSHandler(room *Room, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnw("upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		client := NewClientConn(ws, codec, log)
		if err := room.Connect(r.Context(), client); err != nil {
			log.Warnw("room rejected connection", "conn", client.id, "err", err)
			_ = ws.Close()
			return
		}
		go client.writePump()
		go client.readPump(room)
	}
}
