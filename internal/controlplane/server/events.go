package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gemspace/gemmarket/pkg/logger"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedBufferSize   = 64
	feedPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the feed is broadcast-only public data
	CheckOrigin: func(r *http.Request) bool { return true },
}

// saleEvent 推送给订阅者的成交事件
type saleEvent struct {
	Type string   `json:"type"` // 目前只有 "sale"
	Sale saleView `json:"sale"`
}

// saleHub 成交事件广播中心
// 单 goroutine 事件循环串行处理注册/注销/广播，慢客户端直接踢掉
type saleHub struct {
	register   chan chan saleEvent
	unregister chan chan saleEvent
	broadcast  chan saleEvent
	done       chan struct{}
}

func newSaleHub() *saleHub {
	return &saleHub{
		register:   make(chan chan saleEvent),
		unregister: make(chan chan saleEvent),
		broadcast:  make(chan saleEvent, feedBufferSize),
		done:       make(chan struct{}),
	}
}

func (h *saleHub) run() {
	subscribers := make(map[chan saleEvent]struct{})
	for {
		select {
		case ch := <-h.register:
			subscribers[ch] = struct{}{}
		case ch := <-h.unregister:
			if _, ok := subscribers[ch]; ok {
				delete(subscribers, ch)
				close(ch)
			}
		case ev := <-h.broadcast:
			for ch := range subscribers {
				select {
				case ch <- ev:
				default:
					// 订阅者消费太慢，丢弃连接而不是阻塞广播
					delete(subscribers, ch)
					close(ch)
				}
			}
		case <-h.done:
			for ch := range subscribers {
				close(ch)
			}
			return
		}
	}
}

func (h *saleHub) publish(sale saleView) {
	select {
	case h.broadcast <- saleEvent{Type: "sale", Sale: sale}:
	case <-h.done:
	}
}

func (h *saleHub) stop() {
	close(h.done)
}

// handleSalesFeed 升级为 WebSocket 并持续推送成交事件
func (s *Server) handleSalesFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan saleEvent, feedBufferSize)
	select {
	case s.hub.register <- ch:
	case <-s.hub.done:
		return
	}
	defer func() {
		select {
		case s.hub.unregister <- ch:
		case <-s.hub.done:
		}
	}()

	// 丢弃客户端消息，只用读循环感知断连
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
