// Package ws 提供 OKX 公共行情 WebSocket 客户端
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var wsLog = logrus.WithField("component", "okx_ws")

const (
	pingInterval = 25 * time.Second // OKX 要求 30s 内至少一次心跳
	readTimeout  = 40 * time.Second
	maxBackoff   = 30 * time.Second
)

// TickerHandler 行情回调
type TickerHandler func(t Ticker)

// Ticker 推送的行情数据
type Ticker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	AskPx  string `json:"askPx"`
	BidPx  string `json:"bidPx"`
	Ts     string `json:"ts"`
}

type subscribeOp struct {
	Op   string      `json:"op"`
	Args []wsChannel `json:"args"`
}

type wsChannel struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type pushMessage struct {
	Event string          `json:"event"`
	Arg   wsChannel       `json:"arg"`
	Data  json.RawMessage `json:"data"`
	Msg   string          `json:"msg"`
}

// MarketClient 管理行情订阅连接，断线自动重连并恢复订阅
type MarketClient struct {
	url     string
	handler TickerHandler

	conn   *websocket.Conn
	connMu sync.Mutex

	subscriptions map[string]bool // instId -> subscribed
	subMu         sync.Mutex

	running  bool
	runMu    sync.Mutex
	cancelFn context.CancelFunc
	doneCh   chan struct{}
}

// NewMarketClient 创建行情客户端。handler 在读 goroutine 里被调用，不要阻塞。
func NewMarketClient(url string, handler TickerHandler) *MarketClient {
	return &MarketClient{
		url:           url,
		handler:       handler,
		subscriptions: make(map[string]bool),
	}
}

// Start 建立连接并开始监听
func (c *MarketClient) Start(ctx context.Context) error {
	c.runMu.Lock()
	if c.running {
		c.runMu.Unlock()
		return fmt.Errorf("market client already running")
	}
	c.running = true
	runCtx, cancel := context.WithCancel(ctx)
	c.cancelFn = cancel
	c.doneCh = make(chan struct{})
	c.runMu.Unlock()

	if err := c.connect(runCtx); err != nil {
		c.runMu.Lock()
		c.running = false
		c.runMu.Unlock()
		cancel()
		return err
	}

	go c.run(runCtx)
	return nil
}

// Stop 关闭连接
func (c *MarketClient) Stop() {
	c.runMu.Lock()
	if !c.running {
		c.runMu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancelFn
	done := c.doneCh
	c.runMu.Unlock()

	cancel()
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connMu.Unlock()
	<-done
}

// SubscribeTicker 订阅一个产品的行情，重连后自动恢复
func (c *MarketClient) SubscribeTicker(instID string) error {
	c.subMu.Lock()
	c.subscriptions[instID] = true
	c.subMu.Unlock()
	return c.send(subscribeOp{Op: "subscribe", Args: []wsChannel{{Channel: "tickers", InstID: instID}}})
}

// UnsubscribeTicker 退订行情
func (c *MarketClient) UnsubscribeTicker(instID string) error {
	c.subMu.Lock()
	delete(c.subscriptions, instID)
	c.subMu.Unlock()
	return c.send(subscribeOp{Op: "unsubscribe", Args: []wsChannel{{Channel: "tickers", InstID: instID}}})
}

func (c *MarketClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	// 恢复已有订阅
	c.subMu.Lock()
	instIDs := make([]string, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		instIDs = append(instIDs, id)
	}
	c.subMu.Unlock()
	for _, id := range instIDs {
		if err := c.send(subscribeOp{Op: "subscribe", Args: []wsChannel{{Channel: "tickers", InstID: id}}}); err != nil {
			wsLog.Warnf("resubscribe %s failed: %v", id, err)
		}
	}
	return nil
}

func (c *MarketClient) send(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(v)
}

func (c *MarketClient) run(ctx context.Context) {
	defer close(c.doneCh)

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				c.connMu.Lock()
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.TextMessage, []byte("ping"))
				}
				c.connMu.Unlock()
			}
		}
	}()

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wsLog.Warnf("read error, reconnecting in %v: %v", backoff, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			if err := c.connect(ctx); err != nil {
				wsLog.Warnf("reconnect failed: %v", err)
			}
			continue
		}
		backoff = time.Second

		if string(raw) == "pong" {
			continue
		}
		c.dispatch(raw)
	}
}

func (c *MarketClient) dispatch(raw []byte) {
	var msg pushMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		wsLog.Debugf("unparsable message: %s", truncate(raw, 120))
		return
	}
	if msg.Event == "error" {
		wsLog.Warnf("server error: %s", msg.Msg)
		return
	}
	if msg.Arg.Channel != "tickers" || len(msg.Data) == 0 || c.handler == nil {
		return
	}
	var tickers []Ticker
	if err := json.Unmarshal(msg.Data, &tickers); err != nil {
		return
	}
	for _, t := range tickers {
		c.handler(t)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
