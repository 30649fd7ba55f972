// Package marketdata keeps a short-lived cache of live tickers pushed over
// the public WebSocket, so hot quote lookups skip the REST round trip.
package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/gokx/okx/ws"
	"github.com/betbot/gokx/pkg/cache"
)

var feedLog = logrus.WithField("component", "marketdata")

// quoteTTL 行情超过这个时长视为过期，回退到 REST
const quoteTTL = 10 * time.Second

// Feed subscribes lazily: the first lookup of an instrument registers the
// subscription, later lookups hit the cache while pushes keep it fresh.
type Feed struct {
	client *ws.MarketClient
	quotes *cache.TTLCache[string, ws.Ticker]

	subscribed map[string]bool
	mu         sync.Mutex
}

// NewFeed 创建行情缓存。url 为空时返回 nil，调用方直接走 REST。
func NewFeed(url string) *Feed {
	if url == "" {
		return nil
	}
	f := &Feed{
		quotes:     cache.New[string, ws.Ticker](quoteTTL),
		subscribed: make(map[string]bool),
	}
	f.client = ws.NewMarketClient(url, func(t ws.Ticker) {
		f.quotes.Set(t.InstID, t, quoteTTL)
	})
	return f
}

// Start 建立 WebSocket 连接
func (f *Feed) Start(ctx context.Context) error {
	return f.client.Start(ctx)
}

// Stop 关闭连接并释放缓存
func (f *Feed) Stop() {
	f.client.Stop()
	f.quotes.Close()
}

// Latest returns the cached ticker when it is still fresh. A miss registers
// the subscription so the next lookup can be served from the push stream.
func (f *Feed) Latest(instID string) (ws.Ticker, bool) {
	if t, ok := f.quotes.Get(instID); ok {
		return t, true
	}

	f.mu.Lock()
	first := !f.subscribed[instID]
	if first {
		f.subscribed[instID] = true
	}
	f.mu.Unlock()

	if first {
		if err := f.client.SubscribeTicker(instID); err != nil {
			feedLog.Warnf("subscribe %s failed: %v", instID, err)
		}
	}
	return ws.Ticker{}, false
}
