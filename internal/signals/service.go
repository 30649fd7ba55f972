// Package signals fetches and caches trading signals from an external feed.
package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/betbot/gokx/pkg/cache"
)

var sigLog = logrus.WithField("component", "signals")

const (
	fetchTimeout    = 10 * time.Second
	refreshInterval = 30 * time.Second // minimum gap between upstream fetches
	retention       = time.Hour        // signals older than this drop out
)

// Signal 一条规范化后的交易信号
type Signal struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Signal    string  `json:"signal"` // BUY or SELL
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
	Reason    string  `json:"reason"`
}

type feedPayload struct {
	Signals []feedSignal `json:"signals"`
}

type feedSignal struct {
	Symbol    string          `json:"symbol"`
	Signal    string          `json:"signal"`
	Price     json.RawMessage `json:"price"` // feed sends number or string
	Timestamp string          `json:"timestamp"`
	Reason    string          `json:"reason"`
}

// Service caches signals for an hour, refreshing from the feed at most
// every 30 seconds unless forced.
type Service struct {
	sourceURL string
	http      *resty.Client
	cache     *cache.TTLCache[string, Signal]

	lastFetch time.Time
	fetchMu   sync.Mutex
}

// New 创建信号服务。sourceURL 为空时 Get 始终返回空列表。
func New(sourceURL string) *Service {
	return &Service{
		sourceURL: sourceURL,
		http:      resty.New().SetTimeout(fetchTimeout),
		cache:     cache.New[string, Signal](retention),
	}
}

// Get returns the cached signals, refreshing first when the refresh window
// has passed or forceRefresh is set. Fetch failures degrade to the cached
// set rather than erroring.
func (s *Service) Get(ctx context.Context, forceRefresh bool) []Signal {
	if s.sourceURL == "" {
		return []Signal{}
	}

	s.fetchMu.Lock()
	stale := forceRefresh || s.lastFetch.IsZero() || time.Since(s.lastFetch) > refreshInterval
	if stale {
		s.lastFetch = time.Now()
	}
	s.fetchMu.Unlock()

	if stale {
		if fetched, err := s.fetch(ctx); err != nil {
			sigLog.Warnf("signal fetch failed: %v", err)
		} else {
			for _, sig := range fetched {
				if _, exists := s.cache.Get(sig.ID); !exists {
					s.cache.Set(sig.ID, sig, retention)
				}
			}
		}
	}

	out := make([]Signal, 0, s.cache.Size())
	for _, id := range s.cache.Keys() {
		if sig, ok := s.cache.Get(id); ok {
			out = append(out, sig)
		}
	}
	// newest first
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// Close releases the cache's background cleaner.
func (s *Service) Close() {
	s.cache.Close()
}

func (s *Service) fetch(ctx context.Context) ([]Signal, error) {
	resp, err := s.http.R().SetContext(ctx).Get(s.sourceURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("http %d", resp.StatusCode())
	}

	var payload feedPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, err
	}

	out := make([]Signal, 0, len(payload.Signals))
	for _, raw := range payload.Signals {
		sig := normalize(raw)
		if sig.Symbol == "" {
			continue
		}
		out = append(out, sig)
	}
	return out, nil
}

func normalize(raw feedSignal) Signal {
	price := parsePrice(raw.Price)
	ts := raw.Timestamp
	if ts == "" {
		ts = time.Now().Format(time.RFC3339)
	}
	return Signal{
		ID:        fmt.Sprintf("%s_%s_%s", raw.Symbol, ts, raw.Signal),
		Symbol:    raw.Symbol,
		Signal:    normalizeSide(raw.Signal),
		Price:     price,
		Timestamp: ts,
		Reason:    raw.Reason,
	}
}

func normalizeSide(s string) string {
	switch s {
	case "buy", "Buy", "BUY":
		return "BUY"
	case "sell", "Sell", "SELL":
		return "SELL"
	}
	return s
}

func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		_, _ = fmt.Sscanf(str, "%f", &f)
	}
	return f
}
