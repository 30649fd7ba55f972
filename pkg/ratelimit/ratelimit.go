package ratelimit

import (
	"context"
	"sync"
	"time"
)

// IntervalGate 保证共享同一出口身份的调用之间有最小间隔。
// 多账户扇出串行执行时靠它隔开相邻请求；若将来改为并发执行，
// 所有 worker 仍须通过同一个 gate，以维持交易所侧的限速假设。
type IntervalGate struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewIntervalGate 创建最小间隔闸门。interval <= 0 时 Wait 不阻塞。
func NewIntervalGate(interval time.Duration) *IntervalGate {
	return &IntervalGate{interval: interval}
}

// Interval 返回配置的最小间隔
func (g *IntervalGate) Interval() time.Duration {
	return g.interval
}

// Wait 阻塞直到距上一次放行至少过去一个间隔，或 ctx 结束。
// 第一次调用立即放行。
func (g *IntervalGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if !g.last.IsZero() {
		if elapsed := now.Sub(g.last); elapsed < g.interval {
			sleep = g.interval - elapsed
		}
	}
	// 预占下一个时隙，并发调用者依次排队
	g.last = now.Add(sleep)
	g.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenBucket 令牌桶速率限制器，用于单账户对单端点的限速
type TokenBucket struct {
	capacity   int
	tokens     int
	refillRate int // 每秒补充的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 等待直到允许请求
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}
		wait := time.Second
		if tb.refillRate > 0 {
			wait = time.Second / time.Duration(tb.refillRate)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// GetRemaining 获取剩余令牌数
func (tb *TokenBucket) GetRemaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
