package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	GetRemaining() int
}

// SlidingWindow 滑动窗口速率限制器
type SlidingWindow struct {
	limit      int           // 限制数量
	windowSize time.Duration // 窗口大小
	requests   []time.Time   // 请求时间戳
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
		requests:   make([]time.Time, 0),
	}
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-sw.windowSize)

	// 移除窗口外的请求
	valid := sw.requests[:0]
	for _, req := range sw.requests {
		if req.After(cutoff) {
			valid = append(valid, req)
		}
	}
	sw.requests = valid

	if len(sw.requests) >= sw.limit {
		return false
	}

	sw.requests = append(sw.requests, now)
	return true
}

// Wait 等待直到允许请求
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}

		sw.mu.Lock()
		oldest := time.Now()
		if len(sw.requests) > 0 {
			oldest = sw.requests[0]
		}
		waitTime := sw.windowSize - time.Since(oldest)
		sw.mu.Unlock()

		if waitTime <= 0 {
			waitTime = 100 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// GetRemaining 获取剩余请求数
func (sw *SlidingWindow) GetRemaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := time.Now().Add(-sw.windowSize)
	valid := 0
	for _, req := range sw.requests {
		if req.After(cutoff) {
			valid++
		}
	}
	if r := sw.limit - valid; r > 0 {
		return r
	}
	return 0
}

// Manager 按端点组管理速率限制器。
// 交易所对 trade / account / public 端点组使用不同的限流配额。
type Manager struct {
	limiters map[string]RateLimiter
	mu       sync.RWMutex
}

// NewManager 创建速率限制管理器并初始化默认端点组
func NewManager() *Manager {
	m := &Manager{limiters: make(map[string]RateLimiter)}

	// 默认配额（保守取值，低于交易所公布上限）
	m.limiters["trade"] = NewSlidingWindow(50, 2*time.Second)
	m.limiters["account"] = NewSlidingWindow(5, 2*time.Second)
	m.limiters["public"] = NewSlidingWindow(15, 2*time.Second)

	return m
}

// Register 注册/覆盖某个端点组的限制器
func (m *Manager) Register(group string, limiter RateLimiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[group] = limiter
}

// Wait 等待指定端点组允许请求；未注册的组不限流
func (m *Manager) Wait(ctx context.Context, group string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[group]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
