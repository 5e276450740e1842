package cache

import (
	"context"
	"sync"
	"time"

	"github.com/leeforge/captcha/captcha"
)

// MemoryStore 内存验证码存储，适合单实例部署和测试
type MemoryStore struct {
	items map[string]*item
	mu    sync.RWMutex
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type item struct {
	answer    string
	expiresAt time.Time
}

var _ captcha.Store = (*MemoryStore)(nil)

// NewMemoryStore 创建内存存储，cleanupInterval 为 0 时不启动后台清理
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]*item),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	// 启动后台清理过期数据
	if cleanupInterval > 0 {
		go s.cleanupExpired(cleanupInterval)
	}

	return s
}

// Save 保存答案
func (s *MemoryStore) Save(_ context.Context, id string, answer string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[id] = &item{
		answer:    answer,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get 获取答案
func (s *MemoryStore) Get(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, exists := s.items[id]
	if !exists {
		return "", captcha.ErrCaptchaNotFound.WithDetail("id", id)
	}
	if s.now().After(it.expiresAt) {
		return "", captcha.ErrCaptchaExpired.WithDetail("id", id)
	}
	return it.answer, nil
}

// Delete 删除答案
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

// Exists 未过期的答案是否存在
func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, exists := s.items[id]
	return exists && !s.now().After(it.expiresAt), nil
}

// Len 当前条目数（包括尚未清理的过期条目）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close 停止后台清理
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// cleanupExpired 定期清理过期数据
func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, it := range s.items {
		if now.After(it.expiresAt) {
			delete(s.items, id)
		}
	}
}
