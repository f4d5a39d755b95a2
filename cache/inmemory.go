package cache

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"
)

type inMemoryStore struct {
	ctx       context.Context
	cancel    context.CancelFunc
	entries   map[string]*entry
	mutex     sync.Mutex
	waitGroup sync.WaitGroup
	once      sync.Once
	cfg       config
}

var _ Store = (*inMemoryStore)(nil)

func (s *inMemoryStore) Set(key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.cfg.defaultTTL
	}
	now := s.cfg.now()
	s.mutex.Lock()
	// full replacement, never an in-place mutation: the new entry's clock
	// starts fresh even when the key already exists
	s.entries[key] = &entry{object: val, createdAt: now, expires: now.Add(ttl)}
	s.mutex.Unlock()
}

func (s *inMemoryStore) Get(key string) (any, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.cfg.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false
	}
	return e.object, true
}

func (s *inMemoryStore) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *inMemoryStore) Invalidate(key string) bool {
	s.mutex.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mutex.Unlock()
	return ok
}

func (s *inMemoryStore) InvalidatePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("cache: invalid pattern %q: %w", pattern, err)
	}
	return s.InvalidateMatching(re), nil
}

func (s *inMemoryStore) InvalidateMatching(re *regexp.Regexp) int {
	var count int
	s.mutex.Lock()
	for key := range s.entries {
		if re.MatchString(key) {
			delete(s.entries, key)
			count++
		}
	}
	s.mutex.Unlock()
	return count
}

func (s *inMemoryStore) Clear() {
	s.mutex.Lock()
	s.entries = make(map[string]*entry)
	s.mutex.Unlock()
}

func (s *inMemoryStore) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}

func (s *inMemoryStore) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.waitGroup.Wait()
	})
	return nil
}

func (s *inMemoryStore) run() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.cfg.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			now := s.cfg.now()
			s.mutex.Lock()
			for key, e := range s.entries {
				if !now.Before(e.expires) {
					delete(s.entries, key)
				}
			}
			s.mutex.Unlock()
		}
	}
}

// NewInMemory returns a new in-memory Store implementation. The background
// sweep goroutine runs until the parent context is canceled or Close is
// called; it is not started at all when WithSweepInterval(0) is given.
func NewInMemory(parent context.Context, opts ...Option) Store {
	cfg := applyOptions(opts)
	ctx, cancel := context.WithCancel(parent)
	s := &inMemoryStore{
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
		cfg:     cfg,
	}
	if cfg.sweepInterval > 0 {
		s.waitGroup.Add(1)
		go s.run()
	}
	return s
}
