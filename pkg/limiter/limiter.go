// Package limiter holds token buckets keyed by request path or client IP.
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
type BucketRule struct {
	Key          string
	FillInterval time.Duration
	Capacity     int64
	Quantum      int64
}

// ------------------------------------> method limiter

// MethodLimiter limits by route prefix. Requests whose path matches no rule are not limited.
type MethodLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
	keys    []string
}

func NewMethodLimiter() Face {
	return &MethodLimiter{buckets: make(map[string]*ratelimit.Bucket)}
}

// Key returns the longest configured prefix of the request path, or "".
func (l *MethodLimiter) Key(c *gin.Context) string {
	path := c.Request.URL.Path
	l.mu.RLock()
	defer l.mu.RUnlock()
	best := ""
	for _, k := range l.keys {
		if strings.HasPrefix(path, k) && len(k) > len(best) {
			best = k
		}
	}
	return best
}

func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.buckets[key]
	return b, ok
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; ok {
			continue
		}
		l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, rule.Quantum)
		l.keys = append(l.keys, rule.Key)
	}
	return l
}

// ------------------------------------> ip limiter

// IPLimiter gives every client IP its own bucket built from a single rule.
// 每个 IP 独立令牌桶
type IPLimiter struct {
	mu      sync.Mutex
	rule    BucketRule
	buckets map[string]*ratelimit.Bucket
}

func NewIPLimiter(rule BucketRule) *IPLimiter {
	return &IPLimiter{rule: rule, buckets: make(map[string]*ratelimit.Bucket)}
}

func (l *IPLimiter) Key(c *gin.Context) string {
	return c.ClientIP()
}

// GetBucket lazily creates the bucket for key.
func (l *IPLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	if key == "" {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = ratelimit.NewBucketWithQuantum(l.rule.FillInterval, l.rule.Capacity, l.rule.Quantum)
		l.buckets[key] = b
	}
	return b, true
}

// AddBuckets replaces the rule for buckets created from now on.
func (l *IPLimiter) AddBuckets(rules ...BucketRule) Face {
	if len(rules) > 0 {
		l.mu.Lock()
		l.rule = rules[len(rules)-1]
		l.mu.Unlock()
	}
	return l
}

// Prune drops buckets that are full again, i.e. idle clients.
func (l *IPLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, b := range l.buckets {
		if b.Available() >= b.Capacity() {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}
