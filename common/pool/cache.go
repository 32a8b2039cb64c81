// Package pool keeps one pooled data source per connection fingerprint and
// evicts the ones nobody has used for a while.
//
// A Cache is safe for concurrent use. For a given key at most one data source
// is live at any time; an evicted data source is closed exactly once and no
// connection is leased from it while it is closing.
package pool

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIdleTTL            = 30 * time.Minute
	DefaultSweepInterval      = time.Minute
	DefaultSlowLeaseThreshold = 2 * time.Second
)

// 驱逐原因
const (
	reasonExpired  = "expired"
	reasonShutdown = "shutdown"
)

// Options 缓存配置
type Options struct {
	IdleTTL            time.Duration
	SweepInterval      time.Duration
	SlowLeaseThreshold time.Duration
	// Registerer 为nil时指标不注册
	Registerer prometheus.Registerer
	// Now 时钟，测试中替换
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.IdleTTL <= 0 {
		o.IdleTTL = DefaultIdleTTL
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	if o.SlowLeaseThreshold <= 0 {
		o.SlowLeaseThreshold = DefaultSlowLeaseThreshold
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type entry struct {
	key    string
	id     string
	source DataSource

	// 读锁：租借连接；写锁：关闭
	mu     sync.RWMutex
	closed bool

	// 受 Cache.mu 保护
	lastAccess time.Time
}

// Cache 按键缓存池化数据源
type Cache struct {
	opts    Options
	log     logger.ComponentLogger
	stats   *logger.MetricsLogger
	metrics *cacheMetrics
	group   singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
	stop    chan struct{}
	done    chan struct{}
}

// New 创建缓存并启动后台清理协程
func New(opts Options) *Cache {
	c := &Cache{
		opts:    opts.withDefaults(),
		log:     logger.ComponentWithName("PoolCache"),
		stats:   logger.Metrics("PoolCache"),
		metrics: newCacheMetrics(opts.Registerer),
		entries: make(map[string]*entry),
	}
	c.startSweeper()
	return c
}

func (c *Cache) startSweeper() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.stop, c.done)
}

func (c *Cache) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.CleanUp(); err != nil {
				c.log.Warn("Sweep finished with close errors", zap.Error(err))
			}
		}
	}
}

// Conn 按 provider 计算的键获取（必要时创建）数据源，并租借一个连接。
// 调用方负责 conn.Close()。
func (c *Cache) Conn(ctx context.Context, provider Provider, params map[string]string) (*sql.Conn, error) {
	key := provider.CacheKey(params)
	for {
		e, err := c.getOrCreate(key, provider, params)
		if err != nil {
			return nil, err
		}
		conn, ok, err := c.lease(ctx, e)
		if !ok {
			// 数据源正在被关闭，重新查找
			continue
		}
		return conn, err
	}
}

func (c *Cache) getOrCreate(key string, provider Provider, params map[string]string) (*entry, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if e, ok := c.entries[key]; ok {
		e.lastAccess = c.opts.Now()
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return e, nil
		}
		c.mu.Unlock()
		return c.create(key, provider, params)
	})
	if err != nil {
		return nil, err
	}

	e := v.(*entry)
	c.mu.Lock()
	e.lastAccess = c.opts.Now()
	c.mu.Unlock()
	return e, nil
}

func (c *Cache) create(key string, provider Provider, params map[string]string) (*entry, error) {
	id := uuid.NewString()
	c.log.Info("Creating pooled data source", zap.String("key", key), zap.String("id", id))

	source, err := provider.CreateDataSource(params)
	if err != nil {
		c.metrics.failed.Inc()
		c.log.Error("Failed to create pooled data source", zap.String("key", key), zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrPoolCreation, key, err)
	}

	e := &entry{key: key, id: id, source: source, lastAccess: c.opts.Now()}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		source.Close()
		return nil, ErrPoolClosed
	}
	c.entries[key] = e
	c.mu.Unlock()

	c.metrics.created.Inc()
	c.metrics.active.Inc()
	c.log.Info("Created pooled data source", zap.String("key", key), zap.String("id", id))
	return e, nil
}

// lease 返回 ok=false 表示数据源已关闭
func (c *Cache) lease(ctx context.Context, e *entry) (*sql.Conn, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, false, nil
	}

	start := time.Now()
	conn, err := e.source.Conn(ctx)
	elapsed := time.Since(start)
	c.metrics.leaseDur.Observe(elapsed.Seconds())
	if elapsed > c.opts.SlowLeaseThreshold {
		c.log.Warn("Slow connection lease",
			zap.String("key", e.key),
			zap.Duration("elapsed", elapsed))
	}
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %w", ErrConnectivity, e.key, err)
	}
	return conn, true, nil
}

// CleanUp 关闭并移除空闲超过 IdleTTL 的数据源
func (c *Cache) CleanUp() error {
	now := c.opts.Now()

	c.mu.Lock()
	var expired []*entry
	for key, e := range c.entries {
		if now.Sub(e.lastAccess) > c.opts.IdleTTL {
			expired = append(expired, e)
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	var errs error
	for _, e := range expired {
		errs = multierr.Append(errs, c.remove(e, reasonExpired))
	}
	return errs
}

// remove 关闭一个已从map中移除的数据源，只会真正关闭一次；panic被恢复为错误
func (c *Cache) remove(e *entry, reason string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while closing data source %s: %v", e.key, r)
			c.log.Error("Failed to close pooled data source",
				zap.String("key", e.key), zap.String("id", e.id), zap.Error(err))
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	c.metrics.active.Dec()
	c.metrics.evicted.WithLabelValues(reason).Inc()

	c.log.Info("Closing pooled data source",
		zap.String("key", e.key), zap.String("id", e.id), zap.String("reason", reason))
	if r, ok := e.source.(statsReporter); ok {
		st := r.Stats()
		c.stats.LogPoolMetrics(e.key, st.OpenConnections, st.InUse, st.Idle)
	}
	if err := e.source.Close(); err != nil {
		c.log.Error("Failed to close pooled data source",
			zap.String("key", e.key), zap.String("id", e.id), zap.Error(err))
		return fmt.Errorf("close %s: %w", e.key, err)
	}
	c.log.Info("Closed pooled data source", zap.String("key", e.key), zap.String("id", e.id))
	return nil
}

// Close 停止清理协程，关闭全部数据源并重置状态。可以再次 Start。
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stop, done := c.stop, c.done
	c.mu.Unlock()

	close(stop)
	<-done

	errs := c.CleanUp()

	c.mu.Lock()
	remaining := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for _, e := range remaining {
		errs = multierr.Append(errs, c.remove(e, reasonShutdown))
	}
	c.log.Info("Pool cache closed", zap.Int("closed", len(remaining)))
	return errs
}

// Start 重新启用已关闭的缓存
func (c *Cache) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		return
	}
	c.closed = false
	c.entries = make(map[string]*entry)
	c.startSweeper()
}

// Len 当前缓存的数据源数量
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys 当前缓存键，已排序
func (c *Cache) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}
