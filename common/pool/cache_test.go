package pool

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	db           *sql.DB
	closes       atomic.Int32
	leaseErr     error
	panicOnClose bool
}

func (f *fakeSource) Conn(ctx context.Context) (*sql.Conn, error) {
	if f.leaseErr != nil {
		return nil, f.leaseErr
	}
	return f.db.Conn(ctx)
}

func (f *fakeSource) Close() error {
	f.closes.Add(1)
	if f.panicOnClose {
		panic("boom")
	}
	return nil
}

type fakeProvider struct {
	creates atomic.Int32
	delay   time.Duration

	mu       sync.Mutex
	err      error
	leaseErr error
	panics   bool
	sources  []*fakeSource
}

func (p *fakeProvider) CacheKey(params map[string]string) string {
	return CacheKey(params["url"], params["user"])
}

func (p *fakeProvider) CreateDataSource(params map[string]string) (DataSource, error) {
	p.creates.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	db, _, err := sqlmock.New()
	if err != nil {
		return nil, err
	}
	src := &fakeSource{db: db, leaseErr: p.leaseErr, panicOnClose: p.panics}
	p.sources = append(p.sources, src)
	return src, nil
}

func (p *fakeProvider) source(i int) *fakeSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sources[i]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testParams = map[string]string{
	"url":      "jdbc:mysql://127.0.0.1:9030/demo",
	"user":     "root",
	"password": "s3cret",
}

func newTestCache(t *testing.T, clock *fakeClock) *Cache {
	t.Helper()
	opts := Options{SweepInterval: time.Hour}
	if clock != nil {
		opts.Now = clock.Now
	}
	c := New(opts)
	t.Cleanup(func() { c.Close() })
	return c
}

func leaseAndRelease(t *testing.T, c *Cache, p Provider, params map[string]string) {
	t.Helper()
	conn, err := c.Conn(context.Background(), p, params)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestConn_CreatesAtMostOncePerKey(t *testing.T) {
	c := newTestCache(t, nil)
	p := &fakeProvider{delay: 20 * time.Millisecond}

	const callers = 32
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := c.Conn(context.Background(), p, testParams)
			if err != nil {
				errs <- err
				return
			}
			errs <- conn.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), p.creates.Load())
	assert.Equal(t, 1, c.Len())
}

func TestConn_DistinctKeysGetDistinctSources(t *testing.T) {
	c := newTestCache(t, nil)
	p := &fakeProvider{}

	other := map[string]string{"url": testParams["url"], "user": "analyst", "password": "x"}
	leaseAndRelease(t, c, p, testParams)
	leaseAndRelease(t, c, p, other)
	leaseAndRelease(t, c, p, testParams)

	assert.Equal(t, int32(2), p.creates.Load())
	assert.Equal(t, []string{
		"{jdbc-url=jdbc:mysql://127.0.0.1:9030/demo, username=analyst}",
		"{jdbc-url=jdbc:mysql://127.0.0.1:9030/demo, username=root}",
	}, c.Keys())
}

func TestConn_FailedCreationIsNotCached(t *testing.T) {
	c := newTestCache(t, nil)
	cause := errors.New("access denied")
	p := &fakeProvider{err: cause}

	_, err := c.Conn(context.Background(), p, testParams)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPoolCreation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, c.Len())

	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()

	leaseAndRelease(t, c, p, testParams)
	assert.Equal(t, int32(2), p.creates.Load())
	assert.Equal(t, 1, c.Len())
}

func TestConn_LeaseFailureIsConnectivityError(t *testing.T) {
	c := newTestCache(t, nil)
	cause := errors.New("too many connections")
	p := &fakeProvider{leaseErr: cause}

	_, err := c.Conn(context.Background(), p, testParams)
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.ErrorIs(t, err, cause)
	// 数据源本身创建成功，仍然缓存
	assert.Equal(t, 1, c.Len())
}

func TestCacheKey_ExcludesPassword(t *testing.T) {
	p := &fakeProvider{}
	key := p.CacheKey(testParams)
	assert.Equal(t, "{jdbc-url=jdbc:mysql://127.0.0.1:9030/demo, username=root}", key)
	assert.NotContains(t, key, "s3cret")

	changed := map[string]string{"url": testParams["url"], "user": "root", "password": "rotated"}
	assert.Equal(t, key, p.CacheKey(changed))
}

func TestCleanUp_EvictsIdleSourceOnceAndRecreates(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestCache(t, clock)
	p := &fakeProvider{}

	leaseAndRelease(t, c, p, testParams)
	first := p.source(0)

	clock.Advance(29 * time.Minute)
	require.NoError(t, c.CleanUp())
	assert.Equal(t, 1, c.Len(), "still within idle ttl")

	// 访问会刷新lastAccess
	leaseAndRelease(t, c, p, testParams)
	clock.Advance(29 * time.Minute)
	require.NoError(t, c.CleanUp())
	assert.Equal(t, 1, c.Len())

	clock.Advance(2 * time.Minute)
	require.NoError(t, c.CleanUp())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int32(1), first.closes.Load())

	require.NoError(t, c.CleanUp())
	assert.Equal(t, int32(1), first.closes.Load())

	leaseAndRelease(t, c, p, testParams)
	assert.Equal(t, int32(2), p.creates.Load())
	assert.Equal(t, int32(0), p.source(1).closes.Load())
}

func TestSweeper_EvictsInBackground(t *testing.T) {
	c := New(Options{IdleTTL: 10 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	defer c.Close()
	p := &fakeProvider{}

	leaseAndRelease(t, c, p, testParams)
	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), p.source(0).closes.Load())
}

func TestCleanUp_RecoversFromPanickingClose(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := newTestCache(t, clock)
	p := &fakeProvider{panics: true}

	leaseAndRelease(t, c, p, testParams)
	clock.Advance(time.Hour)

	var err error
	assert.NotPanics(t, func() { err = c.CleanUp() })
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestClose_ClosesEverythingAndStartReopens(t *testing.T) {
	c := New(Options{SweepInterval: time.Hour})
	p := &fakeProvider{}

	other := map[string]string{"url": "jdbc:mysql://10.0.0.2:9030/demo", "user": "root"}
	leaseAndRelease(t, c, p, testParams)
	leaseAndRelease(t, c, p, other)

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int32(1), p.source(0).closes.Load())
	assert.Equal(t, int32(1), p.source(1).closes.Load())

	_, err := c.Conn(context.Background(), p, testParams)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.NoError(t, c.Close(), "second close is a no-op")

	c.Start()
	defer c.Close()
	leaseAndRelease(t, c, p, testParams)
	assert.Equal(t, int32(3), p.creates.Load())
}

func TestSQLDataSource_AppliesSizingAndCloses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	ds, err := NewSQLDataSource(db, "jdbc:mysql://127.0.0.1:3306/demo")
	require.NoError(t, err)
	assert.Equal(t, MaxPoolSize, ds.Stats().MaxOpenConnections)
	assert.Equal(t, "jdbc:mysql://127.0.0.1:3306/demo", ds.URL())

	conn, err := ds.Conn(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.NoError(t, ds.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
