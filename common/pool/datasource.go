package pool

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// 池化数据源的固定规格
const (
	MinIdle           = 1
	MaxPoolSize       = 2
	ConnectionTimeout = 30 * time.Second
	IdleTimeout       = 600 * time.Second
	MaxLifetime       = 1800 * time.Second
)

// DataSource 由缓存独占持有的连接池，调用方只拿到租借的连接
type DataSource interface {
	Conn(ctx context.Context) (*sql.Conn, error)
	Close() error
}

// Provider 由池化的channel实现：计算缓存键并创建数据源
type Provider interface {
	// CacheKey 必须是纯函数，且不能包含密码
	CacheKey(params map[string]string) string
	CreateDataSource(params map[string]string) (DataSource, error)
}

// CacheKey 按 url 和用户名生成缓存键
func CacheKey(url, username string) string {
	return fmt.Sprintf("{jdbc-url=%s, username=%s}", url, username)
}

// SQLDataSource 基于 *sql.DB 的数据源
type SQLDataSource struct {
	db  *sql.DB
	url string
}

// NewSQLDataSource 对已打开的 *sql.DB 应用固定规格并预热一个空闲连接
func NewSQLDataSource(db *sql.DB, url string) (*SQLDataSource, error) {
	db.SetMaxOpenConns(MaxPoolSize)
	db.SetMaxIdleConns(MinIdle)
	db.SetConnMaxIdleTime(IdleTimeout)
	db.SetConnMaxLifetime(MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to warm up pool for %s: %w", url, err)
	}
	return &SQLDataSource{db: db, url: url}, nil
}

// Conn 租借一个连接，获取连接最多等待 ConnectionTimeout
func (s *SQLDataSource) Conn(ctx context.Context) (*sql.Conn, error) {
	cctx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()
	conn, err := s.db.Conn(cctx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(cctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// statsReporter 能报告连接池统计的数据源
type statsReporter interface {
	Stats() sql.DBStats
}

// Stats 连接池统计
func (s *SQLDataSource) Stats() sql.DBStats {
	return s.db.Stats()
}

// URL 数据源地址（不含密码）
func (s *SQLDataSource) URL() string {
	return s.url
}

// Close 关闭底层连接池
func (s *SQLDataSource) Close() error {
	return s.db.Close()
}
