// Package rdbms implements metadata discovery for relational databases on top
// of database/sql. A Dialect supplies the catalog queries; Channel runs them
// either on a connection opened for the single call or on one leased from the
// shared pool cache.
package rdbms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/common/pool"
	"go.uber.org/zap"
)

// Queryer *sql.DB 和 *sql.Conn 的公共部分
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Channel 通用 JDBC 元数据通道
type Channel struct {
	dialect Dialect
	// pools 为nil时每次调用单独建立连接
	pools   *pool.Cache
	log     logger.ComponentLogger
	metrics *logger.MetricsLogger
}

// NewChannel 每次调用打开连接，调用结束时关闭
func NewChannel(dialect Dialect) *Channel {
	return &Channel{
		dialect: dialect,
		log:     logger.ComponentWithName("RDBMS"),
		metrics: logger.Metrics("RDBMS"),
	}
}

// NewPooledChannel 从进程级连接池缓存租借连接
func NewPooledChannel(dialect Dialect, pools *pool.Cache) *Channel {
	c := NewChannel(dialect)
	c.pools = pools
	return c
}

// Dialect 返回方言
func (c *Channel) Dialect() Dialect {
	return c.dialect
}

// CacheKey 实现 pool.Provider，不包含密码
func (c *Channel) CacheKey(params map[string]string) string {
	p := config.Params(params)
	return pool.CacheKey(p.String(KeyURL), p.String(KeyUser))
}

// CreateDataSource 实现 pool.Provider
func (c *Channel) CreateDataSource(params map[string]string) (pool.DataSource, error) {
	db, err := c.dialect.Open(config.Params(params))
	if err != nil {
		return nil, err
	}
	return pool.NewSQLDataSource(db, config.Params(params).String(KeyURL))
}

// WithConn 获取连接执行 fn，结束后释放。连接失败返回 ErrConnectivity（池创建失败为 ErrPoolCreation）。
func (c *Channel) WithConn(ctx context.Context, pluginName string, params map[string]string, fn func(q Queryer) error) error {
	if err := c.dialect.ConnectionRule().Validate(params); err != nil {
		return plugin.ConfigurationError(pluginName, "%v", err)
	}

	if c.pools != nil {
		conn, err := c.pools.Conn(ctx, c, params)
		if err != nil {
			if errors.Is(err, pool.ErrPoolCreation) {
				return plugin.PoolCreationError(pluginName, err)
			}
			return plugin.ConnectivityError(pluginName, "lease connection", err)
		}
		defer conn.Close()
		return fn(conn)
	}

	db, err := c.dialect.Open(config.Params(params))
	if err != nil {
		return plugin.ConnectivityError(pluginName, "open connection", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return plugin.ConnectivityError(pluginName, "open connection", err)
	}
	return fn(db)
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return c.dialect.ConnectionRule()
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return c.dialect.MetadataRule()
}

// CheckConnectivity 执行 CheckQuery，结果为空时返回 false
func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	var ok bool
	err := c.WithConn(ctx, pluginName, params, func(q Queryer) error {
		rows, err := q.QueryContext(ctx, c.dialect.CheckQuery())
		if err != nil {
			return plugin.ConnectivityError(pluginName, "check connectivity", err)
		}
		defer rows.Close()
		ok = rows.Next()
		if err := rows.Err(); err != nil {
			return plugin.ConnectivityError(pluginName, "check connectivity", err)
		}
		return nil
	})
	if err != nil {
		c.log.Warn("Connectivity check failed", zap.String("plugin", pluginName), zap.Error(err))
		return false, err
	}
	return ok, nil
}

// ListDatabases 过滤系统库
func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	timer := c.metrics.StartTimer("list databases", zap.String("plugin", pluginName))
	var databases []string
	err := c.WithConn(ctx, pluginName, params, func(q Queryer) error {
		names, err := queryStrings(ctx, q, c.dialect.DatabasesQuery())
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list databases", err)
		}
		for _, name := range names {
			if !isSystemDatabase(c.dialect, name) {
				databases = append(databases, name)
			}
		}
		return nil
	})
	timer.StopWithCount(len(databases), err)
	if err != nil {
		return nil, err
	}
	return databases, nil
}

// ListTables options 支持 filterName 和 size，结果按 schema、表名排序后截断
func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}

	timer := c.metrics.StartTimer("list tables", zap.String("plugin", pluginName), zap.String("database", database))
	var tables []string
	err = c.WithConn(ctx, pluginName, withDatabase(params, database), func(q Queryer) error {
		query, args := c.dialect.TablesQuery(database, lo.LikePattern())
		names, err := queryStrings(ctx, q, query, args...)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list tables", err)
		}
		tables = lo.Truncate(lo.Refine(names))
		return nil
	})
	timer.StopWithCount(len(tables), err)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// TableFields 列信息加主键标记
func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	var fields []element.TableField
	err := c.WithConn(ctx, pluginName, withDatabase(params, database), func(q Queryer) error {
		var err error
		fields, err = c.tableFields(ctx, q, pluginName, database, table)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// TableFieldsOn 在已获得的连接上查询表字段，供批量实现复用连接
func (c *Channel) TableFieldsOn(ctx context.Context, q Queryer, pluginName, database, table string) ([]element.TableField, error) {
	return c.tableFields(ctx, q, pluginName, database, table)
}

func (c *Channel) tableFields(ctx context.Context, q Queryer, pluginName, database, table string) ([]element.TableField, error) {
	query, args := c.dialect.ColumnsQuery(database, table)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	defer rows.Close()

	var fields []element.TableField
	for rows.Next() {
		var name, typ, nullable, comment sql.NullString
		if err := rows.Scan(&name, &typ, &nullable, &comment); err != nil {
			return nil, plugin.IntrospectionError(pluginName, "table fields", err)
		}
		field := element.TableField{
			Name:     name.String,
			Type:     typ.String,
			Nullable: parseNullable(nullable),
		}
		fields = append(fields, field.WithComment(comment.String))
	}
	if err := rows.Err(); err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	if len(fields) == 0 {
		return nil, plugin.IntrospectionError(pluginName, "table fields",
			fmt.Errorf("table %s.%s not found or has no columns", database, table))
	}

	pkQuery, pkArgs := c.dialect.PrimaryKeyQuery(database, table)
	if pkQuery == "" {
		return fields, nil
	}
	keys, err := queryStrings(ctx, q, pkQuery, pkArgs...)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "primary key", err)
	}
	return tagFirstKey(fields, keys), nil
}

// tagFirstKey 只标记第一个出现在返回列中的主键列
func tagFirstKey(fields []element.TableField, keys []string) []element.TableField {
	for _, k := range keys {
		for _, f := range fields {
			if f.Name == k {
				return element.TagPrimaryKey(fields, k)
			}
		}
	}
	return fields
}

// withDatabase 把目标库放进参数副本，需要按库建连的方言（如 Postgres）在 Open 中读取
func withDatabase(params map[string]string, database string) map[string]string {
	out := make(map[string]string, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if database != "" {
		out[KeyDatabase] = database
	}
	return out
}

func queryStrings(ctx context.Context, q Queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s sql.NullString
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		if s.Valid {
			out = append(out, s.String)
		}
	}
	return out, rows.Err()
}
