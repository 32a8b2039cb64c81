// Package doris provides the JDBC-Doris datasource plugin. Connections are
// leased from the shared pool cache because Doris catalogs are queried often.
package doris

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/plugins/datasource/mysql"
)

const PluginName = "JDBC-Doris"

var systemDatabases = []string{"__internal_schema", "information_schema", "mysql"}

// Channel Doris 元数据通道
type Channel struct {
	*rdbms.Channel
}

// TableFieldsBatch 并发查询，并发数受连接池大小限制
func (c *Channel) TableFieldsBatch(ctx context.Context, pluginName string, params map[string]string, database string, tables []string) (map[string][]element.TableField, error) {
	return c.ParallelTableFields(ctx, pluginName, params, database, tables)
}

// TableSyncMaxValue 查询列的最大值作为增量同步起点
func (c *Channel) TableSyncMaxValue(ctx context.Context, pluginName string, params map[string]string, database, table, column string, excludedTypes []string) (string, error) {
	var maxValue string
	err := c.WithConn(ctx, pluginName, params, func(q rdbms.Queryer) error {
		var dataType string
		err := q.QueryRowContext(ctx,
			"SELECT DATA_TYPE FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_NAME = ?",
			database, table, column).Scan(&dataType)
		if errors.Is(err, sql.ErrNoRows) {
			return plugin.IntrospectionError(pluginName, "table sync max value",
				fmt.Errorf("column %s not found in %s.%s", column, database, table))
		}
		if err != nil {
			return plugin.IntrospectionError(pluginName, "table sync max value", err)
		}
		for _, excluded := range excludedTypes {
			if strings.EqualFold(excluded, dataType) {
				return plugin.Unsupported(pluginName, fmt.Sprintf("table sync max value on %s column %s", dataType, column))
			}
		}

		query := fmt.Sprintf("SELECT MAX(%s) FROM %s.%s",
			rdbms.QuoteIdentifier(column, "`"),
			rdbms.QuoteIdentifier(database, "`"),
			rdbms.QuoteIdentifier(table, "`"))
		var v sql.NullString
		if err := q.QueryRowContext(ctx, query).Scan(&v); err != nil {
			return plugin.IntrospectionError(pluginName, "table sync max value", err)
		}
		maxValue = v.String
		return nil
	})
	if err != nil {
		return "", err
	}
	return maxValue, nil
}

// Factory JDBC-Doris 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

// CreateChannel 没有注入连接池缓存时退化为每次调用建立连接
func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return newChannel(mysql.NewDialect("jdbc:mysql://localhost:9030/test", systemDatabases), env)
}

func newChannel(d rdbms.Dialect, env plugin.Environment) *Channel {
	if env.Pools == nil {
		return &Channel{Channel: rdbms.NewChannel(d)}
	}
	return &Channel{Channel: rdbms.NewPooledChannel(d, env.Pools)}
}
