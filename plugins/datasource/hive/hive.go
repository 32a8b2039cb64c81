// Package hive provides the Hive and JDBC-Hive datasource plugins over a native
// HiveServer2 (thrift) client. Databases are not filtered: Hive has no system
// database that is safe to hide.
package hive

import (
	"context"
	"fmt"
	"strings"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"go.uber.org/zap"
)

const (
	PluginName     = "Hive"
	JDBCPluginName = "JDBC-Hive"

	KeyAuth = "auth"
)

// session 一次HiveServer2会话，每个调用单独建立
type session interface {
	Query(ctx context.Context, stmt string) ([][]string, error)
	Close() error
}

type dialFunc func(ctx context.Context, params config.Params) (session, error)

var (
	connectionRule = option.NewRuleBuilder().
			Required(option.Key(rdbms.KeyURL).StringType().NoDefaultValue().
				WithDescription("hive2 url, eg: jdbc:hive2://localhost:10000/default")).
			Optional(
			option.Key(rdbms.KeyUser).StringType().NoDefaultValue().WithDescription("hive user"),
			option.Key(rdbms.KeyPassword).StringType().NoDefaultValue().WithDescription("hive password"),
			option.Key(KeyAuth).EnumType("NONE", "NOSASL", "KERBEROS").DefaultValue("NONE").
				WithDescription("HiveServer2 authentication mode"),
		).
		MustBuild()

	metadataRule = option.NewRuleBuilder().
			Required(
			option.Key(rdbms.KeyDatabase).StringType().NoDefaultValue().WithDescription("database name"),
			option.Key(rdbms.KeyTable).StringType().NoDefaultValue().WithDescription("table name"),
		).
		MustBuild()
)

// Channel Hive 元数据通道
type Channel struct {
	dial dialFunc
	log  logger.ComponentLogger
}

func newChannel(dial dialFunc) *Channel {
	return &Channel{dial: dial, log: logger.ComponentWithName("Hive")}
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return connectionRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

func (c *Channel) withSession(ctx context.Context, pluginName string, params map[string]string, fn func(s session) error) error {
	if err := connectionRule.Validate(params); err != nil {
		return plugin.ConfigurationError(pluginName, "%v", err)
	}
	s, err := c.dial(ctx, config.Params(params))
	if err != nil {
		return plugin.ConnectivityError(pluginName, "open session", err)
	}
	defer s.Close()
	return fn(s)
}

func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	err := c.withSession(ctx, pluginName, params, func(s session) error {
		if _, err := s.Query(ctx, "SHOW DATABASES"); err != nil {
			return plugin.ConnectivityError(pluginName, "check connectivity", err)
		}
		return nil
	})
	if err != nil {
		c.log.Warn("Connectivity check failed", zap.String("plugin", pluginName), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	var databases []string
	err := c.withSession(ctx, pluginName, params, func(s session) error {
		rows, err := s.Query(ctx, "SHOW DATABASES")
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list databases", err)
		}
		databases = firstColumn(rows)
		return nil
	})
	return databases, err
}

// ListTables SHOW TABLES 不保证顺序，过滤后在内存中排序
func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	var tables []string
	err = c.withSession(ctx, pluginName, params, func(s session) error {
		rows, err := s.Query(ctx, "SHOW TABLES IN "+rdbms.QuoteIdentifier(database, "`"))
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list tables", err)
		}
		tables = lo.Apply(firstColumn(rows))
		return nil
	})
	return tables, err
}

// TableFields Hive 没有主键约束，所有列可空
func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	var fields []element.TableField
	err := c.withSession(ctx, pluginName, params, func(s session) error {
		stmt := fmt.Sprintf("DESCRIBE %s.%s", rdbms.QuoteIdentifier(database, "`"), rdbms.QuoteIdentifier(table, "`"))
		rows, err := s.Query(ctx, stmt)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "table fields", err)
		}
		fields = parseDescribe(rows)
		if len(fields) == 0 {
			return plugin.IntrospectionError(pluginName, "table fields",
				fmt.Errorf("table %s.%s has no columns", database, table))
		}
		return nil
	})
	return fields, err
}

// parseDescribe 读取 DESCRIBE 输出，分区信息段（以空行或 # 开头）之后的内容忽略
func parseDescribe(rows [][]string) []element.TableField {
	var fields []element.TableField
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || strings.HasPrefix(name, "#") {
			break
		}
		field := element.TableField{Name: name, Type: strings.TrimSpace(row[1]), Nullable: true}
		if len(row) > 2 {
			field = field.WithComment(strings.TrimSpace(row[2]))
		}
		fields = append(fields, field)
	}
	return fields
}

func firstColumn(rows [][]string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			out = append(out, row[0])
		}
	}
	return out
}

// Factory Hive 与 JDBC-Hive 共享同一个 channel
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{
		plugin.NewDescriptor(PluginName, plugin.Database),
		plugin.NewDescriptor(JDBCPluginName, plugin.Database),
	}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return newChannel(dialHive)
}
