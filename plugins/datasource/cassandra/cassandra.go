// Package cassandra provides the Cassandra datasource plugin. Keyspaces are
// listed as databases and the system_schema tables serve as catalog.
package cassandra

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const (
	PluginName = "Cassandra"

	KeyHost       = "host"
	KeyPort       = "port"
	KeyUsername   = "username"
	KeyPassword   = "password"
	KeyDatacenter = "datacenter"
	KeyUseSSL     = "useSSL"
	KeyKeyspace   = "keyspace"
	KeyTable      = "table"

	DefaultPort = 9042
)

var systemKeyspaces = map[string]bool{
	"system": true, "system_auth": true, "system_schema": true, "system_distributed": true,
	"system_traces": true, "system_views": true, "system_virtual_schema": true,
}

// session CQL 会话，测试中替换
type session interface {
	Query(ctx context.Context, stmt string, args ...interface{}) ([]map[string]interface{}, error)
	Close()
}

type connectFunc func(params config.Params) (session, error)

var (
	connectionRule = option.NewRuleBuilder().
			Required(option.Key(KeyHost).StringType().NoDefaultValue().WithDescription("comma separated contact points")).
			Optional(
			option.Key(KeyPort).IntType().DefaultValue(DefaultPort).WithDescription("native protocol port"),
			option.Key(KeyDatacenter).StringType().NoDefaultValue().WithDescription("local datacenter"),
			option.Key(KeyUseSSL).BoolType().DefaultValue(false).WithDescription("enable ssl"),
		).
		Bundled(
			option.Key(KeyUsername).StringType().NoDefaultValue().WithDescription("cassandra user"),
			option.Key(KeyPassword).StringType().NoDefaultValue().WithDescription("cassandra password"),
		).
		MustBuild()

	metadataRule = option.NewRuleBuilder().
			Required(
			option.Key(KeyKeyspace).StringType().NoDefaultValue().WithDescription("keyspace name"),
			option.Key(KeyTable).StringType().NoDefaultValue().WithDescription("table name"),
		).
		MustBuild()
)

// Channel Cassandra 元数据通道
type Channel struct {
	connect connectFunc
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return connectionRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

func (c *Channel) withSession(pluginName string, params map[string]string, fn func(s session) error) error {
	if err := connectionRule.Validate(params); err != nil {
		return plugin.ConfigurationError(pluginName, "%v", err)
	}
	s, err := c.connect(config.Params(params))
	if err != nil {
		return plugin.ConnectivityError(pluginName, "create session", err)
	}
	defer s.Close()
	return fn(s)
}

func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	var ok bool
	err := c.withSession(pluginName, params, func(s session) error {
		rows, err := s.Query(ctx, "SELECT release_version FROM system.local")
		if err != nil {
			return plugin.ConnectivityError(pluginName, "check connectivity", err)
		}
		ok = len(rows) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	var keyspaces []string
	err := c.withSession(pluginName, params, func(s session) error {
		rows, err := s.Query(ctx, "SELECT keyspace_name FROM system_schema.keyspaces")
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list databases", err)
		}
		for _, name := range column(rows, "keyspace_name") {
			if !systemKeyspaces[strings.ToLower(name)] {
				keyspaces = append(keyspaces, name)
			}
		}
		sort.Strings(keyspaces)
		return nil
	})
	return keyspaces, err
}

func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	var tables []string
	err = c.withSession(pluginName, params, func(s session) error {
		rows, err := s.Query(ctx, "SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?", database)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list tables", err)
		}
		tables = lo.Apply(column(rows, "table_name"))
		return nil
	})
	return tables, err
}

func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	var fields []element.TableField
	err := c.withSession(pluginName, params, func(s session) error {
		rows, err := s.Query(ctx,
			"SELECT column_name, type, kind, position FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?",
			database, table)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "table fields", err)
		}
		if len(rows) == 0 {
			return plugin.IntrospectionError(pluginName, "table fields",
				fmt.Errorf("table %s.%s not found", database, table))
		}
		fields = columnsToFields(rows)
		return nil
	})
	return fields, err
}

type columnRow struct {
	name     string
	typ      string
	kind     string
	position int
}

var kindOrder = map[string]int{"partition_key": 0, "clustering": 1, "static": 2, "regular": 3}

// columnsToFields 分区键、聚簇键按 position 排在前面，普通列按名称排序。
// 第一个分区键列标记为主键，键列不可空。
func columnsToFields(rows []map[string]interface{}) []element.TableField {
	cols := make([]columnRow, 0, len(rows))
	for _, r := range rows {
		col := columnRow{}
		col.name, _ = r["column_name"].(string)
		col.typ, _ = r["type"].(string)
		col.kind, _ = r["kind"].(string)
		col.position, _ = r["position"].(int)
		cols = append(cols, col)
	}
	sort.SliceStable(cols, func(i, j int) bool {
		ki, kj := kindOrder[cols[i].kind], kindOrder[cols[j].kind]
		if ki != kj {
			return ki < kj
		}
		if cols[i].position != cols[j].position {
			return cols[i].position < cols[j].position
		}
		return cols[i].name < cols[j].name
	})

	fields := make([]element.TableField, 0, len(cols))
	primaryKey := ""
	for _, col := range cols {
		key := col.kind == "partition_key" || col.kind == "clustering"
		if col.kind == "partition_key" && primaryKey == "" {
			primaryKey = col.name
		}
		fields = append(fields, element.TableField{Name: col.name, Type: col.typ, Nullable: !key})
	}
	return element.TagPrimaryKey(fields, primaryKey)
}

func column(rows []map[string]interface{}, name string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if s, ok := r[name].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Factory Cassandra 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return &Channel{connect: connectCluster}
}
