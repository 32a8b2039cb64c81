// Package iceberg provides the Iceberg datasource plugin on top of the REST
// catalog. Namespaces are listed as databases and fields come from the
// table's current schema.
package iceberg

import (
	"context"
	"sort"
	"strings"

	"github.com/apache/iceberg-go"
	"github.com/apache/iceberg-go/table"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"go.uber.org/zap"
)

const (
	PluginName = "Iceberg"

	KeyURI       = "uri"
	KeyPrefix    = "prefix"
	KeyToken     = "token"
	KeyNamespace = "namespace"
	KeyTable     = "table"
)

// catalogAPI catalog 访问接口，测试中替换
type catalogAPI interface {
	ListNamespaces(ctx context.Context) ([]table.Identifier, error)
	ListTables(ctx context.Context, namespace table.Identifier) ([]table.Identifier, error)
	Schema(ctx context.Context, ident table.Identifier) (*iceberg.Schema, error)
}

type connectFunc func(ctx context.Context, params config.Params) (catalogAPI, error)

var (
	connectionRule = option.NewRuleBuilder().
			Required(option.Key(KeyURI).StringType().NoDefaultValue().
				WithDescription("REST catalog uri, eg: http://localhost:8181")).
			Optional(
			option.Key(KeyPrefix).StringType().NoDefaultValue().WithDescription("catalog prefix, eg: warehouse name"),
			option.Key(KeyToken).StringType().NoDefaultValue().WithDescription("OAuth2 bearer token"),
		).
		MustBuild()

	metadataRule = option.NewRuleBuilder().
			Required(
			option.Key(KeyNamespace).StringType().NoDefaultValue().WithDescription("namespace, nested levels joined by '.'"),
			option.Key(KeyTable).StringType().NoDefaultValue().WithDescription("table name"),
		).
		MustBuild()
)

// Channel Iceberg REST catalog 元数据通道
type Channel struct {
	connect connectFunc
	log     logger.ComponentLogger
}

func newChannel(connect connectFunc) *Channel {
	return &Channel{connect: connect, log: logger.ComponentWithName("Iceberg")}
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return connectionRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

func (c *Channel) catalog(ctx context.Context, pluginName string, params map[string]string) (catalogAPI, error) {
	if err := connectionRule.Validate(params); err != nil {
		return nil, plugin.ConfigurationError(pluginName, "%v", err)
	}
	cat, err := c.connect(ctx, config.Params(params))
	if err != nil {
		c.log.Warn("Catalog config request failed", zap.String("plugin", pluginName), zap.Error(err))
		return nil, plugin.ConnectivityError(pluginName, "load catalog config", err)
	}
	return cat, nil
}

// CheckConnectivity 创建 catalog 时已拉取 /v1/config
func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	if _, err := c.catalog(ctx, pluginName, params); err != nil {
		return false, err
	}
	return true, nil
}

// ListDatabases 顶层 namespace，嵌套层级以 '.' 连接
func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	cat, err := c.catalog(ctx, pluginName, params)
	if err != nil {
		return nil, err
	}
	namespaces, err := cat.ListNamespaces(ctx)
	if err != nil {
		return nil, plugin.ConnectivityError(pluginName, "list databases", err)
	}
	databases := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		databases = append(databases, strings.Join(ns, "."))
	}
	sort.Strings(databases)
	return databases, nil
}

func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	cat, err := c.catalog(ctx, pluginName, params)
	if err != nil {
		return nil, err
	}
	idents, err := cat.ListTables(ctx, namespaceOf(database))
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "list tables", err)
	}
	names := make([]string, 0, len(idents))
	for _, id := range idents {
		if len(id) > 0 {
			names = append(names, id[len(id)-1])
		}
	}
	return lo.Apply(names), nil
}

func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	cat, err := c.catalog(ctx, pluginName, params)
	if err != nil {
		return nil, err
	}
	schema, err := cat.Schema(ctx, append(namespaceOf(database), table))
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	fields, err := schemaFields(schema)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	return fields, nil
}

// namespaceOf "a.b" 转成多级 namespace
func namespaceOf(database string) table.Identifier {
	return strings.Split(database, ".")
}

// Factory Iceberg 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.DataLake)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return newChannel(connectCatalog)
}
