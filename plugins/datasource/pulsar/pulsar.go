// Package pulsar provides the Pulsar datasource plugin on top of the broker's
// admin API. Namespaces ("tenant/namespace") are listed as databases and
// topics as tables; fields come from the topic's registered schema.
package pulsar

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/apache/pulsar-client-go/pulsaradmin/pkg/utils"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const (
	PluginName = "Pulsar"

	KeyAdminURL = "admin.url"
	KeyToken    = "token"
	KeyTopic    = "topic"

	requestTimeout = 30 * time.Second
)

var systemNamespaces = map[string]bool{"public/functions": true}

// admin broker 管理接口，测试中替换
type admin interface {
	Clusters() ([]string, error)
	Tenants() ([]string, error)
	Namespaces(tenant string) ([]string, error)
	// Topics 返回 namespace 下全部 topic 的完整名称
	Topics(namespace string) ([]string, error)
	Schema(topic string) (*utils.SchemaInfo, error)
}

type connectFunc func(params config.Params) (admin, error)

var (
	connectionRule = option.NewRuleBuilder().
			Required(option.Key(KeyAdminURL).StringType().NoDefaultValue().
				WithDescription("pulsar admin service url, eg: http://localhost:8080")).
			Optional(option.Key(KeyToken).StringType().NoDefaultValue().WithDescription("JWT authentication token")).
			MustBuild()

	metadataRule = option.NewRuleBuilder().
			Required(option.Key(KeyTopic).StringType().NoDefaultValue().WithDescription("topic name")).
			Optional(option.Key("format").EnumType("json", "text").DefaultValue("json").WithDescription("message format")).
			MustBuild()
)

// Channel Pulsar 元数据通道
type Channel struct {
	connect connectFunc
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return connectionRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

// adminClient admin 客户端的调用不带 context，发起前检查是否已取消
func (c *Channel) adminClient(ctx context.Context, pluginName string, params map[string]string) (admin, error) {
	if err := connectionRule.Validate(params); err != nil {
		return nil, plugin.ConfigurationError(pluginName, "%v", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, plugin.ConnectivityError(pluginName, "create admin client", err)
	}
	a, err := c.connect(config.Params(params))
	if err != nil {
		return nil, plugin.ConfigurationError(pluginName, "invalid %s: %v", KeyAdminURL, err)
	}
	return a, nil
}

func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	a, err := c.adminClient(ctx, pluginName, params)
	if err != nil {
		return false, err
	}
	clusters, err := a.Clusters()
	if err != nil {
		return false, plugin.ConnectivityError(pluginName, "check connectivity", err)
	}
	return len(clusters) > 0, nil
}

// ListDatabases 返回全部租户下的 namespace
func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	a, err := c.adminClient(ctx, pluginName, params)
	if err != nil {
		return nil, err
	}
	tenants, err := a.Tenants()
	if err != nil {
		return nil, plugin.ConnectivityError(pluginName, "list databases", err)
	}
	var namespaces []string
	for _, tenant := range tenants {
		if tenant == "pulsar" {
			continue
		}
		ns, err := a.Namespaces(tenant)
		if err != nil {
			return nil, plugin.IntrospectionError(pluginName, "list databases", err)
		}
		for _, n := range ns {
			if !systemNamespaces[n] {
				namespaces = append(namespaces, n)
			}
		}
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// ListTables 分区 topic 只返回一次
func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	if _, _, err := splitNamespace(pluginName, database); err != nil {
		return nil, err
	}
	a, err := c.adminClient(ctx, pluginName, params)
	if err != nil {
		return nil, err
	}
	topics, err := a.Topics(database)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "list tables", err)
	}
	return lo.Apply(topicNames(topics)), nil
}

func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	tenant, namespace, err := splitNamespace(pluginName, database)
	if err != nil {
		return nil, err
	}
	a, err := c.adminClient(ctx, pluginName, params)
	if err != nil {
		return nil, err
	}
	info, err := a.Schema("persistent://" + tenant + "/" + namespace + "/" + table)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	fields, err := schemaFields(info)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	return fields, nil
}

func splitNamespace(pluginName, database string) (string, string, error) {
	tenant, namespace, ok := strings.Cut(database, "/")
	if !ok || tenant == "" || namespace == "" {
		return "", "", plugin.ConfigurationError(pluginName, "database must be 'tenant/namespace', got '%s'", database)
	}
	return tenant, namespace, nil
}

// topicNames persistent://tenant/ns/name-partition-0 转成 name，去重，保持首次出现的顺序
func topicNames(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	var out []string
	for _, t := range topics {
		name := t[strings.LastIndex(t, "/")+1:]
		if i := strings.LastIndex(name, "-partition-"); i > 0 {
			name = name[:i]
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Factory Pulsar 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.MessageQueue).WithVirtualTables()}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return &Channel{connect: connectAdmin}
}
