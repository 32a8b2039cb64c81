// Package neo4j provides the Neo4j datasource plugin. Node labels are listed
// as tables; their properties are sampled to describe fields.
package neo4j

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"
)

const (
	PluginName = "Neo4j"

	KeyURI         = "uri"
	KeyUsername    = "username"
	KeyPassword    = "password"
	KeyBearerToken = "bearer_token"
	KeyLabel       = "label"

	// SampleSize 推断属性时读取的节点数
	SampleSize = 100
)

// graph 图数据库访问接口，测试中替换
type graph interface {
	VerifyConnectivity(ctx context.Context) error
	Run(ctx context.Context, database, cypher string, params map[string]any) ([]map[string]any, error)
	Close(ctx context.Context) error
}

type connectFunc func(params config.Params) (graph, error)

var (
	connectionRule = option.NewRuleBuilder().
			Required(option.Key(KeyURI).StringType().NoDefaultValue().WithDescription("bolt uri, eg: neo4j://localhost:7687")).
			Optional(option.Key(KeyBearerToken).StringType().NoDefaultValue().WithDescription("bearer token")).
			Bundled(
			option.Key(KeyUsername).StringType().NoDefaultValue().WithDescription("neo4j user"),
			option.Key(KeyPassword).StringType().NoDefaultValue().WithDescription("neo4j password"),
		).
		MustBuild()

	metadataRule = option.NewRuleBuilder().
			Required(option.Key(KeyLabel).StringType().NoDefaultValue().WithDescription("node label")).
			MustBuild()
)

// Channel Neo4j 元数据通道
type Channel struct {
	connect connectFunc
	log     logger.ComponentLogger
}

func newChannel(connect connectFunc) *Channel {
	return &Channel{connect: connect, log: logger.ComponentWithName("Neo4j")}
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return connectionRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

func (c *Channel) withGraph(ctx context.Context, pluginName string, params map[string]string, fn func(g graph) error) error {
	if err := connectionRule.Validate(params); err != nil {
		return plugin.ConfigurationError(pluginName, "%v", err)
	}
	g, err := c.connect(config.Params(params))
	if err != nil {
		return plugin.ConnectivityError(pluginName, "create driver", err)
	}
	defer func() {
		if err := g.Close(ctx); err != nil {
			c.log.Warn("Failed to close driver", zap.Error(err))
		}
	}()
	return fn(g)
}

func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	err := c.withGraph(ctx, pluginName, params, func(g graph) error {
		if err := g.VerifyConnectivity(ctx); err != nil {
			return plugin.ConnectivityError(pluginName, "verify connectivity", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListDatabases 在 system 库上执行 SHOW DATABASES
func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	var databases []string
	err := c.withGraph(ctx, pluginName, params, func(g graph) error {
		records, err := g.Run(ctx, "system", "SHOW DATABASES YIELD name RETURN DISTINCT name", nil)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list databases", err)
		}
		for _, name := range stringsOf(records, "name") {
			if !strings.EqualFold(name, "system") {
				databases = append(databases, name)
			}
		}
		sort.Strings(databases)
		return nil
	})
	return databases, err
}

func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	var labels []string
	err = c.withGraph(ctx, pluginName, params, func(g graph) error {
		records, err := g.Run(ctx, database, "CALL db.labels() YIELD label RETURN label", nil)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list tables", err)
		}
		labels = lo.Apply(stringsOf(records, "label"))
		return nil
	})
	return labels, err
}

func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	var fields []element.TableField
	err := c.withGraph(ctx, pluginName, params, func(g graph) error {
		cypher := fmt.Sprintf("MATCH (n:%s) WITH n LIMIT %d RETURN properties(n) AS props", quoteLabel(table), SampleSize)
		records, err := g.Run(ctx, database, cypher, nil)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "table fields", err)
		}
		if len(records) == 0 {
			return plugin.IntrospectionError(pluginName, "table fields",
				fmt.Errorf("no node with label %s", table))
		}
		props := make([]map[string]any, 0, len(records))
		for _, r := range records {
			if m, ok := r["props"].(map[string]any); ok {
				props = append(props, m)
			}
		}
		fields = InferProperties(props)
		return nil
	})
	return fields, err
}

// InferProperties 合并节点属性，按属性名排序；类型不一致时为 string。
// 图节点没有主键，属性都可空。
func InferProperties(nodes []map[string]any) []element.TableField {
	types := make(map[string]element.FieldType)
	for _, node := range nodes {
		for k, v := range node {
			t := propertyType(v)
			prev, ok := types[k]
			switch {
			case !ok || prev == element.TypeNull:
				types[k] = t
			case t != element.TypeNull && prev != t:
				types[k] = element.TypeString
			}
		}
	}
	names := make([]string, 0, len(types))
	for k := range types {
		names = append(names, k)
	}
	sort.Strings(names)

	fields := make([]element.TableField, 0, len(names))
	for _, name := range names {
		fields = append(fields, element.NewTableField(name, types[name]))
	}
	return fields
}

func propertyType(v any) element.FieldType {
	switch v.(type) {
	case nil:
		return element.TypeNull
	case string:
		return element.TypeString
	case bool:
		return element.TypeBoolean
	case int64:
		return element.TypeBigInt
	case float64:
		return element.TypeDouble
	case dbtype.Date:
		return element.TypeDate
	case dbtype.Time, dbtype.LocalTime:
		return element.TypeTime
	case dbtype.LocalDateTime, time.Time:
		return element.TypeTimestamp
	case []byte:
		return element.TypeBytes
	case []any:
		return element.TypeArray
	case map[string]any:
		return element.TypeMap
	}
	return element.TypeString
}

func quoteLabel(label string) string {
	return "`" + strings.ReplaceAll(label, "`", "``") + "`"
}

func stringsOf(records []map[string]any, key string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		if s, ok := r[key].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Factory Neo4j 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.NoStructured)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return newChannel(connectDriver)
}
