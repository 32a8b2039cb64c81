// Package fakesource provides the FakeSource stub plugin. It has no backend;
// fields are taken from the user supplied "fields" JSON map in key order.
package fakesource

import (
	"context"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const (
	PluginName = "FakeSource"

	KeyFields = "fields"
	KeyRowNum = "row.num"

	FakeDatabase = "fake_database"
	FakeTable    = "fake_table"
)

var (
	connectionRule = option.NewRuleBuilder().
			Optional(
			option.Key(KeyFields).StringType().NoDefaultValue().
				WithDescription(`field map, eg: {"name": "string", "age": "int"}`),
			option.Key(KeyRowNum).IntType().DefaultValue(5).WithDescription("rows generated per split"),
		).
		MustBuild()

	metadataRule = option.NewRuleBuilder().MustBuild()
)

// Channel FakeSource 通道
type Channel struct{}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return connectionRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

// parseFields fields 缺省时返回空列表，格式错误时返回 ErrSchemaIntrospection
func parseFields(pluginName string, params map[string]string) ([]element.TableField, error) {
	raw := config.Params(params).String(KeyFields)
	if raw == "" {
		return []element.TableField{}, nil
	}
	fields, err := element.ParseFieldMap(raw)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "parse fields", err)
	}
	return fields, nil
}

// CheckConnectivity 只校验 fields
func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	if err := connectionRule.Validate(params); err != nil {
		return false, plugin.ConfigurationError(pluginName, "%v", err)
	}
	if _, err := parseFields(pluginName, params); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	return []string{FakeDatabase}, nil
}

func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	return lo.Apply([]string{FakeTable}), nil
}

func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	return parseFields(pluginName, params)
}

// Factory FakeSource 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.FakeConnection)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return &Channel{}
}
