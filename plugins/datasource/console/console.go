// Package console provides the Console sink stub plugin.
package console

import (
	"context"

	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const (
	PluginName = "Console"

	DefaultDatabase = "default"
	DefaultTable    = "default"
)

var emptyRule = option.NewRuleBuilder().MustBuild()

// Channel 没有后端，固定返回 default 库表
type Channel struct{}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return emptyRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return emptyRule
}

func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	return true, nil
}

func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	return []string{DefaultDatabase}, nil
}

func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	return lo.Apply([]string{DefaultTable}), nil
}

func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	return []element.TableField{}, nil
}

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
