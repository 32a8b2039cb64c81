// Package registry indexes every compiled-in datasource plugin by name and
// dispatches catalog operations to the channel that serves it.
//
// Names are matched case-insensitively. A Registry is immutable once built and
// safe for concurrent use; errors from channels are returned unchanged.
package registry

import (
	"context"
	"strings"

	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"go.uber.org/zap"
)

// Registry 插件注册表
type Registry struct {
	plugins      []plugin.Descriptor
	descriptors  map[string]plugin.Descriptor
	channelIndex map[string]int
	channels     []plugin.MetadataChannel
}

// NewFromRegistered 使用通过 plugin.Register 编译进来的全部工厂
func NewFromRegistered(env plugin.Environment) (*Registry, error) {
	return New(plugin.RegisteredFactories(), env)
}

// New 按给定顺序加载工厂。每个工厂只创建一次channel，其声明的所有插件名共享该channel。
// 插件名重复（忽略大小写）或没有任何插件时返回 ErrConfiguration。
func New(factories []plugin.Factory, env plugin.Environment) (*Registry, error) {
	appLogger := logger.App()

	r := &Registry{
		descriptors:  make(map[string]plugin.Descriptor),
		channelIndex: make(map[string]int),
	}

	for _, factory := range factories {
		id := factory.FactoryIdentifier()
		if id == "" {
			return nil, plugin.ConfigurationError("", "factory %T has an empty identifier", factory)
		}

		descriptors := factory.SupportedDataSources()
		declared := make(map[string]string, len(descriptors))
		for _, d := range descriptors {
			key := strings.ToUpper(d.Name)
			if key == "" {
				return nil, plugin.ConfigurationError(id, "factory declares a plugin without name")
			}
			if existing, ok := r.descriptors[key]; ok {
				return nil, plugin.ConfigurationError(d.Name, "plugin name '%s' already registered as '%s'", d.Name, existing.Name)
			}
			if existing, ok := declared[key]; ok {
				return nil, plugin.ConfigurationError(d.Name, "plugin name '%s' declared twice by factory '%s' (as '%s')", d.Name, id, existing)
			}
			declared[key] = d.Name
		}
		if len(descriptors) == 0 {
			appLogger.Warn("Factory declares no data source", zap.String("factory", id))
			continue
		}

		index := len(r.channels)
		r.channels = append(r.channels, factory.CreateChannel(env))
		for _, d := range descriptors {
			key := strings.ToUpper(d.Name)
			r.descriptors[key] = d
			r.channelIndex[key] = index
			r.plugins = append(r.plugins, d)
			appLogger.Info("Discovered data source plugin",
				zap.String("factory", id),
				zap.String("plugin", d.Name),
				zap.String("type", string(d.Type)))
		}
	}

	if len(r.plugins) == 0 {
		return nil, plugin.ConfigurationError("", "no supported data source found")
	}
	appLogger.Info("Plugin registry ready",
		zap.Int("plugins", len(r.plugins)),
		zap.Int("channels", len(r.channels)))
	return r, nil
}

func (r *Registry) resolveChannel(pluginName string) (plugin.MetadataChannel, error) {
	if pluginName == "" {
		return nil, plugin.NotFound(pluginName)
	}
	index, ok := r.channelIndex[strings.ToUpper(pluginName)]
	if !ok {
		return nil, plugin.NotFound(pluginName)
	}
	return r.channels[index], nil
}

func (r *Registry) trace(ctx context.Context, pluginName, operation string) {
	logger.Plugin(pluginName).WithContext(ctx).Debug("Dispatching", zap.String("operation", operation))
}

// ListAllPlugins 按发现顺序返回全部插件描述的副本
func (r *Registry) ListAllPlugins() []plugin.Descriptor {
	out := make([]plugin.Descriptor, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Descriptor 按插件名查找描述
func (r *Registry) Descriptor(pluginName string) (plugin.Descriptor, error) {
	d, ok := r.descriptors[strings.ToUpper(pluginName)]
	if !ok || pluginName == "" {
		return plugin.Descriptor{}, plugin.NotFound(pluginName)
	}
	return d, nil
}

func (r *Registry) ConnectionOptionRule(pluginName string) (*option.Rule, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return nil, err
	}
	return ch.ConnectionOptionRule(pluginName), nil
}

func (r *Registry) MetadataOptionRule(pluginName string) (*option.Rule, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return nil, err
	}
	return ch.MetadataOptionRule(pluginName), nil
}

func (r *Registry) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return false, err
	}
	r.trace(ctx, pluginName, "check connectivity")
	return ch.CheckConnectivity(ctx, pluginName, params)
}

func (r *Registry) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return nil, err
	}
	r.trace(ctx, pluginName, "list databases")
	return ch.ListDatabases(ctx, pluginName, params)
}

func (r *Registry) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return nil, err
	}
	r.trace(ctx, pluginName, "list tables")
	return ch.ListTables(ctx, pluginName, params, database, options)
}

func (r *Registry) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return nil, err
	}
	r.trace(ctx, pluginName, "table fields")
	return ch.TableFields(ctx, pluginName, params, database, table)
}

// TableFieldsBatch channel 有批量实现时使用之，否则逐表获取
func (r *Registry) TableFieldsBatch(ctx context.Context, pluginName string, params map[string]string, database string, tables []string) (map[string][]element.TableField, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return nil, err
	}
	r.trace(ctx, pluginName, "table fields batch")
	if batch, ok := ch.(plugin.BatchFieldsChannel); ok {
		return batch.TableFieldsBatch(ctx, pluginName, params, database, tables)
	}
	return plugin.TableFieldsBatch(ctx, ch, pluginName, params, database, tables)
}

// TableSyncMaxValue 只有实现了 SyncMaxValueChannel 的插件支持
func (r *Registry) TableSyncMaxValue(ctx context.Context, pluginName string, params map[string]string, database, table, column string, excludedTypes []string) (string, error) {
	ch, err := r.resolveChannel(pluginName)
	if err != nil {
		return "", err
	}
	syncer, ok := ch.(plugin.SyncMaxValueChannel)
	if !ok {
		return "", plugin.Unsupported(pluginName, "table sync max value")
	}
	r.trace(ctx, pluginName, "table sync max value")
	return syncer.TableSyncMaxValue(ctx, pluginName, params, database, table, column, excludedTypes)
}
