package plugin

import (
	"context"

	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/option"
)

// MetadataChannel 数据源元数据通道。一个channel可以服务同一个factory声明的多个插件名，
// 因此每个方法都带上插件名。params 为用户提交的连接参数。
type MetadataChannel interface {
	// ConnectionOptionRule 连接参数规则
	ConnectionOptionRule(pluginName string) *option.Rule
	// MetadataOptionRule 虚拟表等元数据参数规则
	MetadataOptionRule(pluginName string) *option.Rule
	// CheckConnectivity 连通性检查；只有明确不可达时返回false，连接或认证失败返回 ErrConnectivity
	CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error)
	ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error)
	// ListTables options 识别 filterName 和 size
	ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error)
	TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error)
}

// BatchFieldsChannel 自带批量获取字段实现的channel
type BatchFieldsChannel interface {
	MetadataChannel
	TableFieldsBatch(ctx context.Context, pluginName string, params map[string]string, database string, tables []string) (map[string][]element.TableField, error)
}

// SyncMaxValueChannel 支持查询增量同步水位的channel
type SyncMaxValueChannel interface {
	MetadataChannel
	// TableSyncMaxValue 返回 column 的最大值；表为空时返回空串。
	// column 的类型在 excludedTypes 中时返回 ErrUnsupportedOperation。
	TableSyncMaxValue(ctx context.Context, pluginName string, params map[string]string, database, table, column string, excludedTypes []string) (string, error)
}
