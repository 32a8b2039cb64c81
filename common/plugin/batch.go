package plugin

import (
	"context"

	"github.com/longkeyy/go-datasource/common/element"
)

// TableFieldsBatch 逐表调用 TableFields 的顺序实现，channel没有批量实现时使用。
// 任意一张表失败即返回该错误。
func TableFieldsBatch(ctx context.Context, ch MetadataChannel, pluginName string, params map[string]string, database string, tables []string) (map[string][]element.TableField, error) {
	result := make(map[string][]element.TableField, len(tables))
	for _, table := range tables {
		fields, err := ch.TableFields(ctx, pluginName, params, database, table)
		if err != nil {
			return nil, err
		}
		result[table] = fields
	}
	return result, nil
}
