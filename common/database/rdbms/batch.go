package rdbms

import (
	"context"
	"sync"

	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/common/pool"
	"golang.org/x/sync/errgroup"
)

// NoBatchChannel 不支持批量获取字段的 JDBC 通道
type NoBatchChannel struct {
	*Channel
}

// TableFieldsBatch 总是返回 ErrUnsupportedOperation
func (c NoBatchChannel) TableFieldsBatch(ctx context.Context, pluginName string, params map[string]string, database string, tables []string) (map[string][]element.TableField, error) {
	return nil, plugin.Unsupported(pluginName, "table fields batch")
}

// ParallelTableFields 并发获取多张表的字段，并发数不超过连接池上限。
// 任意一张表失败时取消其余查询并返回该错误。
func (c *Channel) ParallelTableFields(ctx context.Context, pluginName string, params map[string]string, database string, tables []string) (map[string][]element.TableField, error) {
	var mu sync.Mutex
	result := make(map[string][]element.TableField, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pool.MaxPoolSize)
	for _, table := range tables {
		table := table
		g.Go(func() error {
			fields, err := c.TableFields(gctx, pluginName, params, database, table)
			if err != nil {
				return err
			}
			mu.Lock()
			result[table] = fields
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
