package pool

import "errors"

// plugin 包的同名错误是这里的别名，避免循环依赖
var (
	// ErrPoolClosed 缓存已关闭
	ErrPoolClosed = errors.New("pool cache is closed")
	// ErrPoolCreation 创建数据源失败
	ErrPoolCreation = errors.New("failed to create pooled data source")
	// ErrConnectivity 无法从数据源获得可用连接
	ErrConnectivity = errors.New("data source connectivity failure")
)
