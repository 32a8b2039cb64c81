package plugin

import (
	"errors"
	"fmt"

	"github.com/longkeyy/go-datasource/common/pool"
)

// 错误类型，用 errors.Is 判断
var (
	ErrPluginNotFound       = errors.New("plugin not found")
	ErrConfiguration        = errors.New("configuration error")
	ErrConnectivity         = pool.ErrConnectivity
	ErrSchemaIntrospection  = errors.New("schema introspection failed")
	ErrPoolCreation         = pool.ErrPoolCreation
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// DataSourceError 带插件名和操作名的错误
type DataSourceError struct {
	Plugin    string
	Operation string
	Kind      error
	Cause     error
}

func (e *DataSourceError) Error() string {
	msg := e.Kind.Error()
	if e.Plugin != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Plugin)
	}
	if e.Operation != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Operation)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap 同时暴露错误类型和底层原因
func (e *DataSourceError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, pluginName, operation string, cause error) *DataSourceError {
	return &DataSourceError{Plugin: pluginName, Operation: operation, Kind: kind, Cause: cause}
}

// NotFound 插件不存在
func NotFound(pluginName string) error {
	return newError(ErrPluginNotFound, pluginName, "", nil)
}

// ConfigurationError 参数或注册配置错误
func ConfigurationError(pluginName, format string, args ...any) error {
	return newError(ErrConfiguration, pluginName, "", fmt.Errorf(format, args...))
}

// ConnectivityError 连接或认证失败
func ConnectivityError(pluginName, operation string, cause error) error {
	return newError(ErrConnectivity, pluginName, operation, cause)
}

// IntrospectionError 元数据查询失败
func IntrospectionError(pluginName, operation string, cause error) error {
	return newError(ErrSchemaIntrospection, pluginName, operation, cause)
}

// PoolCreationError 创建连接池失败
func PoolCreationError(pluginName string, cause error) error {
	return newError(ErrPoolCreation, pluginName, "create pool", cause)
}

// Unsupported 插件不支持该操作
func Unsupported(pluginName, operation string) error {
	return newError(ErrUnsupportedOperation, pluginName, operation, nil)
}
