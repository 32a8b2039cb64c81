package logger

import (
	"context"
)

// Context keys for request information
type contextKey string

const (
	PluginNameKey contextKey = "pluginName"
	RequestIDKey  contextKey = "requestId"
)

// WithPluginName 在context中添加插件名
func WithPluginName(ctx context.Context, pluginName string) context.Context {
	return context.WithValue(ctx, PluginNameKey, pluginName)
}

// WithRequestID 在context中添加请求ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetPluginName 从context中获取插件名
func GetPluginName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(PluginNameKey).(string)
	return name, ok
}

// GetRequestID 从context中获取请求ID
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok
}

// PluginLoggerFromContext 从context创建带插件和请求信息的日志器
func PluginLoggerFromContext(ctx context.Context) PluginLogger {
	name, _ := GetPluginName(ctx)
	return Plugin(name).WithContext(ctx)
}
