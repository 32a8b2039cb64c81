package logger

import (
	"time"

	"go.uber.org/zap"
)

// MetricsLogger 元数据操作耗时日志器
type MetricsLogger struct {
	logger ComponentLogger
}

// NewMetricsLogger 创建耗时日志器
func NewMetricsLogger(component string) *MetricsLogger {
	return &MetricsLogger{
		logger: Component().WithComponent(component),
	}
}

// LogPoolMetrics 记录连接池状态
func (ml *MetricsLogger) LogPoolMetrics(key string, open, inUse, idle int) {
	ml.logger.Debug("Pool stats",
		zap.String("key", key),
		zap.Int("open", open),
		zap.Int("inUse", inUse),
		zap.Int("idle", idle))
}

// OperationTimer 单次元数据操作计时器
type OperationTimer struct {
	startTime time.Time
	logger    *MetricsLogger
	operation string
	fields    []zap.Field
}

// StartTimer 开始计时
func (ml *MetricsLogger) StartTimer(operation string, fields ...zap.Field) *OperationTimer {
	return &OperationTimer{
		startTime: time.Now(),
		logger:    ml,
		operation: operation,
		fields:    fields,
	}
}

// Stop 停止计时并记录，err非空时记为失败
func (ot *OperationTimer) Stop(err error) time.Duration {
	duration := time.Since(ot.startTime)
	fields := append([]zap.Field{
		zap.String("operation", ot.operation),
		zap.Duration("duration", duration),
	}, ot.fields...)
	if err != nil {
		ot.logger.logger.Warn("Operation failed", append(fields, zap.Error(err))...)
		return duration
	}
	ot.logger.logger.Debug("Operation completed", fields...)
	return duration
}

// StopWithCount 停止计时并记录返回条目数
func (ot *OperationTimer) StopWithCount(count int, err error) time.Duration {
	if err != nil {
		return ot.Stop(err)
	}
	duration := time.Since(ot.startTime)
	ot.logger.logger.Debug("Operation completed with count",
		append([]zap.Field{
			zap.String("operation", ot.operation),
			zap.Duration("duration", duration),
			zap.Int("count", count),
		}, ot.fields...)...)
	return duration
}

// Metrics 获取耗时日志器
func Metrics(component string) *MetricsLogger {
	return NewMetricsLogger(component)
}
