package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

// LogLevel 日志级别
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      LogLevel `json:"level"`
	OutputPath string   `json:"output_path"`
	// 开发模式：更易读的格式，生产模式：JSON格式
	Development bool `json:"development"`
	// 是否输出到控制台
	Console bool `json:"console"`
}

// DefaultConfig 默认配置
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:       LevelInfo,
		OutputPath:  "",
		Development: true,
		Console:     true,
	}
}

// Logger 全局日志管理器
type Logger struct {
	appLogger       *zap.Logger // 应用级别日志
	componentLogger *zap.Logger // 组件级别日志
	pluginLogger    *zap.Logger // 插件调用级别日志
	level           zap.AtomicLevel
	config          *LoggerConfig
}

// Initialize 初始化全局日志管理器，只有第一次调用生效
func Initialize(config *LoggerConfig) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil {
		return nil
	}
	if config == nil {
		config = DefaultConfig()
	}
	l, err := newLogger(config)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// newLogger 创建新的日志实例
func newLogger(config *LoggerConfig) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapConfig.DisableStacktrace = false
	zapConfig.EncoderConfig.StacktraceKey = "stacktrace"
	zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(config.Level))

	var outputPaths []string
	if config.Console {
		outputPaths = append(outputPaths, "stdout")
	}
	if config.OutputPath != "" {
		outputPaths = append(outputPaths, config.OutputPath)
	}
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}
	zapConfig.OutputPaths = outputPaths
	zapConfig.ErrorOutputPaths = outputPaths

	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.MessageKey = "message"
	zapConfig.EncoderConfig.LevelKey = "level"

	// 调用者信息总是指向logger包内部，关闭
	zapConfig.DisableCaller = true

	baseLogger, err := zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %v", err)
	}

	return newFromZap(baseLogger, config, zapConfig.Level), nil
}

func newFromZap(base *zap.Logger, config *LoggerConfig, level zap.AtomicLevel) *Logger {
	return &Logger{
		appLogger:       base.Named("APP"),
		componentLogger: base.Named("COMPONENT"),
		pluginLogger:    base.Named("PLUGIN"),
		level:           level,
		config:          config,
	}
}

func parseLevel(level LogLevel) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetLogger 获取全局日志器，未初始化时使用默认配置
func GetLogger() *Logger {
	globalMu.Lock()
	l := globalLogger
	globalMu.Unlock()
	if l != nil {
		return l
	}
	if err := Initialize(DefaultConfig()); err != nil {
		// 默认配置只会输出到stdout，失败时退回到nop
		ReplaceGlobal(zap.NewNop())
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalLogger
}

// ReplaceGlobal 用给定的zap logger替换全局日志器（测试中使用zaptest/observer）
func ReplaceGlobal(base *zap.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = newFromZap(base, DefaultConfig(), zap.NewAtomicLevelAt(zapcore.DebugLevel))
}

// ApplicationLogger 应用级日志接口
type ApplicationLogger interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
}

// ComponentLogger 组件级日志接口
type ComponentLogger interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	WithComponent(component string) ComponentLogger
}

// PluginLogger 插件调用级日志接口
type PluginLogger interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	WithDatabase(database string) PluginLogger
	WithContext(ctx context.Context) PluginLogger
}

// App 获取应用级日志器
func (l *Logger) App() ApplicationLogger {
	return &appLogger{logger: l.appLogger}
}

// Component 获取组件级日志器
func (l *Logger) Component() ComponentLogger {
	return &componentLogger{logger: l.componentLogger}
}

// Plugin 获取指定插件的调用级日志器
func (l *Logger) Plugin(pluginName string) PluginLogger {
	return &pluginLogger{logger: l.pluginLogger.With(zap.String("plugin", pluginName))}
}

// 应用级日志器实现
type appLogger struct {
	logger *zap.Logger
}

func (a *appLogger) Info(msg string, fields ...zap.Field) {
	a.logger.Info(msg, fields...)
}

func (a *appLogger) Warn(msg string, fields ...zap.Field) {
	a.logger.Warn(msg, fields...)
}

func (a *appLogger) Error(msg string, fields ...zap.Field) {
	a.logger.Error(msg, fields...)
}

func (a *appLogger) Debug(msg string, fields ...zap.Field) {
	a.logger.Debug(msg, fields...)
}

// 组件级日志器实现
type componentLogger struct {
	logger *zap.Logger
}

func (c *componentLogger) Info(msg string, fields ...zap.Field) {
	c.logger.Info(msg, fields...)
}

func (c *componentLogger) Warn(msg string, fields ...zap.Field) {
	c.logger.Warn(msg, fields...)
}

func (c *componentLogger) Error(msg string, fields ...zap.Field) {
	c.logger.Error(msg, fields...)
}

func (c *componentLogger) Debug(msg string, fields ...zap.Field) {
	c.logger.Debug(msg, fields...)
}

func (c *componentLogger) WithComponent(component string) ComponentLogger {
	return &componentLogger{
		logger: c.logger.Named(component),
	}
}

// 插件调用级日志器实现
type pluginLogger struct {
	logger *zap.Logger
}

func (p *pluginLogger) Info(msg string, fields ...zap.Field) {
	p.logger.Info(msg, fields...)
}

func (p *pluginLogger) Warn(msg string, fields ...zap.Field) {
	p.logger.Warn(msg, fields...)
}

func (p *pluginLogger) Error(msg string, fields ...zap.Field) {
	p.logger.Error(msg, fields...)
}

func (p *pluginLogger) Debug(msg string, fields ...zap.Field) {
	p.logger.Debug(msg, fields...)
}

func (p *pluginLogger) WithDatabase(database string) PluginLogger {
	return &pluginLogger{
		logger: p.logger.With(zap.String("database", database)),
	}
}

func (p *pluginLogger) WithContext(ctx context.Context) PluginLogger {
	if requestID, ok := GetRequestID(ctx); ok {
		return &pluginLogger{
			logger: p.logger.With(zap.String("requestId", requestID)),
		}
	}
	return p
}

// Sync 同步所有缓冲的日志
func (l *Logger) Sync() error {
	if err := l.appLogger.Sync(); err != nil {
		return err
	}
	if err := l.componentLogger.Sync(); err != nil {
		return err
	}
	return l.pluginLogger.Sync()
}

// 全局便捷方法

// App 获取应用级日志器
func App() ApplicationLogger {
	return GetLogger().App()
}

// Component 获取组件级日志器
func Component() ComponentLogger {
	return GetLogger().Component()
}

// Plugin 获取插件调用级日志器
func Plugin(pluginName string) PluginLogger {
	return GetLogger().Plugin(pluginName)
}

// Sync 同步所有日志
func Sync() error {
	return GetLogger().Sync()
}

// SetLevel 动态设置日志级别
func SetLevel(level LogLevel) {
	GetLogger().level.SetLevel(parseLevel(level))
}

// ComponentWithName 创建带组件名的日志器
func ComponentWithName(component string) ComponentLogger {
	return Component().WithComponent(component)
}
