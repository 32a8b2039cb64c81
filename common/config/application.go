package config

import (
	"time"

	"github.com/longkeyy/go-datasource/common/logger"
)

// 应用配置文件中的路径
const (
	KeyLoggerLevel        = "logger.level"
	KeyLoggerDevelopment  = "logger.development"
	KeyLoggerOutputPath   = "logger.outputPath"
	KeyPoolIdleTimeout    = "pool.idleTimeoutSeconds"
	KeyPoolSweepInterval  = "pool.sweepIntervalSeconds"
	KeyPoolSlowLeaseMilli = "pool.slowLeaseMillis"
	KeyMetricsAddress     = "metrics.address"
)

// Application 进程级配置
type Application struct {
	Logger             *logger.LoggerConfig
	IdleTTL            time.Duration
	SweepInterval      time.Duration
	SlowLeaseThreshold time.Duration
	// MetricsAddress 为空时不启动 /metrics
	MetricsAddress string
}

// LoadApplication 读取应用配置文件，filename 为空时全部使用默认值
func LoadApplication(filename string) (*Application, error) {
	cfg := NewConfiguration()
	if filename != "" {
		var err error
		if cfg, err = FromFile(filename); err != nil {
			return nil, err
		}
	}
	return ApplicationFrom(cfg), nil
}

// ApplicationFrom 从已加载的配置中读取应用配置
func ApplicationFrom(cfg Configuration) *Application {
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.LogLevel(cfg.GetStringWithDefault(KeyLoggerLevel, string(logCfg.Level)))
	logCfg.Development = cfg.GetBoolWithDefault(KeyLoggerDevelopment, logCfg.Development)
	logCfg.OutputPath = cfg.GetString(KeyLoggerOutputPath)

	return &Application{
		Logger:             logCfg,
		IdleTTL:            time.Duration(cfg.GetIntWithDefault(KeyPoolIdleTimeout, 1800)) * time.Second,
		SweepInterval:      time.Duration(cfg.GetIntWithDefault(KeyPoolSweepInterval, 60)) * time.Second,
		SlowLeaseThreshold: time.Duration(cfg.GetIntWithDefault(KeyPoolSlowLeaseMilli, 2000)) * time.Millisecond,
		MetricsAddress:     cfg.GetString(KeyMetricsAddress),
	}
}
