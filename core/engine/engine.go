// Package engine is the command line front end of the datasource registry:
// it loads the application config, builds the registry and the pool cache,
// runs one catalog action and prints the result as JSON.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/common/pool"
	"github.com/longkeyy/go-datasource/core/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// 支持的 action
const (
	ActionPlugins   = "plugins"
	ActionRules     = "rules"
	ActionCheck     = "check"
	ActionDatabases = "databases"
	ActionTables    = "tables"
	ActionFields    = "fields"
	ActionMax       = "max"
)

// Command 一次命令行调用
type Command struct {
	Action        string
	Plugin        string
	Params        map[string]string
	Database      string
	Table         string
	Tables        []string
	Column        string
	ExcludedTypes []string
	Filter        string
	Size          int
}

// RulesResult rules action 的输出
type RulesResult struct {
	Connection *option.Rule `json:"connection"`
	Metadata   *option.Rule `json:"metadata"`
}

// Execute 在 registry 上执行一个 action，返回可 JSON 序列化的结果
func Execute(ctx context.Context, r *registry.Registry, cmd Command) (any, error) {
	if cmd.Action != ActionPlugins && cmd.Plugin == "" {
		return nil, fmt.Errorf("action '%s' needs -plugin", cmd.Action)
	}

	switch cmd.Action {
	case ActionPlugins:
		return r.ListAllPlugins(), nil
	case ActionRules:
		conn, err := r.ConnectionOptionRule(cmd.Plugin)
		if err != nil {
			return nil, err
		}
		meta, err := r.MetadataOptionRule(cmd.Plugin)
		if err != nil {
			return nil, err
		}
		return RulesResult{Connection: conn, Metadata: meta}, nil
	case ActionCheck:
		return r.CheckConnectivity(ctx, cmd.Plugin, cmd.Params)
	case ActionDatabases:
		return r.ListDatabases(ctx, cmd.Plugin, cmd.Params)
	case ActionTables:
		options := map[string]string{}
		if cmd.Filter != "" {
			options[plugin.OptionFilterName] = cmd.Filter
		}
		if cmd.Size > 0 {
			options[plugin.OptionSize] = fmt.Sprint(cmd.Size)
		}
		return r.ListTables(ctx, cmd.Plugin, cmd.Params, cmd.Database, options)
	case ActionFields:
		if len(cmd.Tables) > 0 {
			return r.TableFieldsBatch(ctx, cmd.Plugin, cmd.Params, cmd.Database, cmd.Tables)
		}
		return r.TableFields(ctx, cmd.Plugin, cmd.Params, cmd.Database, cmd.Table)
	case ActionMax:
		return r.TableSyncMaxValue(ctx, cmd.Plugin, cmd.Params, cmd.Database, cmd.Table, cmd.Column, cmd.ExcludedTypes)
	}
	return nil, fmt.Errorf("unknown action '%s'", cmd.Action)
}

// LoadParams 读取连接参数 JSON 文件，非字符串值转成字符串
func LoadParams(filename string) (map[string]string, error) {
	if filename == "" {
		return map[string]string{}, nil
	}
	cfg, err := config.FromFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load params %s: %w", filename, err)
	}
	params := cfg.GetStringMap("")
	if params == nil {
		params = map[string]string{}
	}
	return params, nil
}

func splitList(s string) []string {
	return config.Params{"v": s}.List("v")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveMetrics(address string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.App().Error("Metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

func Main(ver string) {
	var (
		configPath = flag.String("config", "", "application configuration file path")
		pluginName = flag.String("plugin", "", "plugin name, eg: JDBC-Mysql")
		paramsPath = flag.String("params", "", "connection params JSON file path")
		action     = flag.String("action", ActionPlugins, "plugins|rules|check|databases|tables|fields|max")
		database   = flag.String("database", "", "database name")
		table      = flag.String("table", "", "table name")
		tables     = flag.String("tables", "", "comma separated table names for batch fields")
		column     = flag.String("column", "", "column for max value")
		excluded   = flag.String("excluded-types", "", "comma separated column types rejected by max")
		filter     = flag.String("filter", "", "table name filter")
		size       = flag.Int("size", 0, "max number of tables")
	)
	flag.Parse()

	app, err := config.LoadApplication(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(app.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.App()
	appLogger.Info("Datasource starting", zap.String("version", ver))

	params, err := LoadParams(*paramsPath)
	if err != nil {
		appLogger.Error("Failed to load params", zap.Error(err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	pools := pool.New(pool.Options{
		IdleTTL:            app.IdleTTL,
		SweepInterval:      app.SweepInterval,
		SlowLeaseThreshold: app.SlowLeaseThreshold,
		Registerer:         reg,
	})
	if app.MetricsAddress != "" {
		srv := serveMetrics(app.MetricsAddress, reg)
		defer srv.Close()
	}

	code := 0
	if err := run(pools, params, Command{
		Action:        strings.ToLower(*action),
		Plugin:        *pluginName,
		Database:      *database,
		Table:         *table,
		Tables:        splitList(*tables),
		Column:        *column,
		ExcludedTypes: splitList(*excluded),
		Filter:        *filter,
		Size:          *size,
	}); err != nil {
		appLogger.Error("Datasource action failed", zap.String("action", *action), zap.Error(err))
		code = 1
	}

	if err := pools.Close(); err != nil {
		appLogger.Warn("Failed to close pool cache", zap.Error(err))
	}
	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

func run(pools *pool.Cache, params map[string]string, cmd Command) error {
	r, err := registry.NewFromRegistered(plugin.Environment{Pools: pools})
	if err != nil {
		return err
	}
	cmd.Params = params

	ctx := logger.WithRequestID(logger.WithPluginName(context.Background(), cmd.Plugin), uuid.NewString())
	result, err := Execute(ctx, r, cmd)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, result)
}
