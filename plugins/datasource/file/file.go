// Package file provides the file family of datasource plugins (HDFS, FTP,
// SFTP, OSS). Entries under a path are listed as tables; a file carries no
// catalog, so fields come from the user supplied schema option.
package file

import (
	"context"
	"errors"
	"strings"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"go.uber.org/zap"
)

const (
	HdfsPluginName = "HdfsFile"
	FtpPluginName  = "FtpFile"
	SftpPluginName = "SftpFile"
	OssPluginName  = "OssFile"

	KeyPath   = "path"
	KeySchema = "schema"

	// DefaultDatabase 文件系统没有库的概念
	DefaultDatabase = "default"
	rootPath        = "/"
)

// fileSystem 各存储的目录列举能力
type fileSystem interface {
	// ReadDir 返回 dir 下的条目名（不含路径）
	ReadDir(ctx context.Context, dir string) ([]string, error)
	Close() error
}

type connectFunc func(ctx context.Context, params config.Params) (fileSystem, error)

type backend struct {
	rule    *option.Rule
	connect connectFunc
}

var (
	pathOption   = option.Key(KeyPath).StringType().DefaultValue(rootPath).WithDescription("directory listed as tables")
	schemaOption = option.Key(KeySchema).StringType().NoDefaultValue().
			WithDescription(`field definition, eg: {"fields": {"id": "bigint", "name": "string"}}`)

	metadataRule = option.NewRuleBuilder().
			Required(option.Key(KeyPath).StringType().NoDefaultValue().WithDescription("file path")).
			Optional(option.Key("file_format_type").EnumType("text", "csv", "json", "orc", "parquet", "excel").
				DefaultValue("text").WithDescription("file format")).
			MustBuild()
)

// Channel 四种文件插件共用，按插件名选择存储实现
type Channel struct {
	backends map[string]backend
	log      logger.ComponentLogger
}

// newChannel 插件名大小写不敏感，按大写存储
func newChannel(backends map[string]backend) *Channel {
	byName := make(map[string]backend, len(backends))
	for name, b := range backends {
		byName[strings.ToUpper(name)] = b
	}
	return &Channel{backends: byName, log: logger.ComponentWithName("File")}
}

func (c *Channel) backend(pluginName string) (backend, error) {
	b, ok := c.backends[strings.ToUpper(pluginName)]
	if !ok {
		return backend{}, plugin.Unsupported(pluginName, "file backend")
	}
	return b, nil
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	b, err := c.backend(pluginName)
	if err != nil {
		return option.NewRuleBuilder().MustBuild()
	}
	return b.rule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

func (c *Channel) withFileSystem(ctx context.Context, pluginName string, params map[string]string, fn func(fs fileSystem) error) error {
	b, err := c.backend(pluginName)
	if err != nil {
		return err
	}
	if err := b.rule.Validate(params); err != nil {
		return plugin.ConfigurationError(pluginName, "%v", err)
	}
	fs, err := b.connect(ctx, config.Params(params))
	if err != nil {
		return plugin.ConnectivityError(pluginName, "connect", err)
	}
	defer func() {
		if cerr := fs.Close(); cerr != nil {
			c.log.Warn("Failed to close file system client", zap.String("plugin", pluginName), zap.Error(cerr))
		}
	}()
	return fn(fs)
}

// CheckConnectivity 列举根目录
func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	err := c.withFileSystem(ctx, pluginName, params, func(fs fileSystem) error {
		if _, err := fs.ReadDir(ctx, rootPath); err != nil {
			return plugin.ConnectivityError(pluginName, "check connectivity", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	if _, err := c.backend(pluginName); err != nil {
		return nil, err
	}
	return []string{DefaultDatabase}, nil
}

// ListTables 列出 path 参数下的条目
func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	dir := config.Params(params).StringOr(KeyPath, rootPath)

	var tables []string
	err = c.withFileSystem(ctx, pluginName, params, func(fs fileSystem) error {
		names, err := fs.ReadDir(ctx, dir)
		if err != nil {
			return plugin.IntrospectionError(pluginName, "list tables", err)
		}
		tables = lo.Apply(names)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

var errNoSchema = errors.New("file sources need a schema option to describe fields")

// TableFields 文件本身没有 schema，由 schema 参数定义
func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	if _, err := c.backend(pluginName); err != nil {
		return nil, err
	}
	raw := config.Params(params).String(KeySchema)
	if raw == "" {
		return nil, plugin.IntrospectionError(pluginName, "table fields", errNoSchema)
	}
	fields, err := element.ParseSchema(raw)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	return fields, nil
}

// Factory 文件插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return "File"
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	names := []string{HdfsPluginName, FtpPluginName, SftpPluginName, OssPluginName}
	out := make([]plugin.Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, plugin.NewDescriptor(name, plugin.File).WithVirtualTables())
	}
	return out
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return newChannel(map[string]backend{
		HdfsPluginName: {rule: hdfsRule, connect: connectHdfs},
		FtpPluginName:  {rule: ftpRule, connect: connectFtp},
		SftpPluginName: {rule: sftpRule, connect: connectSftp},
		OssPluginName:  {rule: ossRule, connect: connectOss},
	})
}
