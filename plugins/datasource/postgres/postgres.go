// Package postgres provides the JDBC-Postgres and Postgres-CDC datasource
// plugins. Tables are listed as "schema.table" because one database holds
// many schemas.
package postgres

import (
	"database/sql"
	"strings"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
	"gorm.io/driver/postgres"
)

const (
	PluginName    = "JDBC-Postgres"
	CDCPluginName = "Postgres-CDC"

	DefaultSchema = "public"
)

// SystemDatabases PostgreSQL 系统库
var SystemDatabases = []string{
	"information_schema", "pg_catalog", "root", "pg_toast", "pg_temp_1",
	"pg_toast_temp_1", "postgres", "template0", "template1",
}

// Dialect PostgreSQL 方言。每个库需要单独的连接，Open 读取 database 参数。
type Dialect struct {
	rdbms.Base
}

// NewDialect 创建 PostgreSQL 协议方言，KingBase 等兼容库复用
func NewDialect(urlExample string, system []string) *Dialect {
	return &Dialect{Base: rdbms.Base{URLExample: urlExample, System: system}}
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	dsn, err := rdbms.PostgresDatabaseDSN(p.String(rdbms.KeyURL), p.String(rdbms.KeyUser),
		p.String(rdbms.KeyPassword), p.String(rdbms.KeyDatabase))
	if err != nil {
		return nil, err
	}
	return rdbms.OpenGorm(postgres.Open(dsn))
}

func (d *Dialect) DatabasesQuery() string {
	return "SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname"
}

func (d *Dialect) TablesQuery(database, pattern string) (string, []any) {
	const base = "SELECT table_schema || '.' || table_name FROM information_schema.tables " +
		"WHERE table_catalog = $1 AND table_schema NOT IN ('pg_catalog', 'information_schema')"
	if pattern == "" {
		return base + " ORDER BY table_schema, table_name", []any{database}
	}
	return base + " AND table_schema || '.' || table_name LIKE $2 ORDER BY table_schema, table_name",
		[]any{database, pattern}
}

// ColumnsQuery table 为 "schema.table"，没有 schema 时使用 public
func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	schema, name := rdbms.SplitQualified(table, DefaultSchema)
	return "SELECT a.attname, format_type(a.atttypid, a.atttypmod), " +
			"CASE WHEN a.attnotnull THEN 'NO' ELSE 'YES' END, col_description(a.attrelid, a.attnum) " +
			"FROM pg_attribute a JOIN pg_class c ON a.attrelid = c.oid JOIN pg_namespace n ON c.relnamespace = n.oid " +
			"WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped ORDER BY a.attnum",
		[]any{schema, name}
}

func (d *Dialect) PrimaryKeyQuery(database, table string) (string, []any) {
	schema, name := rdbms.SplitQualified(table, DefaultSchema)
	return "SELECT a.attname FROM pg_index i JOIN pg_class c ON c.oid = i.indrelid " +
			"JOIN pg_namespace n ON n.oid = c.relnamespace " +
			"JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(i.indkey) " +
			"WHERE i.indisprimary AND n.nspname = $1 AND c.relname = $2 " +
			"ORDER BY array_position(i.indkey::int2[], a.attnum)",
		[]any{schema, name}
}

// Channel 区分 JDBC 和 CDC 的连接参数规则，元数据查询相同
type Channel struct {
	*rdbms.Channel
	cdcRule *option.Rule
}

// NewChannel 创建 Postgres 通道
func NewChannel(d rdbms.Dialect) *Channel {
	return &Channel{
		Channel: rdbms.NewChannel(d),
		cdcRule: option.NewRuleBuilder().
			Required(option.Key(rdbms.KeyURL).StringType().NoDefaultValue().
				WithDescription("jdbc url, eg: jdbc:postgresql://localhost:5432/postgres")).
			Optional(
				option.Key(rdbms.KeyUser).StringType().NoDefaultValue().WithDescription("jdbc user"),
				option.Key(rdbms.KeyPassword).StringType().NoDefaultValue().WithDescription("jdbc password"),
				option.Key("slot.name").StringType().NoDefaultValue().WithDescription("replication slot name"),
				option.Key("decoding.plugin.name").EnumType("pgoutput", "decoderbufs", "wal2json").
					DefaultValue("pgoutput").WithDescription("logical decoding plugin"),
			).
			MustBuild(),
	}
}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	if strings.EqualFold(pluginName, CDCPluginName) {
		return c.cdcRule
	}
	return c.Channel.ConnectionOptionRule(pluginName)
}

// Factory Postgres 插件工厂，JDBC 与 CDC 共享同一个 channel
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{
		plugin.NewDescriptor(PluginName, plugin.Database),
		plugin.NewDescriptor(CDCPluginName, plugin.Database),
	}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return NewChannel(NewDialect("jdbc:postgresql://localhost:5432/postgres", SystemDatabases))
}
