// Package mysql provides the JDBC-Mysql datasource plugin. Its Dialect is
// shared with other MySQL-protocol databases.
package mysql

import (
	"database/sql"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
	"gorm.io/driver/mysql"
)

const PluginName = "JDBC-Mysql"

// SystemDatabases MySQL 系统库
var SystemDatabases = []string{"information_schema", "mysql", "performance_schema", "sys"}

// Dialect MySQL 协议方言，基于 information_schema
type Dialect struct {
	rdbms.Base
}

// NewDialect 创建 MySQL 协议方言
func NewDialect(urlExample string, system []string) *Dialect {
	return &Dialect{Base: rdbms.Base{URLExample: urlExample, System: system}}
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	dsn, err := rdbms.MySQLDSN(p.String(rdbms.KeyURL), p.String(rdbms.KeyUser), p.String(rdbms.KeyPassword))
	if err != nil {
		return nil, err
	}
	return rdbms.OpenGorm(mysql.Open(dsn))
}

func (d *Dialect) DatabasesQuery() string {
	return "SELECT SCHEMA_NAME FROM information_schema.SCHEMATA ORDER BY SCHEMA_NAME"
}

func (d *Dialect) TablesQuery(database, pattern string) (string, []any) {
	if pattern == "" {
		return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME",
			[]any{database}
	}
	return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME LIKE ? ORDER BY TABLE_NAME",
		[]any{database, pattern}
}

func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	return "SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_COMMENT FROM information_schema.COLUMNS " +
			"WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
		[]any{database, table}
}

func (d *Dialect) PrimaryKeyQuery(database, table string) (string, []any) {
	return "SELECT COLUMN_NAME FROM information_schema.COLUMNS " +
			"WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_KEY = 'PRI' ORDER BY ORDINAL_POSITION",
		[]any{database, table}
}

// Factory JDBC-Mysql 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return rdbms.NewChannel(NewDialect("jdbc:mysql://localhost:3306/test", SystemDatabases))
}
