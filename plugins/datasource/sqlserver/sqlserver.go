// Package sqlserver provides the JDBC-SQLServer datasource plugin.
package sqlserver

import (
	"database/sql"
	"strings"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
	"gorm.io/driver/sqlserver"
)

const (
	PluginName    = "JDBC-SQLServer"
	DefaultSchema = "dbo"
)

var systemDatabases = []string{"master", "tempdb", "model", "msdb"}

type Dialect struct {
	rdbms.Base
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	dsn, err := rdbms.SQLServerDSN(p.String(rdbms.KeyURL), p.String(rdbms.KeyUser), p.String(rdbms.KeyPassword))
	if err != nil {
		return nil, err
	}
	return rdbms.OpenGorm(sqlserver.Open(dsn))
}

func (d *Dialect) DatabasesQuery() string {
	return "SELECT name FROM sys.databases ORDER BY name"
}

// TablesQuery 返回 "schema.table"
func (d *Dialect) TablesQuery(database, pattern string) (string, []any) {
	query := "SELECT TABLE_SCHEMA + '.' + TABLE_NAME FROM " + bracket(database) + ".INFORMATION_SCHEMA.TABLES " +
		"WHERE TABLE_TYPE = 'BASE TABLE'"
	if pattern == "" {
		return query + " ORDER BY TABLE_SCHEMA, TABLE_NAME", nil
	}
	return query + " AND TABLE_SCHEMA + '.' + TABLE_NAME LIKE @p1 ORDER BY TABLE_SCHEMA, TABLE_NAME",
		[]any{pattern}
}

func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	schema, name := rdbms.SplitQualified(table, DefaultSchema)
	db := bracket(database)
	object := db + "." + bracket(schema) + "." + bracket(name)
	return "SELECT c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE, CAST(ep.value AS NVARCHAR(4000)) " +
			"FROM " + db + ".INFORMATION_SCHEMA.COLUMNS c " +
			"LEFT JOIN " + db + ".sys.extended_properties ep ON ep.major_id = OBJECT_ID(@p3) " +
			"AND ep.minor_id = COLUMNPROPERTY(OBJECT_ID(@p3), c.COLUMN_NAME, 'ColumnId') AND ep.name = 'MS_Description' " +
			"WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2 ORDER BY c.ORDINAL_POSITION",
		[]any{schema, name, object}
}

func (d *Dialect) PrimaryKeyQuery(database, table string) (string, []any) {
	schema, name := rdbms.SplitQualified(table, DefaultSchema)
	db := bracket(database)
	return "SELECT kcu.COLUMN_NAME FROM " + db + ".INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc " +
			"JOIN " + db + ".INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu " +
			"ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA " +
			"WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2 " +
			"ORDER BY kcu.ORDINAL_POSITION",
		[]any{schema, name}
}

func bracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	d := &Dialect{Base: rdbms.Base{URLExample: "jdbc:sqlserver://localhost:1433;databaseName=test", System: systemDatabases}}
	return rdbms.NoBatchChannel{Channel: rdbms.NewChannel(d)}
}
