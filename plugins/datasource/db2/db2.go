// Package db2 provides the JDBC-DB2 datasource plugin. The go_ibm_db driver
// needs the IBM CLI libraries and cgo, so it is only linked with the db2
// build tag; without it every call fails with a connectivity error.
package db2

import (
	"database/sql"
	"fmt"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const (
	PluginName = "JDBC-Db2"
	driverName = "go_ibm_db"
)

var systemDatabases = []string{
	"NULLID", "SQLJ", "SYSCAT", "SYSFUN", "SYSIBM", "SYSIBMADM", "SYSIBMINTERNAL",
	"SYSIBMTS", "SYSPROC", "SYSPUBLIC", "SYSSTAT", "SYSTOOLS",
}

type Dialect struct {
	rdbms.Base
}

// DSN jdbc:db2://host:port/db 转换为 CLI 连接串
func DSN(jdbcURL, username, password string) (string, error) {
	u, err := rdbms.ParseJDBCURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Subprotocol != "db2" {
		return "", fmt.Errorf("invalid DB2 JDBC URL: %s", jdbcURL)
	}
	port := u.Port
	if port == 0 {
		port = 50000
	}
	return fmt.Sprintf("HOSTNAME=%s;DATABASE=%s;PORT=%d;UID=%s;PWD=%s", u.Host, u.Database, port, username, password), nil
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	dsn, err := DSN(p.String(rdbms.KeyURL), p.String(rdbms.KeyUser), p.String(rdbms.KeyPassword))
	if err != nil {
		return nil, err
	}
	return sql.Open(driverName, dsn)
}

func (d *Dialect) CheckQuery() string {
	return "SELECT 1 FROM SYSIBM.SYSDUMMY1"
}

// DatabasesQuery DB2 的库对应 schema
func (d *Dialect) DatabasesQuery() string {
	return "SELECT RTRIM(SCHEMANAME) FROM SYSCAT.SCHEMATA ORDER BY SCHEMANAME"
}

func (d *Dialect) TablesQuery(database, pattern string) (string, []any) {
	if pattern == "" {
		return "SELECT TABNAME FROM SYSCAT.TABLES WHERE TABSCHEMA = ? AND TYPE = 'T' ORDER BY TABNAME", []any{database}
	}
	return "SELECT TABNAME FROM SYSCAT.TABLES WHERE TABSCHEMA = ? AND TYPE = 'T' AND TABNAME LIKE ? ORDER BY TABNAME",
		[]any{database, pattern}
}

func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	return "SELECT COLNAME, TYPENAME, NULLS, REMARKS FROM SYSCAT.COLUMNS WHERE TABSCHEMA = ? AND TABNAME = ? ORDER BY COLNO",
		[]any{database, table}
}

func (d *Dialect) PrimaryKeyQuery(database, table string) (string, []any) {
	return "SELECT k.COLNAME FROM SYSCAT.KEYCOLUSE k JOIN SYSCAT.TABCONST c " +
			"ON k.CONSTNAME = c.CONSTNAME AND k.TABSCHEMA = c.TABSCHEMA AND k.TABNAME = c.TABNAME " +
			"WHERE c.TYPE = 'P' AND k.TABSCHEMA = ? AND k.TABNAME = ? ORDER BY k.COLSEQ",
		[]any{database, table}
}

type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	d := &Dialect{Base: rdbms.Base{URLExample: "jdbc:db2://localhost:50000/test", System: systemDatabases}}
	return rdbms.NewChannel(d)
}
