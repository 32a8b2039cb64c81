// Package tdengine provides the TDengine datasource plugin. It talks to taosAdapter
// over REST, so no native client library is needed. Super tables are listed as
// tables.
package tdengine

import (
	"database/sql"
	"fmt"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
	_ "github.com/taosdata/driver-go/v3/taosRestful"
)

const PluginName = "JDBC-TDengine"

var systemDatabases = []string{"information_schema", "performance_schema", "log", "audit"}

type Dialect struct {
	rdbms.Base
}

// DSN jdbc:TAOS-RS://host:6041/db 转换为 taosRestful DSN
func DSN(jdbcURL, username, password string) (string, error) {
	u, err := rdbms.ParseJDBCURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Subprotocol != "taos-rs" && u.Subprotocol != "taos" {
		return "", fmt.Errorf("invalid TDengine JDBC URL: %s", jdbcURL)
	}
	return fmt.Sprintf("%s:%s@http(%s)/%s", username, password, u.HostPort(6041), u.Database), nil
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	dsn, err := DSN(p.String(rdbms.KeyURL), p.StringOr(rdbms.KeyUser, "root"), p.StringOr(rdbms.KeyPassword, "taosdata"))
	if err != nil {
		return nil, err
	}
	return sql.Open("taosRestful", dsn)
}

func (d *Dialect) CheckQuery() string {
	return "SELECT SERVER_VERSION()"
}

func (d *Dialect) DatabasesQuery() string {
	return "SELECT name FROM information_schema.ins_databases ORDER BY name"
}

// REST 接口不支持参数绑定，条件值用字面量
func (d *Dialect) TablesQuery(database, pattern string) (string, []any) {
	query := "SELECT stable_name FROM information_schema.ins_stables WHERE db_name = " + rdbms.QuoteLiteral(database)
	if pattern != "" {
		query += " AND stable_name LIKE " + rdbms.QuoteLiteral(pattern)
	}
	return query + " ORDER BY stable_name", nil
}

func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	return "SELECT col_name, col_type, 'YES', '' FROM information_schema.ins_columns WHERE db_name = " +
		rdbms.QuoteLiteral(database) + " AND table_name = " + rdbms.QuoteLiteral(table), nil
}

type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	d := &Dialect{Base: rdbms.Base{URLExample: "jdbc:TAOS-RS://localhost:6041/test", System: systemDatabases}}
	return rdbms.NewChannel(d)
}
