// Package databend provides the JDBC-Databend datasource plugin.
package databend

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/datafuselabs/databend-go"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const PluginName = "JDBC-Databend"

var systemDatabases = []string{"system", "information_schema"}

type Dialect struct {
	rdbms.Base
}

// DSN jdbc:databend://host:port/db 转换为 databend-go DSN
func DSN(jdbcURL, username, password string) (string, error) {
	u, err := rdbms.ParseJDBCURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Subprotocol != "databend" {
		return "", fmt.Errorf("invalid Databend JDBC URL: %s", jdbcURL)
	}
	sslmode := u.Properties["sslmode"]
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := &url.URL{
		Scheme:   "databend",
		User:     url.UserPassword(username, password),
		Host:     u.HostPort(8000),
		Path:     "/" + u.DatabaseOr("default"),
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return dsn.String(), nil
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	dsn, err := DSN(p.String(rdbms.KeyURL), p.String(rdbms.KeyUser), p.String(rdbms.KeyPassword))
	if err != nil {
		return nil, err
	}
	return sql.Open("databend", dsn)
}

func (d *Dialect) DatabasesQuery() string {
	return "SELECT name FROM system.databases ORDER BY name"
}

func (d *Dialect) TablesQuery(database, pattern string) (string, []any) {
	if pattern == "" {
		return "SELECT name FROM system.tables WHERE database = ? ORDER BY name", []any{database}
	}
	return "SELECT name FROM system.tables WHERE database = ? AND name LIKE ? ORDER BY name", []any{database, pattern}
}

// ColumnsQuery Databend 没有主键
func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	return "SELECT name, type, is_nullable, comment FROM system.columns WHERE database = ? AND table = ?",
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
	d := &Dialect{Base: rdbms.Base{URLExample: "jdbc:databend://localhost:8000/default", System: systemDatabases}}
	return rdbms.NewChannel(d)
}
