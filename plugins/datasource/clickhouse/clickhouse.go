// Package clickhouse provides the JDBC-ClickHouse datasource plugin backed by
// clickhouse-go's database/sql interface.
package clickhouse

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const (
	PluginName = "JDBC-ClickHouse"

	httpPort = 8123
)

var systemDatabases = []string{"system", "INFORMATION_SCHEMA", "information_schema"}

type Dialect struct {
	rdbms.Base
}

// Options jdbc:clickhouse://host:port/db 转换为驱动配置，8123 端口走 HTTP 协议
func Options(jdbcURL, username, password string) (*clickhouse.Options, error) {
	u, err := rdbms.ParseJDBCURL(jdbcURL)
	if err != nil {
		return nil, err
	}
	if u.Subprotocol != "clickhouse" && u.Subprotocol != "ch" {
		return nil, fmt.Errorf("invalid ClickHouse JDBC URL: %s", jdbcURL)
	}
	opts := &clickhouse.Options{
		Addr: []string{u.HostPort(httpPort)},
		Auth: clickhouse.Auth{
			Database: u.DatabaseOr("default"),
			Username: username,
			Password: password,
		},
		DialTimeout: 30 * time.Second,
		Protocol:    clickhouse.Native,
	}
	if u.Port == 0 || u.Port == httpPort {
		opts.Protocol = clickhouse.HTTP
	}
	return opts, nil
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	opts, err := Options(p.String(rdbms.KeyURL), p.String(rdbms.KeyUser), p.String(rdbms.KeyPassword))
	if err != nil {
		return nil, err
	}
	return clickhouse.OpenDB(opts), nil
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

// ColumnsQuery Nullable(T) 以外的列都不可空
func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	return "SELECT name, type, if(startsWith(type, 'Nullable'), 'YES', 'NO'), comment FROM system.columns " +
			"WHERE database = ? AND table = ? ORDER BY position",
		[]any{database, table}
}

func (d *Dialect) PrimaryKeyQuery(database, table string) (string, []any) {
	return "SELECT name FROM system.columns WHERE database = ? AND table = ? AND is_in_primary_key = 1 ORDER BY position",
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
	d := &Dialect{Base: rdbms.Base{URLExample: "jdbc:clickhouse://localhost:8123/default", System: systemDatabases}}
	return rdbms.NewChannel(d)
}
