// Package oracle provides the JDBC-Oracle datasource plugin. Oracle has no
// databases in the MySQL sense; schemas (users) are listed instead.
package oracle

import (
	"database/sql"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
	_ "github.com/sijms/go-ora/v2"
)

const PluginName = "JDBC-Oracle"

var systemDatabases = []string{
	"ANONYMOUS", "APPQOSSYS", "AUDSYS", "CTXSYS", "DBSFWUSER", "DBSNMP", "DIP", "DVF", "DVSYS",
	"GGSYS", "GSMADMIN_INTERNAL", "GSMCATUSER", "GSMUSER", "LBACSYS", "MDDATA", "MDSYS",
	"OJVMSYS", "OLAPSYS", "ORACLE_OCM", "ORDDATA", "ORDPLUGINS", "ORDSYS", "OUTLN",
	"REMOTE_SCHEDULER_AGENT", "SI_INFORMTN_SCHEMA", "SYS", "SYS$UMF", "SYSBACKUP", "SYSDG",
	"SYSKM", "SYSRAC", "SYSTEM", "WMSYS", "XDB", "XS$NULL",
}

type Dialect struct {
	rdbms.Base
}

func (d *Dialect) Open(p config.Params) (*sql.DB, error) {
	dsn, err := rdbms.OracleDSN(p.String(rdbms.KeyURL), p.String(rdbms.KeyUser), p.String(rdbms.KeyPassword))
	if err != nil {
		return nil, err
	}
	return sql.Open("oracle", dsn)
}

func (d *Dialect) CheckQuery() string {
	return "SELECT 1 FROM DUAL"
}

func (d *Dialect) DatabasesQuery() string {
	return "SELECT username FROM all_users ORDER BY username"
}

func (d *Dialect) TablesQuery(database, pattern string) (string, []any) {
	if pattern == "" {
		return "SELECT table_name FROM all_tables WHERE owner = :1 ORDER BY table_name", []any{database}
	}
	return "SELECT table_name FROM all_tables WHERE owner = :1 AND table_name LIKE :2 ORDER BY table_name",
		[]any{database, pattern}
}

func (d *Dialect) ColumnsQuery(database, table string) (string, []any) {
	return "SELECT c.column_name, c.data_type, c.nullable, cc.comments FROM all_tab_columns c " +
			"LEFT JOIN all_col_comments cc ON cc.owner = c.owner AND cc.table_name = c.table_name AND cc.column_name = c.column_name " +
			"WHERE c.owner = :1 AND c.table_name = :2 ORDER BY c.column_id",
		[]any{database, table}
}

func (d *Dialect) PrimaryKeyQuery(database, table string) (string, []any) {
	return "SELECT cols.column_name FROM all_constraints cons " +
			"JOIN all_cons_columns cols ON cons.owner = cols.owner AND cons.constraint_name = cols.constraint_name " +
			"WHERE cons.constraint_type = 'P' AND cons.owner = :1 AND cons.table_name = :2 ORDER BY cols.position",
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
	d := &Dialect{Base: rdbms.Base{URLExample: "jdbc:oracle:thin:@localhost:1521:XE", System: systemDatabases}}
	return rdbms.NoBatchChannel{Channel: rdbms.NewChannel(d)}
}
