package sqlserver

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sqlmockDialect struct {
	*Dialect
	db *sql.DB
}

func (d sqlmockDialect) Open(config.Params) (*sql.DB, error) { return d.db, nil }

var params = map[string]string{"url": "jdbc:sqlserver://mssql:1433;databaseName=sales", "user": "sa", "password": "pw"}

func TestBracket(t *testing.T) {
	assert.Equal(t, "[sales]", bracket("sales"))
	assert.Equal(t, "[we]]ird]", bracket("we]ird"))
}

func TestColumnsQuery_DefaultSchema(t *testing.T) {
	d := &Dialect{}
	_, args := d.ColumnsQuery("sales", "orders")
	assert.Equal(t, []any{"dbo", "orders", "[sales].[dbo].[orders]"}, args)

	_, args = d.PrimaryKeyQuery("sales", "ods.orders")
	assert.Equal(t, []any{"ods", "orders"}, args)
}

func TestListTablesAndDatabases(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	d := sqlmockDialect{Dialect: &Dialect{Base: rdbms.Base{System: systemDatabases}}, db: db}
	ch := rdbms.NewChannel(d)
	ctx := context.Background()

	mock.ExpectQuery(d.DatabasesQuery()).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("master").AddRow("sales").AddRow("tempdb"))
	mock.ExpectClose()
	dbs, err := ch.ListDatabases(ctx, PluginName, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, dbs)

	query, _ := d.TablesQuery("sales", "")
	mock.ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("dbo.a").AddRow("dbo.b").AddRow("ods.c"))
	mock.ExpectClose()
	tables, err := ch.ListTables(ctx, PluginName, params, "sales", map[string]string{plugin.OptionSize: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dbo.a", "dbo.b"}, tables)

	assert.NoError(t, mock.ExpectationsWereMet())
}
