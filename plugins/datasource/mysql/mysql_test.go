package mysql

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

var params = map[string]string{"url": "jdbc:mysql://127.0.0.1:3306/demo", "user": "root", "password": "pw"}

func TestListTables_UsesInformationSchema(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	ch := rdbms.NewChannel(sqlmockDialect{Dialect: NewDialect("jdbc:mysql://localhost:3306/test", SystemDatabases), db: db})

	mock.ExpectQuery("SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME LIKE ? ORDER BY TABLE_NAME").
		WithArgs("demo", "%user%").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("user_info").AddRow("users"))
	mock.ExpectClose()

	tables, err := ch.ListTables(context.Background(), PluginName, params, "demo", map[string]string{plugin.OptionFilterName: "user"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_info", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFactory(t *testing.T) {
	f := Factory{}
	require.Len(t, f.SupportedDataSources(), 1)
	assert.Equal(t, PluginName, f.SupportedDataSources()[0].Name)

	ch := f.CreateChannel(plugin.Environment{})
	rule := ch.ConnectionOptionRule(PluginName)
	_, ok := rule.Lookup("url")
	assert.True(t, ok)
	assert.Error(t, rule.Validate(map[string]string{"user": "root"}))
}
