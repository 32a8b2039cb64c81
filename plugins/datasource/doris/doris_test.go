package doris

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/common/pool"
	"github.com/longkeyy/go-datasource/plugins/datasource/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const columnTypeQuery = "SELECT DATA_TYPE FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_NAME = ?"

type sqlmockDialect struct {
	*mysql.Dialect
	db *sql.DB
}

func (d sqlmockDialect) Open(config.Params) (*sql.DB, error) { return d.db, nil }

var params = map[string]string{"url": "jdbc:mysql://fe:9030/demo", "user": "root", "password": "pw"}

func newPooledChannel(t *testing.T) (*Channel, sqlmock.Sqlmock, *pool.Cache) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	cache := pool.New(pool.Options{SweepInterval: time.Hour})
	t.Cleanup(func() { cache.Close() })

	d := sqlmockDialect{Dialect: mysql.NewDialect("jdbc:mysql://localhost:9030/test", systemDatabases), db: db}
	return newChannel(d, plugin.Environment{Pools: cache}), mock, cache
}

func TestTableSyncMaxValue(t *testing.T) {
	ch, mock, cache := newPooledChannel(t)
	ctx := context.Background()

	mock.ExpectQuery(columnTypeQuery).WithArgs("demo", "orders", "updated_at").
		WillReturnRows(sqlmock.NewRows([]string{"DATA_TYPE"}).AddRow("datetime"))
	mock.ExpectQuery("SELECT MAX(`updated_at`) FROM `demo`.`orders`").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow("2024-05-01 10:00:00"))

	v, err := ch.TableSyncMaxValue(ctx, PluginName, params, "demo", "orders", "updated_at", []string{"json"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 10:00:00", v)

	mock.ExpectQuery(columnTypeQuery).WithArgs("demo", "empty", "id").
		WillReturnRows(sqlmock.NewRows([]string{"DATA_TYPE"}).AddRow("bigint"))
	mock.ExpectQuery("SELECT MAX(`id`) FROM `demo`.`empty`").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	v, err = ch.TableSyncMaxValue(ctx, PluginName, params, "demo", "empty", "id", nil)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	mock.ExpectQuery(columnTypeQuery).WithArgs("demo", "orders", "payload").
		WillReturnRows(sqlmock.NewRows([]string{"DATA_TYPE"}).AddRow("JSON"))

	_, err = ch.TableSyncMaxValue(ctx, PluginName, params, "demo", "orders", "payload", []string{"json", "bitmap"})
	assert.ErrorIs(t, err, plugin.ErrUnsupportedOperation)

	mock.ExpectQuery(columnTypeQuery).WithArgs("demo", "orders", "nope").
		WillReturnRows(sqlmock.NewRows([]string{"DATA_TYPE"}))

	_, err = ch.TableSyncMaxValue(ctx, PluginName, params, "demo", "orders", "nope", nil)
	assert.ErrorIs(t, err, plugin.ErrSchemaIntrospection)

	assert.Equal(t, 1, cache.Len(), "all calls share one pooled data source")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableFieldsBatch_Parallel(t *testing.T) {
	ch, mock, _ := newPooledChannel(t)
	mock.MatchExpectationsInOrder(false)

	columns := "SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_COMMENT FROM information_schema.COLUMNS " +
		"WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"
	pk := "SELECT COLUMN_NAME FROM information_schema.COLUMNS " +
		"WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_KEY = 'PRI' ORDER BY ORDINAL_POSITION"

	for _, table := range []string{"a", "b"} {
		mock.ExpectQuery(columns).WithArgs("demo", table).
			WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_COMMENT"}).
				AddRow(table+"_id", "bigint", "NO", "").
				AddRow("v", "varchar(64)", "YES", "value"))
		mock.ExpectQuery(pk).WithArgs("demo", table).
			WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).AddRow(table + "_id"))
	}

	got, err := ch.TableFieldsBatch(context.Background(), PluginName, params, "demo", []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, table := range []string{"a", "b"} {
		name, ok := element.PrimaryKeyField(got[table])
		require.True(t, ok)
		assert.Equal(t, table+"_id", name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFactory_FallsBackToPerCallWithoutPools(t *testing.T) {
	ch := Factory{}.CreateChannel(plugin.Environment{})
	_, ok := ch.(plugin.SyncMaxValueChannel)
	assert.True(t, ok)
	_, ok = ch.(plugin.BatchFieldsChannel)
	assert.True(t, ok)
}
