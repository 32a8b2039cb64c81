package hive

import (
	"context"
	"errors"
	"testing"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	results map[string][][]string
	err     error
	closed  int
	stmts   []string
}

func (s *fakeSession) Query(ctx context.Context, stmt string) ([][]string, error) {
	s.stmts = append(s.stmts, stmt)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[stmt], nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

func newFakeChannel(s *fakeSession) *Channel {
	return newChannel(func(context.Context, config.Params) (session, error) { return s, nil })
}

var params = map[string]string{"url": "jdbc:hive2://hive:10000/default"}

func TestListDatabases_Unfiltered(t *testing.T) {
	s := &fakeSession{results: map[string][][]string{
		"SHOW DATABASES": {{"default"}, {"information_schema"}, {"ods"}, {"sys"}},
	}}
	dbs, err := newFakeChannel(s).ListDatabases(context.Background(), PluginName, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "information_schema", "ods", "sys"}, dbs)
	assert.Equal(t, 1, s.closed)
}

func TestListTables_FilterSortAndSize(t *testing.T) {
	s := &fakeSession{results: map[string][][]string{
		"SHOW TABLES IN `ods`": {{"user_log"}, {"orders"}, {"dim_user"}, {"users"}},
	}}
	tables, err := newFakeChannel(s).ListTables(context.Background(), JDBCPluginName, params, "ods",
		map[string]string{plugin.OptionFilterName: "user", plugin.OptionSize: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dim_user", "user_log"}, tables)
}

func TestTableFields_StopsAtPartitionSection(t *testing.T) {
	s := &fakeSession{results: map[string][][]string{
		"DESCRIBE `ods`.`orders`": {
			{"id", "bigint", "order id"},
			{"amount", "decimal(10,2)", ""},
			{"dt", "string", ""},
			{"", "", ""},
			{"# Partition Information", "", ""},
			{"# col_name", "data_type", "comment"},
			{"dt", "string", ""},
		},
	}}
	fields, err := newFakeChannel(s).TableFields(context.Background(), PluginName, params, "ods", "orders")
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "decimal(10,2)", fields[1].Type)
	require.NotNil(t, fields[0].Comment)
	assert.Equal(t, "order id", *fields[0].Comment)
	assert.Nil(t, fields[1].Comment)
	for _, f := range fields {
		assert.False(t, f.PrimaryKey)
		assert.True(t, f.Nullable)
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("TSocket read 0 bytes")
	failing := newChannel(func(context.Context, config.Params) (session, error) { return nil, cause })

	ok, err := failing.CheckConnectivity(context.Background(), PluginName, params)
	assert.False(t, ok)
	assert.ErrorIs(t, err, plugin.ErrConnectivity)
	assert.ErrorIs(t, err, cause)

	s := &fakeSession{err: errors.New("Table not found")}
	_, err = newFakeChannel(s).TableFields(context.Background(), PluginName, params, "ods", "nope")
	assert.ErrorIs(t, err, plugin.ErrSchemaIntrospection)

	_, err = newFakeChannel(s).ListDatabases(context.Background(), PluginName, map[string]string{})
	assert.ErrorIs(t, err, plugin.ErrConfiguration)

	_, err = newFakeChannel(s).ListDatabases(context.Background(), PluginName,
		map[string]string{"url": "jdbc:hive2://hive:10000/default", "auth": "LDAP"})
	assert.ErrorIs(t, err, plugin.ErrConfiguration)
}
