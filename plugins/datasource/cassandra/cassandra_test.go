package cassandra

import (
	"context"
	"errors"
	"testing"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	rows   map[string][]map[string]interface{}
	err    error
	closed int
}

func (s *fakeSession) Query(_ context.Context, stmt string, _ ...interface{}) ([]map[string]interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[stmt], nil
}

func (s *fakeSession) Close() { s.closed++ }

func newFakeChannel(s *fakeSession) *Channel {
	return &Channel{connect: func(config.Params) (session, error) { return s, nil }}
}

var params = map[string]string{KeyHost: "cass1,cass2"}

func TestColumnsToFields_KeyOrder(t *testing.T) {
	rows := []map[string]interface{}{
		{"column_name": "value", "type": "text", "kind": "regular", "position": -1},
		{"column_name": "ts", "type": "timestamp", "kind": "clustering", "position": 0},
		{"column_name": "bucket", "type": "int", "kind": "partition_key", "position": 1},
		{"column_name": "sensor_id", "type": "uuid", "kind": "partition_key", "position": 0},
		{"column_name": "unit", "type": "text", "kind": "regular", "position": -1},
	}
	fields := columnsToFields(rows)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"sensor_id", "bucket", "ts", "unit", "value"}, names)

	pk, ok := element.PrimaryKeyField(fields)
	require.True(t, ok)
	assert.Equal(t, "sensor_id", pk)
	assert.False(t, fields[2].Nullable)
	assert.True(t, fields[3].Nullable)
}

func TestChannel(t *testing.T) {
	s := &fakeSession{rows: map[string][]map[string]interface{}{
		"SELECT release_version FROM system.local": {{"release_version": "4.1.3"}},
		"SELECT keyspace_name FROM system_schema.keyspaces": {
			{"keyspace_name": "system"}, {"keyspace_name": "iot"}, {"keyspace_name": "system_auth"}, {"keyspace_name": "app"},
		},
		"SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?": {
			{"table_name": "readings"}, {"table_name": "sensors"}, {"table_name": "readings_by_day"},
		},
	}}
	ch := newFakeChannel(s)
	ctx := context.Background()

	ok, err := ch.CheckConnectivity(ctx, PluginName, params)
	require.NoError(t, err)
	assert.True(t, ok)

	keyspaces, err := ch.ListDatabases(ctx, PluginName, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "iot"}, keyspaces)

	tables, err := ch.ListTables(ctx, PluginName, params, "iot", map[string]string{plugin.OptionFilterName: "readings"})
	require.NoError(t, err)
	assert.Equal(t, []string{"readings", "readings_by_day"}, tables)

	_, err = ch.TableFields(ctx, PluginName, params, "iot", "nope")
	assert.ErrorIs(t, err, plugin.ErrSchemaIntrospection)

	assert.Equal(t, 4, s.closed)
}

func TestChannel_Errors(t *testing.T) {
	cause := errors.New("no hosts available in the pool")
	ch := &Channel{connect: func(config.Params) (session, error) { return nil, cause }}

	ok, err := ch.CheckConnectivity(context.Background(), PluginName, params)
	assert.False(t, ok)
	assert.ErrorIs(t, err, plugin.ErrConnectivity)
	assert.ErrorIs(t, err, cause)

	_, err = ch.ListDatabases(context.Background(), PluginName, map[string]string{KeyHost: "c", KeyUsername: "u"})
	assert.ErrorIs(t, err, plugin.ErrConfiguration)
}
