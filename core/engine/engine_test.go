package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/core/registry"
	"github.com/longkeyy/go-datasource/plugins/datasource/console"
	"github.com/longkeyy/go-datasource/plugins/datasource/fakesource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New([]plugin.Factory{fakesource.Factory{}, console.Factory{}}, plugin.Environment{})
	require.NoError(t, err)
	return r
}

var fakeParams = map[string]string{fakesource.KeyFields: `{"id":"bigint","name":"string"}`}

func TestExecute_Actions(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	out, err := Execute(ctx, r, Command{Action: ActionPlugins})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = Execute(ctx, r, Command{Action: ActionCheck, Plugin: "FakeSource", Params: fakeParams})
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = Execute(ctx, r, Command{Action: ActionDatabases, Plugin: "console"})
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, out)

	out, err = Execute(ctx, r, Command{Action: ActionTables, Plugin: "FakeSource", Filter: "fake", Size: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{fakesource.FakeTable}, out)

	out, err = Execute(ctx, r, Command{Action: ActionFields, Plugin: "FakeSource", Params: fakeParams,
		Database: fakesource.FakeDatabase, Table: fakesource.FakeTable})
	require.NoError(t, err)
	fields := out.([]element.TableField)
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Name)

	out, err = Execute(ctx, r, Command{Action: ActionFields, Plugin: "FakeSource", Params: fakeParams,
		Database: fakesource.FakeDatabase, Tables: []string{fakesource.FakeTable}})
	require.NoError(t, err)
	assert.Equal(t, map[string][]element.TableField{fakesource.FakeTable: fields}, out)

	out, err = Execute(ctx, r, Command{Action: ActionRules, Plugin: "FakeSource"})
	require.NoError(t, err)
	rules := out.(RulesResult)
	_, ok := rules.Connection.Lookup(fakesource.KeyFields)
	assert.True(t, ok)
}

func TestExecute_Errors(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := Execute(ctx, r, Command{Action: ActionCheck})
	assert.Error(t, err)

	_, err = Execute(ctx, r, Command{Action: "drop", Plugin: "Console"})
	assert.Error(t, err)

	_, err = Execute(ctx, r, Command{Action: ActionDatabases, Plugin: "JDBC-Nope"})
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)

	_, err = Execute(ctx, r, Command{Action: ActionMax, Plugin: "Console", Table: "t", Column: "id"})
	assert.ErrorIs(t, err, plugin.ErrUnsupportedOperation)
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"url":"jdbc:mysql://db:3306/demo","user":"root","port":3306}`), 0o600))

	params, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"url": "jdbc:mysql://db:3306/demo", "user": "root", "port": "3306"}, params)

	params, err = LoadParams("")
	require.NoError(t, err)
	assert.Empty(t, params)

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, []string{"a"}))
	assert.Equal(t, "[\n  \"a\"\n]\n", buf.String())
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b"))
	assert.Nil(t, splitList(""))
}
