package console

import (
	"context"
	"testing"

	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleStub(t *testing.T) {
	ch := Factory{}.CreateChannel(plugin.Environment{})
	ctx := context.Background()

	ok, err := ch.CheckConnectivity(ctx, PluginName, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	dbs, err := ch.ListDatabases(ctx, PluginName, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, dbs)

	tables, err := ch.ListTables(ctx, PluginName, nil, "default", map[string]string{plugin.OptionFilterName: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, tables)

	fields, err := ch.TableFields(ctx, PluginName, nil, "default", "default")
	require.NoError(t, err)
	assert.Empty(t, fields)
}
