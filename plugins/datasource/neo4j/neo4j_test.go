package neo4j

import (
	"context"
	"testing"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferProperties(t *testing.T) {
	nodes := []map[string]any{
		{"name": "Alice", "age": int64(30), "born": dbtype.Date{}},
		{"name": "Bob", "age": 31.5, "tags": []any{"a"}, "nickname": nil},
	}
	fields := InferProperties(nodes)

	got := make(map[string]string)
	var names []string
	for _, f := range fields {
		got[f.Name] = f.Type
		names = append(names, f.Name)
		assert.True(t, f.Nullable)
		assert.False(t, f.PrimaryKey)
	}
	assert.Equal(t, []string{"age", "born", "name", "nickname", "tags"}, names)
	assert.Equal(t, "string", got["age"], "mixed int and float")
	assert.Equal(t, "date", got["born"])
	assert.Equal(t, "array", got["tags"])
	assert.Equal(t, "", got["nickname"])
}

func TestQuoteLabel(t *testing.T) {
	assert.Equal(t, "`Person`", quoteLabel("Person"))
	assert.Equal(t, "`we``ird`", quoteLabel("we`ird"))
}

type fakeGraph struct {
	results map[string][]map[string]any
	dbs     []string
	closed  int
}

func (g *fakeGraph) VerifyConnectivity(context.Context) error { return nil }

func (g *fakeGraph) Run(_ context.Context, database, cypher string, _ map[string]any) ([]map[string]any, error) {
	g.dbs = append(g.dbs, database)
	return g.results[cypher], nil
}

func (g *fakeGraph) Close(context.Context) error {
	g.closed++
	return nil
}

func TestChannel(t *testing.T) {
	g := &fakeGraph{results: map[string][]map[string]any{
		"SHOW DATABASES YIELD name RETURN DISTINCT name": {{"name": "system"}, {"name": "neo4j"}, {"name": "movies"}},
		"CALL db.labels() YIELD label RETURN label":      {{"label": "Person"}, {"label": "Movie"}, {"label": "PersonAlias"}},
		"MATCH (n:`Person`) WITH n LIMIT 100 RETURN properties(n) AS props": {
			{"props": map[string]any{"name": "Keanu"}},
		},
	}}
	ch := newChannel(func(config.Params) (graph, error) { return g, nil })
	params := map[string]string{KeyURI: "neo4j://localhost:7687"}
	ctx := context.Background()

	ok, err := ch.CheckConnectivity(ctx, PluginName, params)
	require.NoError(t, err)
	assert.True(t, ok)

	dbs, err := ch.ListDatabases(ctx, PluginName, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"movies", "neo4j"}, dbs)

	labels, err := ch.ListTables(ctx, PluginName, params, "movies", map[string]string{plugin.OptionFilterName: "person"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Person", "PersonAlias"}, labels)

	fields, err := ch.TableFields(ctx, PluginName, params, "movies", "Person")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "string", fields[0].Type)

	_, err = ch.TableFields(ctx, PluginName, params, "movies", "Nobody")
	assert.ErrorIs(t, err, plugin.ErrSchemaIntrospection)

	assert.Equal(t, []string{"system", "movies", "movies", "movies"}, g.dbs)
	assert.Equal(t, 5, g.closed)
}
